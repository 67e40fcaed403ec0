// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package crew

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nlpodyssey/trading-crew-go/modelsettings"
	"github.com/nlpodyssey/trading-crew-go/usage"
	"golang.org/x/sync/errgroup"
)

const forceFinalAnswerPrompt = "Now it's time you MUST give your absolute best final answer. " +
	"You'll ignore all previous instructions, stop using any tools, and just return your absolute BEST Final answer."

// executor runs the model loop of one agent working on one prompt.
type executor struct {
	// The agent, with the full set of tools it can use for this run.
	agent         *Agent
	model         Model
	maxIterations int
	verbose       bool
	taskIndex     int
	emit          func(context.Context, Event)
}

func (e *executor) run(ctx context.Context, prompt string) (string, error) {
	messages := []Message{UserMessage(prompt)}
	tools := e.agent.Tools
	systemPrompt := e.agent.SystemPrompt()

	if e.verbose {
		Logger().Info("Working Agent", slog.String("agent", e.agent.Role))
	}

	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		settings := e.agent.ModelSettings
		if iteration == e.maxIterations && len(tools) > 0 {
			messages = append(messages, UserMessage(forceFinalAnswerPrompt))
			settings.ToolChoice = modelsettings.ToolChoiceNone
		}

		resp, err := e.model.GetResponse(ctx, ModelRequest{
			SystemInstructions: systemPrompt,
			Messages:           messages,
			Tools:              tools,
			ModelSettings:      settings,
		})
		if err != nil {
			return "", &ModelError{AgentRole: e.agent.Role, Err: err}
		}
		if u, ok := usage.FromContext(ctx); ok {
			u.Add(resp.Usage)
		}

		msg := resp.Message
		msg.Role = RoleAssistant
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			answer := strings.TrimSpace(msg.Content)
			if answer == "" {
				return "", ModelBehaviorErrorf("agent %q returned an empty answer", e.agent.Role)
			}
			if e.verbose {
				Logger().Info("Final Answer", slog.String("agent", e.agent.Role), slog.String("answer", answer))
			}
			return answer, nil
		}

		if iteration >= e.maxIterations {
			return "", MaxIterationsExceededError{AgentRole: e.agent.Role, MaxIterations: e.maxIterations}
		}

		results, err := e.runToolCalls(ctx, msg.ToolCalls)
		if err != nil {
			return "", err
		}
		messages = append(messages, results...)
	}
}

// runToolCalls runs the calls concurrently and returns one tool message per
// call, in the original order. Tool failures become error messages for the
// model; only a canceled context or a failed model request (of a coworker)
// stops the run.
func (e *executor) runToolCalls(ctx context.Context, calls []ToolCall) ([]Message, error) {
	results := make([]Message, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			output, err := e.invokeTool(gctx, call)
			if err != nil {
				return err
			}
			results[i] = ToolMessage(call.ID, output)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *executor) invokeTool(ctx context.Context, call ToolCall) (string, error) {
	logger := Logger().With(slog.String("agent", e.agent.Role), slog.String("tool", call.Name))
	if e.verbose {
		if DontLogToolData {
			logger.Info("Using tool")
		} else {
			logger.Info("Using tool", slog.String("input", call.Arguments))
		}
	}

	var output string
	t, ok := findTool(e.agent.Tools, call.Name)
	if !ok {
		output = fmt.Sprintf("Error: tool %q does not exist. Available tools: %s.",
			call.Name, strings.Join(toolNames(e.agent.Tools), ", "))
	} else {
		result, err := t.Invoke(ctx, call.Arguments)
		var modelErr *ModelError
		switch {
		case err == nil:
			output = result
		case errors.As(err, &modelErr):
			return "", err
		case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			return "", err
		default:
			logger.Warn("Tool failed", slog.String("error", err.Error()))
			output = fmt.Sprintf("Error: %v", err)
		}
	}

	if !DontLogToolData {
		logger.Debug("Tool output", slog.String("output", output))
	}
	e.emit(ctx, Event{
		Type:      EventAgentAction,
		TaskIndex: e.taskIndex,
		AgentRole: e.agent.Role,
		Tool:      call.Name,
		ToolInput: call.Arguments,
		Output:    output,
	})
	return output, nil
}
