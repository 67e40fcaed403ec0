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
	"fmt"
	"strings"
)

const (
	DelegateWorkToolName = "delegate_work_to_coworker"
	AskQuestionToolName  = "ask_question_to_coworker"
)

type DelegateWorkArgs struct {
	Task     string `json:"task" jsonschema_description:"The task to delegate."`
	Context  string `json:"context" jsonschema_description:"The context for the task: the coworker knows nothing else about it."`
	Coworker string `json:"coworker" jsonschema_description:"The role of the coworker to delegate to."`
}

type AskQuestionArgs struct {
	Question string `json:"question" jsonschema_description:"The question to ask."`
	Context  string `json:"context" jsonschema_description:"The context for the question: the coworker knows nothing else about it."`
	Coworker string `json:"coworker" jsonschema_description:"The role of the coworker to ask."`
}

const coworkerExpectedOutput = "Your best answer to your coworker asking you this, accounting for the context shared."

// coworkerRunner runs an agent on a prompt on behalf of another agent.
type coworkerRunner func(ctx context.Context, coworker *Agent, prompt string) (string, error)

type delegation struct {
	coworkers []*Agent
	run       coworkerRunner
}

// tools returns the tools used to delegate work to, and ask
// questions of, the given coworkers.
func (d delegation) tools() []Tool {
	roles := d.roles()
	delegate := NewFunctionTool(
		DelegateWorkToolName,
		fmt.Sprintf(
			"Delegate a specific task to one of the following coworkers: %s. "+
				"The input to this tool should be the coworker, the task you want them to do, and ALL necessary context "+
				"to execute the task, they know nothing about the task, so share absolutely everything you know, "+
				"don't reference things but instead explain them.",
			roles,
		),
		func(ctx context.Context, args DelegateWorkArgs) (string, error) {
			return d.ask(ctx, args.Coworker, args.Task, args.Context)
		},
	)
	ask := NewFunctionTool(
		AskQuestionToolName,
		fmt.Sprintf(
			"Ask a specific question to one of the following coworkers: %s. "+
				"The input to this tool should be the coworker, the question you have for them, and ALL necessary context "+
				"to ask the question properly, they know nothing about the question, so share absolutely everything you know, "+
				"don't reference things but instead explain them.",
			roles,
		),
		func(ctx context.Context, args AskQuestionArgs) (string, error) {
			return d.ask(ctx, args.Coworker, args.Question, args.Context)
		},
	)
	return []Tool{delegate, ask}
}

func (d delegation) ask(ctx context.Context, coworkerRole, work, contextText string) (string, error) {
	coworker, ok := d.find(coworkerRole)
	if !ok {
		var sb strings.Builder
		sb.WriteString("coworker mentioned not found, it must be one of the following options:")
		for _, c := range d.coworkers {
			sb.WriteString("\n- ")
			sb.WriteString(c.Role)
		}
		return "", fmt.Errorf("%s", sb.String())
	}
	task := &Task{Description: work, ExpectedOutput: coworkerExpectedOutput}
	return d.run(ctx, coworker, task.Prompt(contextText))
}

func (d delegation) find(role string) (*Agent, bool) {
	want := normalizeRole(role)
	for _, c := range d.coworkers {
		if normalizeRole(c.Role) == want {
			return c, true
		}
	}
	return nil, false
}

func (d delegation) roles() string {
	roles := make([]string, len(d.coworkers))
	for i, c := range d.coworkers {
		roles[i] = c.Role
	}
	return strings.Join(roles, ", ")
}

// normalizeRole makes role matching insensitive to case, quoting and spacing.
func normalizeRole(role string) string {
	role = strings.Trim(role, "\"' \t\n")
	return strings.Join(strings.Fields(strings.ToLower(role)), " ")
}
