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
	"fmt"
	"strings"
)

// A Task is a unit of work assigned to an agent.
//
// Description and ExpectedOutput may contain {name} placeholders, which are
// interpolated with the kickoff inputs.
type Task struct {
	// What the agent has to do.
	Description string

	// What a complete answer looks like.
	ExpectedOutput string

	// The agent responsible for the task. Required by the sequential process;
	// in the hierarchical process it only hints the manager.
	Agent *Agent

	// Earlier tasks whose outputs are given as context. When empty, the
	// outputs of all previous tasks are used.
	Context []*Task
}

// Interpolate returns a copy of the task with its templates filled in.
// The agent and context references are kept as they are.
func (t *Task) Interpolate(inputs map[string]string) (*Task, error) {
	out := *t
	var missing []string
	out.Description = interpolateTemplate(t.Description, inputs, &missing)
	out.ExpectedOutput = interpolateTemplate(t.ExpectedOutput, inputs, &missing)
	if len(missing) > 0 {
		return nil, MissingInputError{Keys: dedupe(missing)}
	}
	return &out, nil
}

// Prompt renders the task for the agent, with the given context text.
func (t *Task) Prompt(context string) string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "Current Task: %s\n\n", t.Description)
	_, _ = fmt.Fprintf(&sb, "This is the expected criteria for your final answer: %s\n", t.ExpectedOutput)
	sb.WriteString("You MUST return the actual complete content as the final answer, not a summary.")
	if context != "" {
		_, _ = fmt.Fprintf(&sb, "\n\nThis is the context you're working with:\n%s", context)
	}
	sb.WriteString("\n\nBegin! This is VERY important to you, use the tools available and give your best Final Answer, your job depends on it!")
	return sb.String()
}

// TaskOutput is the result of one task.
type TaskOutput struct {
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output"`
	Summary        string `json:"summary"`
	Raw            string `json:"raw"`
	AgentRole      string `json:"agent"`
}

func newTaskOutput(task *Task, agentRole, raw string) TaskOutput {
	return TaskOutput{
		Description:    task.Description,
		ExpectedOutput: task.ExpectedOutput,
		Summary:        summarize(task.Description),
		Raw:            raw,
		AgentRole:      agentRole,
	}
}

func (o TaskOutput) String() string { return o.Raw }

const summaryWords = 10

func summarize(description string) string {
	words := strings.Fields(description)
	if len(words) <= summaryWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:summaryWords], " ") + "..."
}
