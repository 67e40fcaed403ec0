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
	"slices"
	"strings"

	"github.com/nlpodyssey/trading-crew-go/modelsettings"
)

// DefaultMaxIterations is used when neither the agent nor the crew set a limit.
const DefaultMaxIterations = 15

// An Agent is a role-playing member of a crew, configured with a goal,
// a backstory and the tools it may use.
//
// Role, Goal and Backstory may contain {name} placeholders, which are
// interpolated with the kickoff inputs.
type Agent struct {
	// The role of the agent. It also identifies the agent as a coworker.
	Role string

	// What the agent tries to achieve.
	Goal string

	// The personality and expertise of the agent.
	Backstory string

	// The tools the agent can use.
	Tools []Tool

	// Whether the agent may delegate work to, and ask questions of,
	// the other agents of its crew.
	AllowDelegation bool

	// Whether the agent logs its progress at info level.
	Verbose bool

	// The model used by the agent. When nil, the crew's Model is used.
	Model Model

	// Model-specific tuning parameters.
	ModelSettings modelsettings.ModelSettings

	// The maximum number of model calls for a single task. When zero,
	// the crew's MaxIterations is used.
	MaxIterations int
}

// NewAgent creates a new Agent with the given role.
//
// The returned Agent can be further configured using the builder methods.
func NewAgent(role string) *Agent {
	return &Agent{Role: role}
}

// WithGoal sets the agent goal.
func (a *Agent) WithGoal(goal string) *Agent {
	a.Goal = goal
	return a
}

// WithBackstory sets the agent backstory.
func (a *Agent) WithBackstory(backstory string) *Agent {
	a.Backstory = backstory
	return a
}

// WithTools sets the agent tools.
func (a *Agent) WithTools(tools ...Tool) *Agent {
	a.Tools = tools
	return a
}

// AddTool appends a tool to the agent tools.
func (a *Agent) AddTool(t Tool) *Agent {
	a.Tools = append(a.Tools, t)
	return a
}

// WithAllowDelegation sets whether the agent may delegate work.
func (a *Agent) WithAllowDelegation(v bool) *Agent {
	a.AllowDelegation = v
	return a
}

// WithVerbose sets whether the agent logs its progress.
func (a *Agent) WithVerbose(v bool) *Agent {
	a.Verbose = v
	return a
}

// WithModel sets the model used by the agent.
func (a *Agent) WithModel(m Model) *Agent {
	a.Model = m
	return a
}

// WithModelSettings sets the model settings.
func (a *Agent) WithModelSettings(s modelsettings.ModelSettings) *Agent {
	a.ModelSettings = s
	return a
}

// WithMaxIterations sets the iteration limit.
func (a *Agent) WithMaxIterations(n int) *Agent {
	a.MaxIterations = n
	return a
}

// SystemPrompt renders the agent persona as system instructions.
func (a *Agent) SystemPrompt() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "You are %s.", a.Role)
	if a.Backstory != "" {
		sb.WriteString(" ")
		sb.WriteString(a.Backstory)
	}
	if a.Goal != "" {
		_, _ = fmt.Fprintf(&sb, "\nYour personal goal is: %s", a.Goal)
	}
	if len(a.Tools) > 0 {
		_, _ = fmt.Fprintf(&sb,
			"\n\nYou ONLY have access to the following tools, and should NEVER make up tools that are not listed here: %s.",
			strings.Join(toolNames(a.Tools), ", "))
		sb.WriteString("\nUse them whenever they help, then reply with your complete final answer as plain text.")
	}
	return sb.String()
}

// interpolate returns a copy of the agent with its persona templates filled in.
func (a *Agent) interpolate(inputs map[string]string) (*Agent, error) {
	out := *a
	out.Tools = slices.Clone(a.Tools)

	var missing []string
	out.Role = interpolateTemplate(a.Role, inputs, &missing)
	out.Goal = interpolateTemplate(a.Goal, inputs, &missing)
	out.Backstory = interpolateTemplate(a.Backstory, inputs, &missing)
	if len(missing) > 0 {
		return nil, MissingInputError{Keys: dedupe(missing)}
	}
	return &out, nil
}
