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
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/nlpodyssey/trading-crew-go/modelsettings"
	"github.com/nlpodyssey/trading-crew-go/usage"
)

const (
	ManagerRole      = "Crew Manager"
	managerGoal      = "Manage the team to complete the task in the best way possible."
	managerBackstory = "You are a seasoned manager with a knack for getting the best out of your team.\n" +
		"You are also known for your ability to delegate work to the right people, and to ask the right questions to get the best out of your team.\n" +
		"Even though you don't perform tasks by yourself, you have a lot of experience in the field, which allows you to properly evaluate the work of your team members."
)

const contextSeparator = "\n\n----------\n\n"

// A Crew is a group of agents working together on a list of tasks.
type Crew struct {
	// The agents of the crew. Task agents missing from this list are added
	// automatically.
	Agents []*Agent

	// The tasks to run, in order.
	Tasks []*Task

	// The process used to run the tasks. Defaults to Sequential.
	Process Process

	// The default model, for agents without one.
	Model Model

	// The model of the manager agent. Required by the hierarchical process.
	ManagerModel Model

	// Model settings of the manager agent.
	ManagerSettings modelsettings.ModelSettings

	// Default iteration limit for agents that don't set one.
	MaxIterations int

	// Whether to log progress at info level.
	Verbose bool

	// Optional receiver of kickoff events.
	Hooks Hooks
}

// CrewOutput is the result of a kickoff.
type CrewOutput struct {
	// The output of the last task.
	Raw string `json:"raw"`

	// The outputs of every task, in order.
	TasksOutput []TaskOutput `json:"tasks_output"`

	// Token usage accumulated across all model requests.
	TokenUsage *usage.Usage `json:"token_usage"`
}

func (o CrewOutput) String() string { return o.Raw }

func (c *Crew) process() Process {
	return cmp.Or(c.Process, Sequential)
}

// Validate checks that the crew can be kicked off.
func (c *Crew) Validate() error {
	if len(c.Tasks) == 0 {
		return NewUserError("crew has no tasks")
	}

	process := c.process()
	if process != Sequential && process != Hierarchical {
		return UserErrorf("unknown process %q", process)
	}
	if process == Hierarchical {
		if c.ManagerModel == nil {
			return NewUserError("hierarchical process requires a manager model")
		}
		if len(c.allAgents()) == 0 {
			return NewUserError("hierarchical process requires at least one agent")
		}
	}

	for i, t := range c.Tasks {
		if t == nil {
			return UserErrorf("task %d is nil", i+1)
		}
		if process == Sequential && t.Agent == nil {
			return UserErrorf("task %d has no agent", i+1)
		}
		for _, dep := range t.Context {
			j := slices.Index(c.Tasks, dep)
			if j < 0 || j >= i {
				return UserErrorf("context of task %d must reference earlier tasks of the crew", i+1)
			}
		}
	}

	for _, a := range c.allAgents() {
		if a.Model == nil && c.Model == nil {
			return UserErrorf("agent %q has no model and the crew has no default model", a.Role)
		}
	}
	return nil
}

// allAgents returns the crew agents followed by any task agent not listed.
func (c *Crew) allAgents() []*Agent {
	agents := slices.Clone(c.Agents)
	agents = slices.DeleteFunc(agents, func(a *Agent) bool { return a == nil })
	for _, t := range c.Tasks {
		if t != nil && t.Agent != nil && !slices.Contains(agents, t.Agent) {
			agents = append(agents, t.Agent)
		}
	}
	return agents
}

// Kickoff runs the crew tasks with the given template inputs.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]string) (*CrewOutput, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	k, err := c.newKickoff(inputs)
	if err != nil {
		return nil, err
	}

	u := usage.NewUsage()
	ctx = usage.NewContext(ctx, u)

	k.emit(ctx, Event{Type: EventKickoffStarted, TaskIndex: -1})
	if c.Verbose {
		Logger().Info("Crew kickoff started",
			slog.String("process", c.process().String()),
			slog.Int("tasks", len(k.tasks)))
	}

	out, err := k.run(ctx)
	if err != nil {
		k.emit(ctx, Event{Type: EventKickoffFailed, TaskIndex: -1, Error: err.Error()})
		return nil, err
	}
	out.TokenUsage = u.Snapshot()

	k.emit(ctx, Event{Type: EventKickoffCompleted, TaskIndex: -1, Output: out.Raw})
	return out, nil
}

// kickoff holds the interpolated state of a single run.
type kickoff struct {
	crew    *Crew
	agents  []*Agent
	tasks   []*Task
	outputs []TaskOutput

	// Original task index of each interpolated task.
	taskIndex map[*Task]int
}

func (c *Crew) newKickoff(inputs map[string]string) (*kickoff, error) {
	originals := c.allAgents()
	agentMap := make(map[*Agent]*Agent, len(originals))
	agents := make([]*Agent, len(originals))
	for i, a := range originals {
		ia, err := a.interpolate(inputs)
		if err != nil {
			return nil, err
		}
		agentMap[a] = ia
		agents[i] = ia
	}

	tasks := make([]*Task, len(c.Tasks))
	taskIndex := make(map[*Task]int, len(c.Tasks))
	for i, t := range c.Tasks {
		it, err := t.Interpolate(inputs)
		if err != nil {
			return nil, err
		}
		if t.Agent != nil {
			it.Agent = agentMap[t.Agent]
		}
		it.Context = make([]*Task, len(t.Context))
		for j, dep := range t.Context {
			it.Context[j] = tasks[slices.Index(c.Tasks, dep)]
		}
		tasks[i] = it
		taskIndex[it] = i
	}

	return &kickoff{
		crew:      c,
		agents:    agents,
		tasks:     tasks,
		taskIndex: taskIndex,
	}, nil
}

func (k *kickoff) emit(ctx context.Context, e Event) {
	if k.crew.Hooks == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	k.crew.Hooks.OnEvent(ctx, e)
}

func (k *kickoff) run(ctx context.Context) (*CrewOutput, error) {
	for i, task := range k.tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, role, err := k.runTask(ctx, i, task)
		if err != nil {
			return nil, &TaskError{TaskIndex: i, AgentRole: role, Err: err}
		}

		output := newTaskOutput(task, role, raw)
		k.outputs = append(k.outputs, output)
		k.emit(ctx, Event{Type: EventTaskCompleted, TaskIndex: i, AgentRole: role, Output: raw})
	}

	return &CrewOutput{
		Raw:         k.outputs[len(k.outputs)-1].Raw,
		TasksOutput: slices.Clone(k.outputs),
	}, nil
}

func (k *kickoff) runTask(ctx context.Context, i int, task *Task) (raw, role string, err error) {
	var agent *Agent
	var prompt string
	contextText := k.taskContext(task)

	switch k.crew.process() {
	case Hierarchical:
		agent = k.manager(i)
		prompt = task.Prompt(contextText)
		if task.Agent != nil {
			prompt += "\n\nThe coworker best suited for this task is " + task.Agent.Role + "."
		}
	default:
		agent = k.withDelegation(task.Agent, i)
		prompt = task.Prompt(contextText)
	}

	k.emit(ctx, Event{Type: EventTaskStarted, TaskIndex: i, AgentRole: agent.Role, Output: task.Description})
	if k.crew.Verbose || agent.Verbose {
		Logger().Info("Starting Task",
			slog.Int("task", i+1),
			slog.String("agent", agent.Role),
			slog.String("description", task.Description))
	}

	raw, err = k.executor(agent, i).run(ctx, prompt)
	return raw, agent.Role, err
}

// taskContext joins the outputs of the task's context tasks, or of all the
// previous tasks when the task has none.
func (k *kickoff) taskContext(task *Task) string {
	var parts []string
	if len(task.Context) > 0 {
		for _, dep := range task.Context {
			parts = append(parts, k.outputs[k.taskIndex[dep]].Raw)
		}
	} else {
		for _, o := range k.outputs {
			parts = append(parts, o.Raw)
		}
	}
	return strings.Join(parts, contextSeparator)
}

func (k *kickoff) executor(agent *Agent, taskIndex int) *executor {
	model := agent.Model
	if model == nil {
		model = k.crew.Model
	}
	return &executor{
		agent:         agent,
		model:         model,
		maxIterations: cmp.Or(agent.MaxIterations, k.crew.MaxIterations, DefaultMaxIterations),
		verbose:       k.crew.Verbose || agent.Verbose,
		taskIndex:     taskIndex,
		emit:          k.emit,
	}
}

// manager builds the manager agent for the given task, with delegation
// tools over every crew agent.
func (k *kickoff) manager(taskIndex int) *Agent {
	m := &Agent{
		Role:          ManagerRole,
		Goal:          managerGoal,
		Backstory:     managerBackstory,
		Model:         k.crew.ManagerModel,
		ModelSettings: k.crew.ManagerSettings,
		Verbose:       k.crew.Verbose,
	}
	m.Tools = k.delegation(k.agents, taskIndex).tools()
	return m
}

// withDelegation adds delegation tools over the other agents of the crew,
// when the agent allows it.
func (k *kickoff) withDelegation(agent *Agent, taskIndex int) *Agent {
	if !agent.AllowDelegation {
		return agent
	}
	coworkers := slices.DeleteFunc(slices.Clone(k.agents), func(a *Agent) bool { return a == agent })
	if len(coworkers) == 0 {
		return agent
	}
	out := *agent
	out.Tools = append(slices.Clone(agent.Tools), k.delegation(coworkers, taskIndex).tools()...)
	return &out
}

// delegation runs coworkers with their own tools only, so that delegated
// work cannot be delegated again.
func (k *kickoff) delegation(coworkers []*Agent, taskIndex int) delegation {
	return delegation{
		coworkers: coworkers,
		run: func(ctx context.Context, coworker *Agent, prompt string) (string, error) {
			return k.executor(coworker, taskIndex).run(ctx, prompt)
		},
	}
}
