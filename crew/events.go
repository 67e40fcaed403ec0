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
	"time"
)

type EventType string

const (
	EventKickoffStarted   EventType = "kickoff_started"
	EventTaskStarted      EventType = "task_started"
	EventAgentAction      EventType = "agent_action"
	EventTaskCompleted    EventType = "task_completed"
	EventKickoffCompleted EventType = "kickoff_completed"
	EventKickoffFailed    EventType = "kickoff_failed"
)

// Event describes progress of a kickoff.
type Event struct {
	Type EventType `json:"type"`
	Time time.Time `json:"time"`

	// Index of the task the event belongs to, or -1 for kickoff events.
	TaskIndex int `json:"task_index"`

	// Role of the acting agent, when relevant.
	AgentRole string `json:"agent,omitempty"`

	// Tool name and arguments for agent actions.
	Tool      string `json:"tool,omitempty"`
	ToolInput string `json:"tool_input,omitempty"`

	// Task description for task events, tool output for agent actions,
	// final result for completed kickoffs.
	Output string `json:"output,omitempty"`

	Error string `json:"error,omitempty"`
}

// Hooks receives the events of a kickoff.
//
// Events of a single task may be delivered from several goroutines at once,
// so implementations must be safe for concurrent use.
type Hooks interface {
	OnEvent(context.Context, Event)
}

// HooksFunc adapts a plain function to the Hooks interface.
type HooksFunc func(context.Context, Event)

func (f HooksFunc) OnEvent(ctx context.Context, e Event) { f(ctx, e) }

// NoOpHooks ignores every event.
type NoOpHooks struct{}

func (NoOpHooks) OnEvent(context.Context, Event) {}

// MultiHooks forwards each event to all the given hooks, in order.
type MultiHooks []Hooks

func (m MultiHooks) OnEvent(ctx context.Context, e Event) {
	for _, h := range m {
		if h != nil {
			h.OnEvent(ctx, e)
		}
	}
}
