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

package crewtesting

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/nlpodyssey/trading-crew-go/crew"
)

var toolCallCounter atomic.Uint64

func GetTextMessage(content string) FakeModelTurnOutput {
	return FakeModelTurnOutput{Value: crew.AssistantMessage(content)}
}

func GetFunctionToolCall(name string, arguments string) crew.ToolCall {
	return crew.ToolCall{
		ID:        "call_" + strconv.FormatUint(toolCallCounter.Add(1), 10),
		Name:      name,
		Arguments: arguments,
	}
}

func GetToolCallsMessage(calls ...crew.ToolCall) FakeModelTurnOutput {
	return FakeModelTurnOutput{Value: crew.AssistantMessage("", calls...)}
}

func emptyParamsSchema(name string) map[string]any {
	return map[string]any{
		"title":                name + "_args",
		"type":                 "object",
		"required":             []string{},
		"additionalProperties": false,
		"properties":           map[string]any{},
	}
}

func GetFunctionTool(name string, returnValue string) crew.FunctionTool {
	return crew.FunctionTool{
		Name:         name,
		ParamsSchema: emptyParamsSchema(name),
		OnInvokeTool: func(context.Context, string) (string, error) {
			return returnValue, nil
		},
	}
}

func GetFunctionToolErr(name string, returnErr error) crew.FunctionTool {
	return crew.FunctionTool{
		Name:         name,
		ParamsSchema: emptyParamsSchema(name),
		OnInvokeTool: func(context.Context, string) (string, error) {
			return "", returnErr
		},
	}
}

// EventRecorder collects kickoff events.
type EventRecorder struct {
	mu     sync.Mutex
	events []crew.Event
}

func (r *EventRecorder) OnEvent(_ context.Context, e crew.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *EventRecorder) Events() []crew.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]crew.Event(nil), r.events...)
}

func (r *EventRecorder) Types() []crew.EventType {
	events := r.Events()
	types := make([]crew.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}
