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

	"github.com/nlpodyssey/trading-crew-go/modelsettings"
	"github.com/nlpodyssey/trading-crew-go/usage"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation an agent holds with its model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// Tool calls requested by the model. Only set on assistant messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// The call being answered. Only set on tool messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

func ToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

type ModelRequest struct {
	// The system instructions to use.
	SystemInstructions string

	// The conversation so far, excluding system instructions.
	Messages []Message

	// The tools available to the model.
	Tools []Tool

	// The model settings to use.
	ModelSettings modelsettings.ModelSettings
}

type ModelResponse struct {
	// The assistant message. A message without tool calls is a final answer.
	Message Message

	// The usage information for the response.
	Usage *usage.Usage
}

// Model is the interface for a chat model.
type Model interface {
	// GetResponse returns the model's next message for the given request.
	GetResponse(context.Context, ModelRequest) (*ModelResponse, error)
}

// ModelFunc adapts a plain function to the Model interface.
type ModelFunc func(context.Context, ModelRequest) (*ModelResponse, error)

func (f ModelFunc) GetResponse(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	return f(ctx, req)
}
