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

package crew_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/crewtesting"
	"github.com/nlpodyssey/trading-crew-go/modelsettings"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toolCallCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": null,
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "search_the_internet", "arguments": "{\"search_query\":\"MSFT\"}"}
      }]
    }
  }],
  "usage": {
    "prompt_tokens": 11,
    "completion_tokens": 7,
    "total_tokens": 18,
    "prompt_tokens_details": {"cached_tokens": 2},
    "completion_tokens_details": {"reasoning_tokens": 1}
  }
}`

func TestOpenAIChatModelGetResponse(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(toolCallCompletion))
	}))
	t.Cleanup(server.Close)

	client := crew.NewOpenAIClient("test-key", server.URL+"/", option.WithMaxRetries(0))
	model := crew.NewOpenAIChatModel("gpt-3.5-turbo", client)

	resp, err := model.GetResponse(t.Context(), crew.ModelRequest{
		SystemInstructions: "You are a tester.",
		Messages: []crew.Message{
			crew.UserMessage("hello"),
			crew.AssistantMessage("", crew.ToolCall{ID: "call_0", Name: "noop", Arguments: "{}"}),
			crew.ToolMessage("call_0", "nothing"),
		},
		Tools: []crew.Tool{crewtesting.GetFunctionTool("noop", "")},
		ModelSettings: modelsettings.ModelSettings{
			Temperature:  param.NewOpt(0.7),
			ToolChoice:   modelsettings.ToolChoiceAuto,
			ExtraHeaders: map[string]string{"X-Extra": "yes"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, crew.AssistantMessage("", crew.ToolCall{
		ID:        "call_1",
		Name:      "search_the_internet",
		Arguments: `{"search_query":"MSFT"}`,
	}), resp.Message)

	assert.Equal(t, uint64(1), resp.Usage.Requests)
	assert.Equal(t, uint64(11), resp.Usage.InputTokens)
	assert.Equal(t, uint64(2), resp.Usage.CachedTokens)
	assert.Equal(t, uint64(7), resp.Usage.OutputTokens)
	assert.Equal(t, uint64(1), resp.Usage.ReasoningTokens)
	assert.Equal(t, uint64(18), resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-3.5-turbo", body["model"])
	assert.Equal(t, 0.7, body["temperature"])
	assert.Equal(t, "auto", body["tool_choice"])

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 4)
	roles := make([]string, len(messages))
	for i, m := range messages {
		roles[i] = m.(map[string]any)["role"].(string)
	}
	assert.Equal(t, []string{"system", "user", "assistant", "tool"}, roles)
	assert.Equal(t, "call_0", messages[3].(map[string]any)["tool_call_id"])

	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "noop", fn["name"])
}

func TestOpenAIChatModelOmitsToolChoiceWithoutTools(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"m",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Hi there"}}]}`))
	}))
	t.Cleanup(server.Close)

	model := crew.NewOpenAIChatModel("m", crew.NewOpenAIClient("k", server.URL+"/", option.WithMaxRetries(0)))
	resp, err := model.GetResponse(t.Context(), crew.ModelRequest{
		Messages:      []crew.Message{crew.UserMessage("hi")},
		ModelSettings: modelsettings.ModelSettings{ToolChoice: modelsettings.ToolChoiceRequired},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", resp.Message.Content)
	assert.Equal(t, uint64(1), resp.Usage.Requests)
	assert.Zero(t, resp.Usage.TotalTokens)

	assert.NotContains(t, body, "tool_choice")
	assert.NotContains(t, body, "tools")
	assert.Len(t, body["messages"], 1)
}

func TestConvertToolChoice(t *testing.T) {
	conv := crew.ChatCmplConverter()

	assert.Zero(t, conv.ConvertToolChoice(""))

	auto := conv.ConvertToolChoice(modelsettings.ToolChoiceNone)
	assert.Equal(t, "none", auto.OfAuto.Value)

	named := conv.ConvertToolChoice("search_the_internet")
	require.NotNil(t, named.OfFunctionToolChoice)
	assert.Equal(t, "search_the_internet", named.OfFunctionToolChoice.Function.Name)
}
