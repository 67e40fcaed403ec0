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
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"

	"github.com/nlpodyssey/trading-crew-go/modelsettings"
	"github.com/nlpodyssey/trading-crew-go/usage"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared/constant"
)

// OpenAIChatModel is a Model backed by the OpenAI Chat Completions API.
type OpenAIChatModel struct {
	Model  openai.ChatModel
	client openai.Client
}

func NewOpenAIChatModel(model openai.ChatModel, client openai.Client) OpenAIChatModel {
	return OpenAIChatModel{
		Model:  model,
		client: client,
	}
}

// NewOpenAIClient creates a client for the given API key. An empty baseURL
// keeps the library default.
func NewOpenAIClient(apiKey, baseURL string, opts ...option.RequestOption) openai.Client {
	all := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		all = append(all, option.WithBaseURL(baseURL))
	}
	return openai.NewClient(append(all, opts...)...)
}

func (m OpenAIChatModel) GetResponse(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	params, opts, err := m.prepareRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if DontLogModelData {
		Logger().Debug("Calling LLM", slog.String("model", m.Model))
	} else {
		Logger().Debug(
			"Calling LLM",
			slog.String("model", m.Model),
			slog.String("messages", simplePrettyJSONMarshal(params.Messages)),
			slog.String("tools", simplePrettyJSONMarshal(params.Tools)),
		)
	}

	response, err := m.client.Chat.Completions.New(ctx, *params, opts...)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, NewModelBehaviorError("LLM returned no choices")
	}

	message := response.Choices[0].Message
	if DontLogModelData {
		Logger().Debug("LLM responded")
	} else {
		Logger().Debug("LLM responded", slog.String("message", simplePrettyJSONMarshal(message)))
	}

	u := usage.NewUsage()
	u.Requests = 1
	if !reflect.ValueOf(response.Usage).IsZero() {
		*u = usage.Usage{
			Requests:        1,
			InputTokens:     uint64(response.Usage.PromptTokens),
			CachedTokens:    uint64(response.Usage.PromptTokensDetails.CachedTokens),
			OutputTokens:    uint64(response.Usage.CompletionTokens),
			ReasoningTokens: uint64(response.Usage.CompletionTokensDetails.ReasoningTokens),
			TotalTokens:     uint64(response.Usage.TotalTokens),
		}
	}

	return &ModelResponse{
		Message: ChatCmplConverter().MessageFromResponse(message),
		Usage:   u,
	}, nil
}

func (m OpenAIChatModel) prepareRequest(
	ctx context.Context,
	req ModelRequest,
) (*openai.ChatCompletionNewParams, []option.RequestOption, error) {
	ms := req.ModelSettings

	messages := ChatCmplConverter().MessagesToParams(req.SystemInstructions, req.Messages)

	var tools []openai.ChatCompletionToolUnionParam
	for _, t := range req.Tools {
		tools = append(tools, ChatCmplConverter().ToolToParam(t))
	}

	params := &openai.ChatCompletionNewParams{
		Model:            m.Model,
		Messages:         messages,
		Tools:            tools,
		Temperature:      ms.Temperature,
		TopP:             ms.TopP,
		FrequencyPenalty: ms.FrequencyPenalty,
		PresencePenalty:  ms.PresencePenalty,
		MaxTokens:        ms.MaxTokens,
		Seed:             ms.Seed,
		Metadata:         ms.Metadata,
	}
	if len(tools) > 0 {
		params.ToolChoice = ChatCmplConverter().ConvertToolChoice(ms.ToolChoice)
		params.ParallelToolCalls = ms.ParallelToolCalls
	}

	var opts []option.RequestOption
	for k, v := range ms.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}

	if ms.CustomizeChatCompletionsRequest != nil {
		return ms.CustomizeChatCompletionsRequest(ctx, params, opts)
	}
	return params, opts, nil
}

type chatCmplConverter struct{}

func ChatCmplConverter() chatCmplConverter { return chatCmplConverter{} }

// MessagesToParams converts the conversation to Chat Completions messages,
// prepending the system instructions when present.
func (chatCmplConverter) MessagesToParams(systemInstructions string, messages []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemInstructions != "" {
		result = append(result, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: param.NewOpt(systemInstructions),
				},
				Role: constant.ValueOf[constant.System](),
			},
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: param.NewOpt(msg.Content),
					},
					Role: constant.ValueOf[constant.System](),
				},
			})
		case RoleUser:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: param.NewOpt(msg.Content),
					},
					Role: constant.ValueOf[constant.User](),
				},
			})
		case RoleAssistant:
			asst := &openai.ChatCompletionAssistantMessageParam{
				Role: constant.ValueOf[constant.Assistant](),
			}
			if msg.Content != "" {
				asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(msg.Content),
				}
			}
			for _, tc := range msg.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
						Type: constant.ValueOf[constant.Function](),
					},
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: asst})
		case RoleTool:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: param.NewOpt(msg.Content),
					},
					ToolCallID: msg.ToolCallID,
					Role:       constant.ValueOf[constant.Tool](),
				},
			})
		}
	}
	return result
}

func (chatCmplConverter) ToolToParam(t Tool) openai.ChatCompletionToolUnionParam {
	def := openai.FunctionDefinitionParam{
		Name:       t.ToolName(),
		Parameters: openai.FunctionParameters(t.ParamsJSONSchema()),
	}
	if d := t.ToolDescription(); d != "" {
		def.Description = param.NewOpt(d)
	}
	return openai.ChatCompletionFunctionTool(def)
}

func (chatCmplConverter) ConvertToolChoice(tc modelsettings.ToolChoice) openai.ChatCompletionToolChoiceOptionUnionParam {
	switch {
	case tc == "":
		return openai.ChatCompletionToolChoiceOptionUnionParam{}
	case tc.IsMode():
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: param.NewOpt(string(tc)),
		}
	default:
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: string(tc),
				},
				Type: constant.ValueOf[constant.Function](),
			},
		}
	}
}

// MessageFromResponse decodes the assistant message of a completion.
// Only function tool calls are kept.
func (chatCmplConverter) MessageFromResponse(message openai.ChatCompletionMessage) Message {
	out := Message{
		Role:    RoleAssistant,
		Content: message.Content,
	}
	for _, tc := range message.ToolCalls {
		if tc.Function.Name == "" {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

func simplePrettyJSONMarshal(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Join(errors.New("failed to marshal value for logging"), err).Error()
	}
	return string(b)
}
