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

package modelsettings

import (
	"context"
	"maps"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

// ModelSettings holds settings to use when calling an LLM.
//
// Every field is optional. Not all models support all parameters, so please
// check the API documentation for the specific model you are using.
type ModelSettings struct {
	// The temperature to use when calling the model.
	Temperature param.Opt[float64] `json:"temperature"`

	// The top_p to use when calling the model.
	TopP param.Opt[float64] `json:"top_p"`

	// The frequency penalty to use when calling the model.
	FrequencyPenalty param.Opt[float64] `json:"frequency_penalty"`

	// The presence penalty to use when calling the model.
	PresencePenalty param.Opt[float64] `json:"presence_penalty"`

	// Optional tool choice: "auto", "required", "none" or the name of a tool.
	ToolChoice ToolChoice `json:"tool_choice"`

	// Controls whether the model can make multiple parallel tool calls in a single turn.
	// Only sent when tools are available.
	ParallelToolCalls param.Opt[bool] `json:"parallel_tool_calls"`

	// The maximum number of output tokens to generate.
	MaxTokens param.Opt[int64] `json:"max_tokens"`

	// Optional seed for best-effort deterministic sampling.
	Seed param.Opt[int64] `json:"seed"`

	// Optional metadata to include with the model request.
	Metadata map[string]string `json:"metadata"`

	// Optional additional headers to provide with the request.
	ExtraHeaders map[string]string `json:"extra_headers"`

	// Optional function which allows you to fully customize parameters and options
	// for a call to the chat-completion API. Pre-built parameters and options are given.
	CustomizeChatCompletionsRequest func(context.Context, *openai.ChatCompletionNewParams, []option.RequestOption) (*openai.ChatCompletionNewParams, []option.RequestOption, error) `json:"-"`
}

type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

// IsMode reports whether the tool choice is one of the generic modes, as
// opposed to the name of a specific tool.
func (tc ToolChoice) IsMode() bool {
	switch tc {
	case ToolChoiceAuto, ToolChoiceRequired, ToolChoiceNone:
		return true
	default:
		return false
	}
}

// Resolve produces a new ModelSettings by overlaying any present values from
// the override on top of this instance.
func (ms ModelSettings) Resolve(override ModelSettings) ModelSettings {
	newSettings := ms
	resolveOpt(&newSettings.Temperature, override.Temperature)
	resolveOpt(&newSettings.TopP, override.TopP)
	resolveOpt(&newSettings.FrequencyPenalty, override.FrequencyPenalty)
	resolveOpt(&newSettings.PresencePenalty, override.PresencePenalty)
	if override.ToolChoice != "" {
		newSettings.ToolChoice = override.ToolChoice
	}
	resolveOpt(&newSettings.ParallelToolCalls, override.ParallelToolCalls)
	resolveOpt(&newSettings.MaxTokens, override.MaxTokens)
	resolveOpt(&newSettings.Seed, override.Seed)
	resolveMap(&newSettings.Metadata, override.Metadata)
	resolveMap(&newSettings.ExtraHeaders, override.ExtraHeaders)
	if override.CustomizeChatCompletionsRequest != nil {
		newSettings.CustomizeChatCompletionsRequest = override.CustomizeChatCompletionsRequest
	}
	return newSettings
}

func resolveOpt[T comparable](base *param.Opt[T], override param.Opt[T]) {
	if override.Valid() {
		*base = override
	}
}

func resolveMap[M ~map[K]V, K comparable, V any](base *M, override M) {
	if len(override) > 0 {
		*base = maps.Clone(override)
	}
}
