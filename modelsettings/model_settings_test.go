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
	"encoding/json"
	"testing"

	"github.com/openai/openai-go/v3/packages/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelSettings_BasicSerialization(t *testing.T) {
	modelSettings := ModelSettings{
		Temperature: param.NewOpt(0.5),
		TopP:        param.NewOpt(0.9),
		MaxTokens:   param.NewOpt[int64](100),
	}
	res, err := json.Marshal(modelSettings)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(res, &m))
	assert.Equal(t, 0.5, m["temperature"])
	assert.Equal(t, 0.9, m["top_p"])
	assert.Equal(t, float64(100), m["max_tokens"])
}

func TestModelSettings_Resolve(t *testing.T) {
	base := ModelSettings{
		Temperature:  param.NewOpt(0.7),
		TopP:         param.NewOpt(1.0),
		ToolChoice:   ToolChoiceAuto,
		ExtraHeaders: map[string]string{"a": "1"},
	}
	override := ModelSettings{
		Temperature:       param.NewOpt(0.2),
		ParallelToolCalls: param.NewOpt(false),
		ExtraHeaders:      map[string]string{"b": "2"},
	}

	resolved := base.Resolve(override)
	assert.Equal(t, param.NewOpt(0.2), resolved.Temperature)
	assert.Equal(t, param.NewOpt(1.0), resolved.TopP)
	assert.Equal(t, ToolChoiceAuto, resolved.ToolChoice)
	assert.Equal(t, param.NewOpt(false), resolved.ParallelToolCalls)
	assert.Equal(t, map[string]string{"b": "2"}, resolved.ExtraHeaders)

	override.ExtraHeaders["b"] = "changed"
	assert.Equal(t, "2", resolved.ExtraHeaders["b"], "maps must be cloned")

	assert.Equal(t, param.NewOpt(0.7), base.Temperature, "base must not change")
}

func TestToolChoice_IsMode(t *testing.T) {
	assert.True(t, ToolChoiceAuto.IsMode())
	assert.True(t, ToolChoiceRequired.IsMode())
	assert.True(t, ToolChoiceNone.IsMode())
	assert.False(t, ToolChoice("search_the_internet").IsMode())
}
