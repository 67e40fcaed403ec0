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

package optional

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_Get(t *testing.T) {
	v, ok := Value("x").Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	v, ok = None[string]().Get()
	assert.False(t, ok)
	assert.Equal(t, "", v)
}

func TestOptional_ValueOrFallback(t *testing.T) {
	assert.Equal(t, 1, Value(1).ValueOrFallback(2))
	assert.Equal(t, 2, None[int]().ValueOrFallback(2))
	assert.Equal(t, 3, None[int]().ValueOrFallbackFunc(func() int { return 3 }))
}

func TestOptional_JSON(t *testing.T) {
	type wrapper struct {
		A Optional[string] `json:"a"`
		B Optional[string] `json:"b"`
	}
	b, err := json.Marshal(wrapper{A: Value("foo")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"foo","b":null}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":"bar"}`), &w))
	assert.Equal(t, None[string](), w.A)
	assert.Equal(t, Value("bar"), w.B)
}

func TestOptional_UnmarshalText(t *testing.T) {
	var s Optional[string]
	require.NoError(t, s.UnmarshalText([]byte("secret")))
	assert.Equal(t, Value("secret"), s)

	var empty Optional[string]
	require.NoError(t, empty.UnmarshalText(nil))
	assert.True(t, empty.IsPresent(), "an empty value is still present")

	var n Optional[int]
	assert.Error(t, n.UnmarshalText([]byte("1")))
	assert.False(t, n.IsPresent())
}

func TestFromLookup(t *testing.T) {
	assert.Equal(t, Value("v"), FromLookup("v", true))
	assert.Equal(t, None[string](), FromLookup("ignored", false))
}
