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
	"context"
	"errors"
	"testing"

	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteArgs struct {
	Symbol string `json:"symbol" jsonschema_description:"The ticker symbol."`
	Limit  int    `json:"limit,omitempty"`
}

type quoteResult struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestNewFunctionToolSchema(t *testing.T) {
	tool := crew.NewFunctionTool("get_quote", "Get a quote.", func(_ context.Context, args quoteArgs) (quoteResult, error) {
		return quoteResult{Symbol: args.Symbol, Price: 12.5}, nil
	})

	assert.Equal(t, "get_quote", tool.ToolName())
	assert.Equal(t, "Get a quote.", tool.ToolDescription())

	schema := tool.ParamsJSONSchema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []any{"symbol"}, schema["required"])
	assert.NotContains(t, schema, "$schema")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "symbol")
	assert.Contains(t, props, "limit")
	symbol := props["symbol"].(map[string]any)
	assert.Equal(t, "The ticker symbol.", symbol["description"])
}

func TestFunctionToolInvoke(t *testing.T) {
	tool := crew.NewFunctionTool("get_quote", "", func(_ context.Context, args quoteArgs) (quoteResult, error) {
		return quoteResult{Symbol: args.Symbol, Price: 12.5}, nil
	})

	t.Run("struct result is JSON encoded", func(t *testing.T) {
		out, err := tool.Invoke(t.Context(), `{"symbol":"MSFT"}`)
		require.NoError(t, err)
		assert.JSONEq(t, `{"symbol":"MSFT","price":12.5}`, out)
	})

	t.Run("missing required argument", func(t *testing.T) {
		_, err := tool.Invoke(t.Context(), `{"limit":3}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "symbol is required")
		assert.ErrorAs(t, err, &crew.ModelBehaviorError{})
	})

	t.Run("unexpected argument", func(t *testing.T) {
		_, err := tool.Invoke(t.Context(), `{"symbol":"MSFT","extra":true}`)
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := tool.Invoke(t.Context(), `{"symbol":`)
		assert.Error(t, err)
	})
}

func TestFunctionToolStringResultAndError(t *testing.T) {
	echo := crew.NewFunctionTool("echo", "", func(_ context.Context, args quoteArgs) (string, error) {
		return "quote for " + args.Symbol, nil
	})
	out, err := echo.Invoke(t.Context(), `{"symbol":"AAPL"}`)
	require.NoError(t, err)
	assert.Equal(t, "quote for AAPL", out)

	boom := errors.New("boom")
	failing := crew.NewFunctionTool("fail", "", func(context.Context, quoteArgs) (string, error) {
		return "", boom
	})
	_, err = failing.Invoke(t.Context(), `{"symbol":"AAPL"}`)
	assert.ErrorIs(t, err, boom)
}

func TestFunctionToolWithoutImplementation(t *testing.T) {
	_, err := crew.FunctionTool{Name: "noop"}.Invoke(t.Context(), "")
	assert.ErrorAs(t, err, &crew.UserError{})
}
