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
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// A Tool that can be used by an agent.
type Tool interface {
	// ToolName is the name of the tool, as shown to the model.
	ToolName() string

	// ToolDescription is the description of the tool, as shown to the model.
	ToolDescription() string

	// ParamsJSONSchema is the JSON schema of the tool's arguments.
	ParamsJSONSchema() map[string]any

	// Invoke runs the tool with the arguments from the model, as a JSON string.
	// A returned error is reported back to the model as the tool output.
	Invoke(ctx context.Context, arguments string) (string, error)
}

// FunctionTool is a Tool backed by a Go function.
type FunctionTool struct {
	// The name of the tool, as shown to the model. Generally the name of the function.
	Name string

	// A description of the tool, as shown to the model.
	Description string

	// The JSON schema for the tool's parameters.
	ParamsSchema map[string]any

	// A function that invokes the tool with the arguments from the model,
	// as a JSON string.
	OnInvokeTool func(ctx context.Context, arguments string) (string, error)

	schema *gojsonschema.Schema
}

func (t FunctionTool) ToolName() string                 { return t.Name }
func (t FunctionTool) ToolDescription() string          { return t.Description }
func (t FunctionTool) ParamsJSONSchema() map[string]any { return t.ParamsSchema }

func (t FunctionTool) Invoke(ctx context.Context, arguments string) (string, error) {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	if t.schema != nil {
		if err := ValidateJSON(t.schema, arguments); err != nil {
			return "", fmt.Errorf("invalid arguments for tool %s: %w", t.Name, err)
		}
	}
	if t.OnInvokeTool == nil {
		return "", UserErrorf("tool %s has no implementation", t.Name)
	}
	return t.OnInvokeTool(ctx, arguments)
}

// NewFunctionTool creates a FunctionTool whose arguments are decoded into T.
//
// The parameters schema is reflected from T, and the model's arguments are
// validated against it before the handler is called. String results are
// returned as they are; any other result is JSON-encoded.
func NewFunctionTool[T, R any](name, description string, handler func(context.Context, T) (R, error)) FunctionTool {
	schemaMap, err := reflectParamsSchema[T]()
	if err != nil {
		panic(fmt.Errorf("failed to build JSON schema for tool %s: %w", name, err))
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		panic(fmt.Errorf("failed to compile JSON schema for tool %s: %w", name, err))
	}

	return FunctionTool{
		Name:         name,
		Description:  description,
		ParamsSchema: schemaMap,
		schema:       schema,
		OnInvokeTool: func(ctx context.Context, arguments string) (string, error) {
			var args T
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("failed to parse arguments: %w", err)
			}
			result, err := handler(ctx, args)
			if err != nil {
				return "", err
			}
			if s, ok := any(result).(string); ok {
				return s, nil
			}
			b, err := json.Marshal(result)
			if err != nil {
				return "", fmt.Errorf("failed to encode tool result: %w", err)
			}
			return string(b), nil
		},
	}
}

func reflectParamsSchema[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var zero T
	b, err := json.Marshal(reflector.Reflect(zero))
	if err != nil {
		return nil, err
	}
	var schemaMap map[string]any
	if err = json.Unmarshal(b, &schemaMap); err != nil {
		return nil, err
	}
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")
	return schemaMap, nil
}

// ValidateJSON checks that jsonValue conforms to the schema.
func ValidateJSON(schema *gojsonschema.Schema, jsonValue string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonValue))
	if err != nil {
		return fmt.Errorf("failed to load and validate JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("JSON validation failed with the following errors:")
	for _, e := range result.Errors() {
		_, _ = fmt.Fprintf(&sb, "\n- %s", e)
	}
	return NewModelBehaviorError(sb.String())
}

func toolNames(tools []Tool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.ToolName()
	}
	return names
}

func findTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.ToolName() == name {
			return t, true
		}
	}
	return nil, false
}
