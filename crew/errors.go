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
	"fmt"
	"strings"
)

// MaxIterationsExceededError is returned when an agent keeps calling tools
// past its iteration limit without producing a final answer.
type MaxIterationsExceededError struct {
	AgentRole     string
	MaxIterations int
}

func (err MaxIterationsExceededError) Error() string {
	return fmt.Sprintf("agent %q exceeded max iterations (%d) without a final answer", err.AgentRole, err.MaxIterations)
}

// ModelError is returned when a model request fails. It aborts the whole
// kickoff even when raised by a coworker working on a delegated task.
type ModelError struct {
	AgentRole string
	Err       error
}

func (err *ModelError) Error() string {
	return fmt.Sprintf("model request failed: %v", err.Err)
}

func (err *ModelError) Unwrap() error { return err.Err }

// ModelBehaviorError is returned when the model does something unexpected,
// e.g. returning an empty answer.
type ModelBehaviorError struct {
	Message string
}

func (err ModelBehaviorError) Error() string { return err.Message }

func NewModelBehaviorError(message string) ModelBehaviorError {
	return ModelBehaviorError{Message: message}
}

func ModelBehaviorErrorf(format string, a ...any) ModelBehaviorError {
	return ModelBehaviorError{Message: fmt.Sprintf(format, a...)}
}

// UserError is returned when a crew is misconfigured.
type UserError struct {
	Message string
}

func (err UserError) Error() string { return err.Message }

func NewUserError(message string) UserError {
	return UserError{Message: message}
}

func UserErrorf(format string, a ...any) UserError {
	return UserError{Message: fmt.Sprintf(format, a...)}
}

// MissingInputError is returned when a template references a placeholder
// that has no corresponding input.
type MissingInputError struct {
	Keys []string
}

func (err MissingInputError) Error() string {
	return fmt.Sprintf("missing template input(s): %s", strings.Join(err.Keys, ", "))
}

// TaskError wraps an error raised while executing a task.
type TaskError struct {
	TaskIndex int
	AgentRole string
	Err       error
}

func (err *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s) failed: %v", err.TaskIndex+1, err.AgentRole, err.Err)
}

func (err *TaskError) Unwrap() error { return err.Err }
