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

// Package asynctask runs a function in its own goroutine and lets callers
// cancel it or wait for its result.
package asynctask

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrCanceled is joined to the result error of a task stopped by Cancel.
var ErrCanceled = errors.New("task has been canceled")

type Task[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	canceled bool
	result   Result[T]
}

type Result[T any] struct {
	Value T
	Error error
}

type Func[T any] = func(context.Context) (T, error)

// Start runs fn with a context derived from ctx. A panic in fn is turned
// into the result error.
func Start[T any](ctx context.Context, fn Func[T]) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		var value T
		var err error

		defer func() {
			if r := recover(); r != nil {
				err = errors.Join(err, fmt.Errorf("task panicked: %v", r))
			}

			t.mu.Lock()
			if t.canceled {
				err = errors.Join(err, ErrCanceled)
			}
			t.result = Result[T]{Value: value, Error: err}
			t.mu.Unlock()

			cancel()
			close(t.done)
		}()

		value, err = fn(ctx)
	}()

	return t
}

// Done is closed when the task function has returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

func (t *Task[T]) Await() Result[T] {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

func (t *Task[T]) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Task[T]) IsCanceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// Cancel cancels the task context. It reports false if the task had already
// finished or been canceled.
func (t *Task[T]) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled || t.IsDone() {
		return false
	}
	t.canceled = true
	t.cancel()
	return true
}
