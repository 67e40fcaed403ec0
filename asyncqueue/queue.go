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

// Package asyncqueue provides an unbounded FIFO queue shared by goroutines.
package asyncqueue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Put after Close, and by Get once a closed queue
// has been drained.
var ErrClosed = errors.New("queue closed")

type Queue[T any] struct {
	cond   *sync.Cond
	values []T
	closed bool
}

func New[T any]() *Queue[T] {
	return &Queue[T]{
		cond: sync.NewCond(&sync.Mutex{}),
	}
}

func (q *Queue[T]) Put(v T) error {
	q.cond.L.Lock()
	defer q.cond.L.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.values = append(q.values, v)
	q.cond.Broadcast()
	return nil
}

// Get blocks until a value is available, the context is done, or the queue
// is closed and empty.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, func() {
		q.cond.L.Lock()
		q.cond.L.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.cond.L.Lock()
	defer q.cond.L.Unlock()
	for len(q.values) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}

	var zero T
	switch {
	case len(q.values) > 0:
		return q.get(), nil
	case q.closed:
		return zero, ErrClosed
	default:
		return zero, ctx.Err()
	}
}

func (q *Queue[T]) GetNoWait() (T, bool) {
	q.cond.L.Lock()
	defer q.cond.L.Unlock()

	var zero T
	if len(q.values) == 0 {
		return zero, false
	}
	return q.get(), true
}

func (q *Queue[T]) Len() int {
	q.cond.L.Lock()
	defer q.cond.L.Unlock()
	return len(q.values)
}

// Close rejects further values. Values already queued can still be read.
func (q *Queue[T]) Close() {
	q.cond.L.Lock()
	defer q.cond.L.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

func (q *Queue[T]) get() T {
	v := q.values[0]
	copy(q.values[:len(q.values)-1], q.values[1:])
	clear(q.values[len(q.values)-1:]) // helps GC
	q.values = q.values[:len(q.values)-1]
	return v
}
