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

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownInOrder(t *testing.T) {
	var order []string
	stuck := func(ctx context.Context) error {
		order = append(order, "http")
		<-ctx.Done()
		return ctx.Err()
	}
	var managerCtxErr error
	manager := func(ctx context.Context) error {
		order = append(order, "manager")
		managerCtxErr = ctx.Err()
		return nil
	}

	err := shutdownInOrder(20*time.Millisecond, stuck, manager)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"http", "manager"}, order)
	assert.NoError(t, managerCtxErr, "a step must not inherit the expired deadline of the previous one")
}

func TestShutdownInOrder_JoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	err := shutdownInOrder(time.Second,
		func(context.Context) error { return first },
		func(context.Context) error { return nil },
		func(context.Context) error { return second },
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)

	assert.NoError(t, shutdownInOrder(time.Second, func(context.Context) error { return nil }))
}
