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

package web

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nlpodyssey/trading-crew-go/asyncqueue"
	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/history"
	"github.com/nlpodyssey/trading-crew-go/trading"
	"github.com/nlpodyssey/trading-crew-go/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner emits the configured events, optionally waits for release,
// then returns the configured result.
type fakeRunner struct {
	mu      sync.Mutex
	inputs  []trading.Inputs
	events  []crew.Event
	release chan struct{}
	out     *crew.CrewOutput
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, in trading.Inputs, hooks crew.Hooks) (*crew.CrewOutput, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()

	for _, e := range f.events {
		hooks.OnEvent(ctx, e)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.out, f.err
}

func successOutput(raw string) *crew.CrewOutput {
	u := usage.NewUsage()
	u.Requests = 3
	u.TotalTokens = 42
	return &crew.CrewOutput{
		Raw:         raw,
		TasksOutput: []crew.TaskOutput{{Description: "Assess risk", Raw: raw, AgentRole: trading.RiskAdvisorRole}},
		TokenUsage:  u,
	}
}

func newTestManager(t *testing.T, runner trading.Runner) (*RunManager, history.Store) {
	t.Helper()
	store, err := history.NewSQLiteStore(t.Context(), history.SQLiteStoreParams{
		DBDataSourceName: filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	m := NewRunManager(runner, store)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, m.Shutdown(ctx))
	})
	return m, store
}

func latestRun(t *testing.T, store history.Store) *history.Run {
	t.Helper()
	runs, err := store.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	return runs[0]
}

func waitDone(t *testing.T, m *RunManager, run *history.Run) *history.Run {
	t.Helper()
	var got *history.Run
	require.Eventually(t, func() bool {
		r, err := m.Get(context.Background(), run.ID)
		if err != nil {
			return false
		}
		got = r
		return r.Done()
	}, 5*time.Second, 10*time.Millisecond)
	return got
}

func TestRunManager_Run(t *testing.T) {
	t.Run("success is recorded", func(t *testing.T) {
		runner := &fakeRunner{out: successOutput("Final plan")}
		m, store := newTestManager(t, runner)

		out, err := m.Run(t.Context(), trading.DefaultInputs(), nil)
		require.NoError(t, err)
		assert.Equal(t, "Final plan", out.Raw)

		run := latestRun(t, store)
		assert.Equal(t, history.StatusSucceeded, run.Status)
		assert.Equal(t, "Final plan", run.Result)
		require.NotNil(t, run.Usage)
		assert.Equal(t, uint64(42), run.Usage.TotalTokens)
	})

	t.Run("failure is recorded", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("boom")}
		m, store := newTestManager(t, runner)

		_, err := m.Run(t.Context(), trading.DefaultInputs(), nil)
		assert.EqualError(t, err, "boom")

		run := latestRun(t, store)
		assert.Equal(t, history.StatusFailed, run.Status)
		assert.Equal(t, "boom", run.Error)
	})

	t.Run("missing output is a failure", func(t *testing.T) {
		m, store := newTestManager(t, &fakeRunner{})

		var out *crew.CrewOutput
		var err error
		require.NotPanics(t, func() {
			out, err = m.Run(t.Context(), trading.DefaultInputs(), nil)
		})
		assert.ErrorIs(t, err, ErrNoOutput)
		assert.Nil(t, out)

		run := latestRun(t, store)
		assert.Equal(t, history.StatusFailed, run.Status)
		assert.Equal(t, "crew returned no output", run.Error)
	})

	t.Run("invalid inputs are rejected", func(t *testing.T) {
		runner := &fakeRunner{}
		m, store := newTestManager(t, runner)

		in := trading.DefaultInputs()
		in.StockSelection = " "
		_, err := m.Run(t.Context(), in, nil)
		assert.ErrorContains(t, err, "invalid inputs: stock selection is required")

		runs, err := store.ListRuns(t.Context(), 0)
		require.NoError(t, err)
		assert.Empty(t, runs)
		assert.Empty(t, runner.inputs)
	})

	t.Run("hooks receive events", func(t *testing.T) {
		runner := &fakeRunner{
			events: []crew.Event{{Type: crew.EventKickoffStarted, TaskIndex: -1}},
			out:    successOutput("ok"),
		}
		m, _ := newTestManager(t, runner)

		var got []crew.EventType
		hooks := crew.HooksFunc(func(_ context.Context, e crew.Event) { got = append(got, e.Type) })
		_, err := m.Run(t.Context(), trading.DefaultInputs(), hooks)
		require.NoError(t, err)
		assert.Equal(t, []crew.EventType{crew.EventKickoffStarted}, got)
	})
}

func TestRunManager_Start(t *testing.T) {
	runner := &fakeRunner{out: successOutput("Background plan")}
	m, _ := newTestManager(t, runner)

	in := trading.DefaultInputs()
	in.StockSelection = "AAPL"
	run, err := m.Start(t.Context(), in)
	require.NoError(t, err)
	assert.Equal(t, history.StatusRunning, run.Status)

	got := waitDone(t, m, run)
	assert.Equal(t, history.StatusSucceeded, got.Status)
	assert.Equal(t, "Background plan", got.Result)
	assert.Equal(t, "AAPL", got.Inputs.StockSelection)
}

func TestRunManager_StartWithoutOutput(t *testing.T) {
	m, _ := newTestManager(t, &fakeRunner{})

	run, err := m.Start(t.Context(), trading.DefaultInputs())
	require.NoError(t, err)

	got := waitDone(t, m, run)
	assert.Equal(t, history.StatusFailed, got.Status)
	assert.Equal(t, ErrNoOutput.Error(), got.Error)
}

func TestRunManager_ShutdownWhileStarting(t *testing.T) {
	m, _ := newTestManager(t, &fakeRunner{out: successOutput("ok")})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Start(context.Background(), trading.DefaultInputs())
		}()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, m.Shutdown(ctx))
	wg.Wait()

	_, err := m.Start(t.Context(), trading.DefaultInputs())
	assert.ErrorContains(t, err, "run manager is shut down")
}

func TestRunManager_StartInvalidInputs(t *testing.T) {
	m, _ := newTestManager(t, &fakeRunner{})
	in := trading.DefaultInputs()
	in.RiskTolerance = "Extreme"
	_, err := m.Start(t.Context(), in)
	assert.ErrorContains(t, err, `invalid risk tolerance "Extreme"`)
}

func TestRunManager_Subscribe(t *testing.T) {
	runner := &fakeRunner{
		events: []crew.Event{
			{Type: crew.EventKickoffStarted, TaskIndex: -1},
			{Type: crew.EventTaskStarted, TaskIndex: 0, AgentRole: trading.DataAnalystRole},
		},
		release: make(chan struct{}),
		out:     successOutput("done"),
	}
	m, _ := newTestManager(t, runner)

	run, err := m.Start(t.Context(), trading.DefaultInputs())
	require.NoError(t, err)

	events, unsubscribe, ok := m.Subscribe(run.ID)
	require.True(t, ok)
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	e, err := events.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, crew.EventKickoffStarted, e.Type)

	e, err = events.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, crew.EventTaskStarted, e.Type)
	assert.Equal(t, trading.DataAnalystRole, e.AgentRole)

	close(runner.release)

	_, err = events.Get(ctx)
	assert.ErrorIs(t, err, asyncqueue.ErrClosed)

	waitDone(t, m, run)
	assert.Eventually(t, func() bool {
		_, _, live := m.Subscribe(run.ID)
		return !live
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRunManager_Shutdown(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	m, _ := newTestManager(t, runner)

	run, err := m.Start(t.Context(), trading.DefaultInputs())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	got, err := m.Get(t.Context(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, history.StatusFailed, got.Status)
	assert.Equal(t, context.Canceled.Error(), got.Error)

	_, err = m.Start(t.Context(), trading.DefaultInputs())
	assert.ErrorContains(t, err, "run manager is shut down")
}

func TestRunManager_ShutdownCancelsSynchronousRun(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{}), out: successOutput("late")}
	m, store := newTestManager(t, runner)

	done := make(chan error, 1)
	go func() {
		_, err := m.Run(context.Background(), trading.DefaultInputs(), nil)
		done <- err
	}()
	require.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return len(runner.inputs) == 1
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("synchronous run was not canceled")
	}
	run := latestRun(t, store)
	assert.Equal(t, history.StatusFailed, run.Status)

	_, err := m.Run(t.Context(), trading.DefaultInputs(), nil)
	assert.ErrorIs(t, err, ErrShutDown)
}

func TestRunManager_Cancel(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	m, _ := newTestManager(t, runner)

	run, err := m.Start(t.Context(), trading.DefaultInputs())
	require.NoError(t, err)
	require.NoError(t, m.Cancel(run.ID))

	got := waitDone(t, m, run)
	assert.Equal(t, history.StatusFailed, got.Status)
	assert.Equal(t, "run canceled", got.Error)

	assert.Eventually(t, func() bool {
		return errors.Is(m.Cancel(run.ID), ErrRunNotInProgress)
	}, 5*time.Second, 10*time.Millisecond)
}

type panickingRunner struct{}

func (panickingRunner) Run(context.Context, trading.Inputs, crew.Hooks) (*crew.CrewOutput, error) {
	panic("unexpected nil agent")
}

func TestRunManager_RunnerPanic(t *testing.T) {
	m, store := newTestManager(t, panickingRunner{})

	_, err := m.Run(t.Context(), trading.DefaultInputs(), nil)
	assert.EqualError(t, err, "task panicked: unexpected nil agent")

	run := latestRun(t, store)
	assert.Equal(t, history.StatusFailed, run.Status)
	assert.Equal(t, "task panicked: unexpected nil agent", run.Error)
}
