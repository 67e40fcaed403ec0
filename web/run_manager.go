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
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nlpodyssey/trading-crew-go/asyncqueue"
	"github.com/nlpodyssey/trading-crew-go/asynctask"
	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/history"
	"github.com/nlpodyssey/trading-crew-go/trading"
)

// ErrRunNotInProgress is returned by Cancel for runs that are not running
// in this process.
var ErrRunNotInProgress = errors.New("run is not in progress")

// ErrShutDown is returned when a run is requested after Shutdown.
var ErrShutDown = errors.New("run manager is shut down")

// ErrNoOutput is recorded for runs whose runner returned neither an output
// nor an error.
var ErrNoOutput = errors.New("crew returned no output")

var errRunCanceled = errors.New("run canceled")

// RunManager starts trading crew runs, records them in the history store
// and fans the crew events out to subscribers.
//
// RunManager is itself a trading.Runner, so synchronous runs (for example
// from MCP clients) are recorded too.
type RunManager struct {
	runner trading.Runner
	store  history.Store

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	live map[uuid.UUID]*liveRun
}

type liveRun struct {
	events *eventLog
	task   *asynctask.Task[*crew.CrewOutput]
}

func NewRunManager(runner trading.Runner, store history.Store) *RunManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &RunManager{
		runner: runner,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
		live:   make(map[uuid.UUID]*liveRun),
	}
}

// Start records a new run and kicks off the crew in the background.
// The returned run is a snapshot taken before the kickoff.
func (m *RunManager) Start(ctx context.Context, in trading.Inputs) (*history.Run, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	if err := m.acquire(); err != nil {
		return nil, err
	}

	run := history.NewRun(in)
	if err := m.store.SaveRun(ctx, run); err != nil {
		m.wg.Done()
		return nil, err
	}
	snapshot := *run

	task := m.launch(m.ctx, run, nil)
	go func() {
		defer m.wg.Done()
		_, _ = m.finish(run, task.Await())
	}()
	return &snapshot, nil
}

// Run records a new run and kicks off the crew, waiting for the result.
func (m *RunManager) Run(ctx context.Context, in trading.Inputs, hooks crew.Hooks) (*crew.CrewOutput, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid inputs: %w", err)
	}
	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.wg.Done()

	// Shutdown cancels synchronous runs too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.ctx, cancel)
	defer stop()

	run := history.NewRun(in)
	if err := m.store.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return m.finish(run, m.launch(ctx, run, hooks).Await())
}

// acquire registers a run with wg, unless the manager is shut down.
// Under mu, so that Shutdown never waits on wg before a concurrent Add.
func (m *RunManager) acquire() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return ErrShutDown
	}
	m.wg.Add(1)
	return nil
}

// Cancel stops a run in progress. The run is recorded as failed.
func (m *RunManager) Cancel(id uuid.UUID) error {
	m.mu.Lock()
	lr, ok := m.live[id]
	m.mu.Unlock()
	if !ok || !lr.task.Cancel() {
		return ErrRunNotInProgress
	}
	return nil
}

// launch starts the crew and makes the run visible to Subscribe and Cancel
// before any event is emitted.
func (m *RunManager) launch(ctx context.Context, run *history.Run, hooks crew.Hooks) *asynctask.Task[*crew.CrewOutput] {
	events := newEventLog()

	m.mu.Lock()
	defer m.mu.Unlock()
	task := asynctask.Start(ctx, func(ctx context.Context) (*crew.CrewOutput, error) {
		return m.runner.Run(ctx, run.Inputs, crew.MultiHooks{events, hooks})
	})
	m.live[run.ID] = &liveRun{events: events, task: task}
	return task
}

func (m *RunManager) finish(run *history.Run, res asynctask.Result[*crew.CrewOutput]) (*crew.CrewOutput, error) {
	defer m.untrack(run.ID)

	err := res.Error
	switch {
	case errors.Is(err, asynctask.ErrCanceled):
		err = errRunCanceled
	case err == nil && res.Value == nil:
		err = ErrNoOutput
	}
	if err != nil {
		crew.Logger().Error("Trading crew run failed",
			slog.String("run_id", run.ID.String()), slog.String("error", err.Error()))
		run.Fail(err)
	} else {
		run.Succeed(res.Value)
	}

	if e := m.store.SaveRun(context.Background(), run); e != nil {
		crew.Logger().Error("Failed to save run",
			slog.String("run_id", run.ID.String()), slog.String("error", e.Error()))
	}
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Get returns the stored run.
func (m *RunManager) Get(ctx context.Context, id uuid.UUID) (*history.Run, error) {
	return m.store.GetRun(ctx, id)
}

// List returns the latest stored runs, newest first.
func (m *RunManager) List(ctx context.Context, limit int) ([]*history.Run, error) {
	return m.store.ListRuns(ctx, limit)
}

// Subscribe returns a queue receiving the events of a run in progress,
// starting with the events already emitted. The queue is closed when the run
// ends or the returned function is called. ok is false if the run is not in
// progress.
func (m *RunManager) Subscribe(id uuid.UUID) (_ *asyncqueue.Queue[crew.Event], unsubscribe func(), ok bool) {
	m.mu.Lock()
	lr, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil, false
	}
	q := lr.events.subscribe()
	return q, func() { lr.events.unsubscribe(q) }, true
}

// Shutdown cancels the runs in progress and waits for them to be recorded.
// Runs requested afterwards fail with ErrShutDown.
func (m *RunManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *RunManager) untrack(id uuid.UUID) {
	m.mu.Lock()
	lr, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()
	if ok {
		lr.events.close()
	}
}

// eventLog keeps the events of one run and copies them to subscribers.
type eventLog struct {
	mu     sync.Mutex
	events []crew.Event
	subs   map[*asyncqueue.Queue[crew.Event]]struct{}
	closed bool
}

func newEventLog() *eventLog {
	return &eventLog{subs: make(map[*asyncqueue.Queue[crew.Event]]struct{})}
}

func (l *eventLog) OnEvent(_ context.Context, e crew.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.events = append(l.events, e)
	for q := range l.subs {
		_ = q.Put(e)
	}
}

func (l *eventLog) subscribe() *asyncqueue.Queue[crew.Event] {
	q := asyncqueue.New[crew.Event]()

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		_ = q.Put(e)
	}
	if l.closed {
		q.Close()
	} else {
		l.subs[q] = struct{}{}
	}
	return q
}

func (l *eventLog) unsubscribe(q *asyncqueue.Queue[crew.Event]) {
	l.mu.Lock()
	delete(l.subs, q)
	l.mu.Unlock()
	q.Close()
}

func (l *eventLog) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for q := range l.subs {
		q.Close()
	}
	clear(l.subs)
}
