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

package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/trading"
	"github.com/nlpodyssey/trading-crew-go/usage"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrNotFound is returned by GetRun for unknown run IDs.
var ErrNotFound = errors.New("run not found")

// Run is one kickoff of the trading crew.
type Run struct {
	ID          uuid.UUID         `json:"id"`
	Inputs      trading.Inputs    `json:"inputs"`
	Status      Status            `json:"status"`
	Result      string            `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	TasksOutput []crew.TaskOutput `json:"tasks_output,omitempty"`
	Usage       *usage.Usage      `json:"usage,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func NewRun(in trading.Inputs) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:        uuid.New(),
		Inputs:    in,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Succeed records the crew output.
func (r *Run) Succeed(out *crew.CrewOutput) {
	r.Status = StatusSucceeded
	r.Result = out.Raw
	r.TasksOutput = out.TasksOutput
	r.Usage = out.TokenUsage
	r.UpdatedAt = time.Now().UTC()
}

// Fail records the kickoff error.
func (r *Run) Fail(err error) {
	r.Status = StatusFailed
	r.Error = err.Error()
	r.UpdatedAt = time.Now().UTC()
}

func (r *Run) Done() bool {
	return r.Status != StatusRunning
}

// Store persists runs.
type Store interface {
	// SaveRun inserts the run, or replaces the stored run with the same ID.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun returns ErrNotFound if no run has the given ID.
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)

	// ListRuns returns the latest runs, newest first. A non-positive limit
	// returns all runs.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	Close() error
}

// Open opens the store for the given driver: "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return NewSQLiteStore(ctx, SQLiteStoreParams{DBDataSourceName: dsn})
	case "postgres", "postgresql":
		return NewPgStore(ctx, PgStoreParams{ConnectionString: dsn})
	default:
		return nil, fmt.Errorf("unknown history driver %q", driver)
	}
}

func marshalRunData(run *Run) (string, error) {
	b, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("error JSON marshaling run: %w", err)
	}
	return string(b), nil
}

func unmarshalRunData(data string) (*Run, error) {
	run := new(Run)
	if err := json.Unmarshal([]byte(data), run); err != nil {
		return nil, fmt.Errorf("error JSON unmarshaling run: %w", err)
	}
	return run, nil
}
