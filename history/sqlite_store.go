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
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a SQLite-based implementation of Store.
//
// By default, uses an in-memory database that is lost when the process ends.
// For persistent storage, provide a file path.
type SQLiteStore struct {
	dbDSN     string
	runsTable string
	db        *sql.DB
	mu        sync.Mutex
}

type SQLiteStoreParams struct {
	// Optional database data source name.
	// Defaults to "file::memory:?cache=shared".
	DBDataSourceName string

	// Optional name of the table to store runs.
	// Defaults to "crew_runs".
	RunsTable string
}

// NewSQLiteStore opens the database and creates the schema if needed.
func NewSQLiteStore(ctx context.Context, params SQLiteStoreParams) (_ *SQLiteStore, err error) {
	s := &SQLiteStore{
		dbDSN:     cmp.Or(params.DBDataSourceName, "file::memory:?cache=shared"),
		runsTable: cmp.Or(params.RunsTable, "crew_runs"),
	}

	defer func() {
		if err != nil {
			if e := s.Close(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}()

	s.db, err = sql.Open("sqlite3", s.dbDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	err = s.initDB(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	data, err := marshalRunData(run)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO "%s" (id, status, created_at, updated_at, run_data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at,
			run_data = excluded.run_data
	`, s.runsTable),
		run.ID.String(), string(run.Status), run.CreatedAt.UnixNano(), run.UpdatedAt.UnixNano(), data)
	if err != nil {
		return fmt.Errorf("error saving run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT run_data FROM "%s" WHERE id = ?
	`, s.runsTable), id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying run: %w", err)
	}
	return unmarshalRunData(data)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) (_ []*Run, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	if limit <= 0 {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT run_data FROM "%s"
			ORDER BY created_at DESC
		`, s.runsTable))
	} else {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT run_data FROM "%s"
			ORDER BY created_at DESC
			LIMIT ?
		`, s.runsTable), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("error closing sql.Rows: %w", e))
		}
	}()

	var runs []*Run
	for rows.Next() {
		var data string
		if err = rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sql rows scan error: %w", err)
		}
		run, err := unmarshalRunData(data)
		if err != nil {
			continue // Skip invalid JSON entries
		}
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sql rows scan error: %w", err)
	}
	return runs, nil
}

// Initialize the database schema.
func (s *SQLiteStore) initDB(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			run_data TEXT NOT NULL
		)
	`, s.runsTable))
	if err != nil {
		return fmt.Errorf("error creating runs table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS "idx_%s_created_at" ON "%s" (created_at DESC)
	`, s.runsTable, s.runsTable))
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}
	return nil
}

// Close the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
