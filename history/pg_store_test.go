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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nlpodyssey/trading-crew-go/trading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPgConn is a mock implementation of PgConnInterface for testing
type MockPgConn struct {
	mock.Mock
}

func (m *MockPgConn) Query(ctx context.Context, sql string, args ...any) (PgRowsInterface, error) {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	rows, _ := ret.Get(0).(PgRowsInterface)
	return rows, ret.Error(1)
}

func (m *MockPgConn) QueryRow(ctx context.Context, sql string, args ...any) PgRowInterface {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	return ret.Get(0).(PgRowInterface)
}

func (m *MockPgConn) Exec(ctx context.Context, sql string, args ...any) (any, error) {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	return ret.Get(0), ret.Error(1)
}

func (m *MockPgConn) Close(ctx context.Context) error {
	ret := m.Called(ctx)
	return ret.Error(0)
}

type mockPgRows struct {
	data []string
	pos  int
}

func newMockPgRows(data ...string) *mockPgRows {
	return &mockPgRows{data: data, pos: -1}
}

func (m *mockPgRows) Next() bool {
	m.pos++
	return m.pos < len(m.data)
}

func (m *mockPgRows) Scan(dest ...any) error {
	if m.pos >= len(m.data) {
		return fmt.Errorf("no more rows")
	}
	*dest[0].(*string) = m.data[m.pos]
	return nil
}

func (m *mockPgRows) Err() error { return nil }
func (m *mockPgRows) Close()     {}

type mockPgRow struct {
	data string
	err  error
}

func (m mockPgRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	*dest[0].(*string) = m.data
	return nil
}

func sqlContains(substr string) any {
	return mock.MatchedBy(func(sql string) bool { return strings.Contains(sql, substr) })
}

func newMockPgStore(t *testing.T, conn *MockPgConn) *PgStore {
	t.Helper()
	conn.On("Exec", mock.Anything, sqlContains("CREATE TABLE IF NOT EXISTS test_runs")).Return(nil, nil).Once()
	conn.On("Exec", mock.Anything, sqlContains("CREATE INDEX IF NOT EXISTS idx_test_runs_created_at")).Return(nil, nil).Once()
	s, err := NewPgStore(context.Background(), PgStoreParams{RunsTable: "test_runs", Conn: conn})
	require.NoError(t, err)
	return s
}

func TestNewPgStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing connection string and no conn provided", func(t *testing.T) {
		_, err := NewPgStore(ctx, PgStoreParams{})
		assert.ErrorContains(t, err, "connection string is required")
	})

	t.Run("successful creation with mock connection", func(t *testing.T) {
		conn := &MockPgConn{}
		s := newMockPgStore(t, conn)
		assert.Equal(t, "test_runs", s.runsTable)
		conn.AssertExpectations(t)
	})

	t.Run("schema error closes the connection", func(t *testing.T) {
		conn := &MockPgConn{}
		conn.On("Exec", mock.Anything, mock.Anything).Return(nil, errors.New("permission denied")).Once()
		conn.On("Close", mock.Anything).Return(nil).Once()

		_, err := NewPgStore(ctx, PgStoreParams{Conn: conn})
		assert.ErrorContains(t, err, "error creating runs table: permission denied")
		conn.AssertExpectations(t)
	})
}

func TestPgStore_SaveRun(t *testing.T) {
	conn := &MockPgConn{}
	s := newMockPgStore(t, conn)

	run := NewRun(trading.DefaultInputs())
	conn.On("Exec", mock.Anything, sqlContains("ON CONFLICT (id) DO UPDATE"),
		run.ID.String(), "running", run.CreatedAt, run.UpdatedAt, mock.AnythingOfType("string"),
	).Return(nil, nil).Once()

	require.NoError(t, s.SaveRun(context.Background(), run))
	conn.AssertExpectations(t)
}

func TestPgStore_GetRun(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		conn := &MockPgConn{}
		s := newMockPgStore(t, conn)

		run := NewRun(trading.DefaultInputs())
		data, err := marshalRunData(run)
		require.NoError(t, err)
		conn.On("QueryRow", mock.Anything, sqlContains("WHERE id = $1"), run.ID.String()).
			Return(mockPgRow{data: data}).Once()

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, StatusRunning, got.Status)
		conn.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		conn := &MockPgConn{}
		s := newMockPgStore(t, conn)

		conn.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
			Return(mockPgRow{err: pgx.ErrNoRows}).Once()

		_, err := s.GetRun(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPgStore_ListRuns(t *testing.T) {
	ctx := context.Background()

	first := NewRun(trading.DefaultInputs())
	second := NewRun(trading.DefaultInputs())
	firstData, err := marshalRunData(first)
	require.NoError(t, err)
	secondData, err := marshalRunData(second)
	require.NoError(t, err)

	t.Run("with limit", func(t *testing.T) {
		conn := &MockPgConn{}
		s := newMockPgStore(t, conn)

		conn.On("Query", mock.Anything, sqlContains("LIMIT $1"), 2).
			Return(newMockPgRows(secondData, "not json", firstData), nil).Once()

		runs, err := s.ListRuns(ctx, 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, second.ID, runs[0].ID)
		assert.Equal(t, first.ID, runs[1].ID)
		conn.AssertExpectations(t)
	})

	t.Run("no limit", func(t *testing.T) {
		conn := &MockPgConn{}
		s := newMockPgStore(t, conn)

		conn.On("Query", mock.Anything, sqlContains("ORDER BY created_at DESC")).
			Return(newMockPgRows(), nil).Once()

		runs, err := s.ListRuns(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, runs)
		conn.AssertExpectations(t)
	})

	t.Run("query error", func(t *testing.T) {
		conn := &MockPgConn{}
		s := newMockPgStore(t, conn)

		conn.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

		_, err := s.ListRuns(ctx, 0)
		assert.ErrorContains(t, err, "error querying runs: connection reset")
	})
}

func TestPgStore_Close(t *testing.T) {
	conn := &MockPgConn{}
	s := newMockPgStore(t, conn)
	conn.On("Close", mock.Anything).Return(nil).Once()
	assert.NoError(t, s.Close())
	conn.AssertExpectations(t)
}
