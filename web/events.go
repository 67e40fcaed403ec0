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
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/history"
)

const eventsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// GetRunEvents streams the crew events of a run as JSON websocket messages.
// For a run in progress, past events are replayed first. For a finished run,
// a single kickoff_completed or kickoff_failed event is sent. The server
// closes the connection when the run ends.
func (s *Server) GetRunEvents(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r, http.Error)
	if !ok {
		return
	}
	events, unsubscribe, live := s.manager.Subscribe(run.ID)
	if live {
		defer unsubscribe()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		crew.Logger().Warn("Failed to upgrade websocket", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = conn.Close() }()

	if !live {
		if e, ok := finalEvent(s.reloadRun(r.Context(), run)); ok {
			if err := writeEvent(conn, e); err != nil {
				return
			}
		}
		closeNormally(conn)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: detects the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		e, err := events.Get(ctx)
		if err != nil {
			break
		}
		if err := writeEvent(conn, e); err != nil {
			return
		}
	}
	closeNormally(conn)
}

// reloadRun re-reads a run that may have finished after it was looked up.
// On failure the given copy is returned.
func (s *Server) reloadRun(ctx context.Context, run *history.Run) *history.Run {
	if run.Done() {
		return run
	}
	fresh, err := s.manager.Get(ctx, run.ID)
	if err != nil {
		crew.Logger().Warn("Failed to reload run",
			slog.String("run_id", run.ID.String()), slog.String("error", err.Error()))
		return run
	}
	return fresh
}

func writeEvent(conn *websocket.Conn, e crew.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
	return conn.WriteJSON(e)
}

func closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(eventsWriteWait))
}

// finalEvent describes the outcome of a finished run.
func finalEvent(run *history.Run) (crew.Event, bool) {
	e := crew.Event{Time: run.UpdatedAt, TaskIndex: -1}
	switch run.Status {
	case history.StatusSucceeded:
		e.Type = crew.EventKickoffCompleted
		e.Output = run.Result
	case history.StatusFailed:
		e.Type = crew.EventKickoffFailed
		e.Error = run.Error
	default:
		return crew.Event{}, false
	}
	return e, true
}
