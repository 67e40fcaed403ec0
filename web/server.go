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

// Package web serves the browser form of the trading crew, the run history
// and the live event stream of runs in progress.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/history"
	"github.com/nlpodyssey/trading-crew-go/trading"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	// DefaultHistoryLimit is the number of runs listed on the history page.
	DefaultHistoryLimit = 50

	failedResultMessage = "Failed to retrieve results. Please check your input and try again."
)

type Server struct {
	manager      *RunManager
	mcp          http.Handler
	pages        *template.Template
	historyLimit int
	startTime    time.Time
}

type ServerParams struct {
	Manager *RunManager

	// Optional MCP handler, mounted at /mcp/sse.
	MCPHandler http.Handler

	// Optional number of runs listed on the history page.
	// Defaults to DefaultHistoryLimit.
	HistoryLimit int
}

func NewServer(params ServerParams) (*Server, error) {
	if params.Manager == nil {
		return nil, errors.New("web server requires a run manager")
	}
	pages, err := template.New("pages").Funcs(template.FuncMap{
		"formatTime": formatTime,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	limit := params.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Server{
		manager:      params.Manager,
		mcp:          params.MCPHandler,
		pages:        pages,
		historyLimit: limit,
		startTime:    time.Now(),
	}, nil
}

func (s *Server) Route(r *mux.Router) {
	// Form
	r.HandleFunc("/", s.GetIndex).Methods(http.MethodGet)

	// Runs
	r.HandleFunc("/runs", s.PostRun).Methods(http.MethodPost)
	r.HandleFunc("/runs", s.GetRuns).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}", s.GetRun).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}/events", s.GetRunEvents).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}/cancel", s.PostRunCancel).Methods(http.MethodPost)
	r.HandleFunc("/api/runs/{id}", s.GetRunJSON).Methods(http.MethodGet)

	// Health
	r.HandleFunc("/healthz", s.GetHealth).Methods(http.MethodGet)

	// MCP
	if s.mcp != nil {
		r.Handle("/mcp/sse", s.mcp)
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Route(r)
	return r
}

type indexPage struct {
	Inputs            trading.Inputs
	RiskTolerances    []trading.RiskTolerance
	TradingStrategies []trading.TradingStrategy
	CapitalStep       int
	Error             string
}

func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, http.StatusOK, trading.DefaultInputs(), nil)
}

func (s *Server) renderIndex(w http.ResponseWriter, status int, in trading.Inputs, err error) {
	page := indexPage{
		Inputs:            in,
		RiskTolerances:    trading.RiskTolerances,
		TradingStrategies: trading.TradingStrategies,
		CapitalStep:       trading.InitialCapitalStep,
	}
	if err != nil {
		page.Error = errorMessage(err)
	}
	s.render(w, status, "index", page)
}

// PostRun starts a run from the form, or from a JSON body when the request
// content type is application/json.
func (s *Server) PostRun(w http.ResponseWriter, r *http.Request) {
	if isJSON(r) {
		var in trading.Inputs
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
			return
		}
		run, err := s.manager.Start(r.Context(), in)
		if err != nil {
			writeJSONError(w, startErrorStatus(in, err), err)
			return
		}
		w.Header().Set("Location", runPath(run.ID))
		writeJSON(w, http.StatusAccepted, run)
		return
	}

	in, err := inputsFromForm(r)
	if err != nil {
		s.renderIndex(w, http.StatusBadRequest, in, err)
		return
	}
	run, err := s.manager.Start(r.Context(), in)
	if err != nil {
		s.renderIndex(w, startErrorStatus(in, err), in, err)
		return
	}
	http.Redirect(w, r, runPath(run.ID), http.StatusSeeOther)
}

type runsPage struct {
	Runs []*history.Run
}

func (s *Server) GetRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.manager.List(r.Context(), s.historyLimit)
	if err != nil {
		crew.Logger().Error("Failed to list runs", slog.String("error", err.Error()))
		http.Error(w, errorMessage(err), http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "runs", runsPage{Runs: runs})
}

type runPage struct {
	Run        *history.Run
	ResultHTML template.HTML
	Error      string
	Failed     bool
}

func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r, http.Error)
	if !ok {
		return
	}
	page := runPage{Run: run}
	switch run.Status {
	case history.StatusSucceeded:
		if strings.TrimSpace(run.Result) == "" {
			page.Failed = true
		} else {
			page.ResultHTML = RenderMarkdown(run.Result)
		}
	case history.StatusFailed:
		page.Failed = true
		page.Error = "An error occurred: " + run.Error
	}
	s.render(w, http.StatusOK, "run", page)
}

// PostRunCancel stops a run in progress and redirects to its page.
func (s *Server) PostRunCancel(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r, http.Error)
	if !ok {
		return
	}
	if err := s.manager.Cancel(run.ID); err != nil {
		http.Error(w, errorMessage(err), http.StatusConflict)
		return
	}
	http.Redirect(w, r, runPath(run.ID), http.StatusSeeOther)
}

func (s *Server) GetRunJSON(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r, func(w http.ResponseWriter, msg string, status int) {
		writeJSON(w, status, map[string]string{"error": msg})
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request, fail func(http.ResponseWriter, string, int)) (*history.Run, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		fail(w, "Invalid run ID", http.StatusBadRequest)
		return nil, false
	}
	run, err := s.manager.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		fail(w, "Run not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		crew.Logger().Error("Failed to get run", slog.String("run_id", id.String()), slog.String("error", err.Error()))
		fail(w, errorMessage(err), http.StatusInternalServerError)
		return nil, false
	}
	return run, true
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		crew.Logger().Error("Failed to render template", slog.String("template", name), slog.String("error", err.Error()))
		http.Error(w, errorMessage(err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func inputsFromForm(r *http.Request) (trading.Inputs, error) {
	in := trading.DefaultInputs()
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("invalid form: %w", err)
	}

	var errs []error
	in.StockSelection = strings.TrimSpace(r.PostFormValue("stock_selection"))

	if v := strings.TrimSpace(r.PostFormValue("initial_capital")); v != "" {
		capital, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("initial capital must be a whole number, got %q", v))
		} else {
			in.InitialCapital = capital
		}
	}

	rt, err := trading.ParseRiskTolerance(r.PostFormValue("risk_tolerance"))
	if err != nil {
		errs = append(errs, err)
	} else {
		in.RiskTolerance = rt
	}

	ts, err := trading.ParseTradingStrategy(r.PostFormValue("trading_strategy_preference"))
	if err != nil {
		errs = append(errs, err)
	} else {
		in.TradingStrategyPreference = ts
	}

	switch strings.ToLower(r.PostFormValue("news_impact_consideration")) {
	case "on", "true", "1", "yes":
		in.NewsImpactConsideration = true
	default:
		in.NewsImpactConsideration = false
	}

	if err := errors.Join(errs...); err != nil {
		return in, err
	}
	return in, in.Validate()
}

// startErrorStatus tells invalid inputs apart from storage failures.
func startErrorStatus(in trading.Inputs, err error) int {
	switch {
	case in.Validate() != nil:
		return http.StatusBadRequest
	case errors.Is(err, ErrShutDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	return "An error occurred: " + err.Error()
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func runPath(id uuid.UUID) string {
	return "/runs/" + id.String()
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		crew.Logger().Error("Failed to write JSON response", slog.String("error", err.Error()))
	}
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": errorMessage(err)})
}
