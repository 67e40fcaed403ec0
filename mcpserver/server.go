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

// Package mcpserver exposes the trading crew as a Model Context Protocol tool.
package mcpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/textwrap"
	"github.com/nlpodyssey/trading-crew-go/trading"
)

const (
	ServerName = "Financial Trading Crew"
	ToolName   = "run_trading_crew"

	toolDescription = "Run the financial trading crew for a stock: data analysis, trading strategy " +
		"development, execution planning and risk assessment. Returns the final risk analysis report."
	failedResultMessage = "Failed to retrieve results. Please check your input and try again."
)

// RunTradingCrewParams are the tool arguments. Omitted fields take the
// defaults of the input form.
type RunTradingCrewParams struct {
	StockSelection            string `json:"stock_selection,omitempty" jsonschema:"ticker of the stock to analyze such as MSFT"`
	InitialCapital            *int64 `json:"initial_capital,omitempty" jsonschema:"capital available for trading in dollars"`
	RiskTolerance             string `json:"risk_tolerance,omitempty" jsonschema:"Low or Medium or High"`
	TradingStrategyPreference string `json:"trading_strategy_preference,omitempty" jsonschema:"Day Trading or Swing Trading or Long-term Investment"`
	NewsImpactConsideration   *bool  `json:"news_impact_consideration,omitempty" jsonschema:"whether news impact should be considered"`
}

// Inputs merges the arguments over trading.DefaultInputs.
func (p RunTradingCrewParams) Inputs() (trading.Inputs, error) {
	in := trading.DefaultInputs()
	var errs []error

	if v := strings.TrimSpace(p.StockSelection); v != "" {
		in.StockSelection = v
	}
	if p.InitialCapital != nil {
		in.InitialCapital = *p.InitialCapital
	}
	if p.RiskTolerance != "" {
		rt, err := trading.ParseRiskTolerance(p.RiskTolerance)
		if err != nil {
			errs = append(errs, err)
		}
		in.RiskTolerance = rt
	}
	if p.TradingStrategyPreference != "" {
		ts, err := trading.ParseTradingStrategy(p.TradingStrategyPreference)
		if err != nil {
			errs = append(errs, err)
		}
		in.TradingStrategyPreference = ts
	}
	if p.NewsImpactConsideration != nil {
		in.NewsImpactConsideration = *p.NewsImpactConsideration
	}

	if err := errors.Join(errs...); err != nil {
		return in, err
	}
	return in, in.Validate()
}

type Server struct {
	server *mcp.Server
	runner trading.Runner
}

// New creates an MCP server whose run_trading_crew tool kicks off the crew
// through runner.
func New(runner trading.Runner) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: ServerName}, nil),
		runner: runner,
	}
	mcp.AddTool(s.server, &mcp.Tool{Name: ToolName, Description: toolDescription}, s.runTradingCrew)
	return s
}

// MCPServer returns the underlying server, for use with other transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// SSEHandler serves the tool over the SSE transport.
func (s *Server) SSEHandler() http.Handler {
	return mcp.NewSSEHandler(func(*http.Request) *mcp.Server {
		return s.server
	})
}

func (s *Server) runTradingCrew(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[RunTradingCrewParams],
) (*mcp.CallToolResultFor[string], error) {
	in, err := params.Arguments.Inputs()
	if err != nil {
		return errorResult("An error occurred: " + err.Error()), nil
	}

	crew.Logger().Info("MCP trading crew run", slog.String("stock_selection", in.StockSelection))
	out, err := s.runner.Run(ctx, in, nil)
	if err != nil {
		return errorResult("An error occurred: " + err.Error()), nil
	}
	if out == nil || strings.TrimSpace(out.Raw) == "" {
		return errorResult(failedResultMessage), nil
	}
	return &mcp.CallToolResultFor[string]{
		Content: []mcp.Content{&mcp.TextContent{Text: textwrap.PrettyPrintResult(out.Raw)}},
	}, nil
}

func errorResult(text string) *mcp.CallToolResultFor[string] {
	return &mcp.CallToolResultFor[string]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
