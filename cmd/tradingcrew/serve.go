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
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/history"
	"github.com/nlpodyssey/trading-crew-go/mcpserver"
	"github.com/nlpodyssey/trading-crew-go/trading"
	"github.com/nlpodyssey/trading-crew-go/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web form, the run history and the MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.HTTPAddr
			}

			params, err := trading.ParamsFromConfig(a.cfg)
			if err != nil {
				return err
			}
			store, err := history.Open(ctx, a.cfg.HistoryDriver, a.cfg.HistoryDSN)
			if err != nil {
				return fmt.Errorf("failed to open run history: %w", err)
			}
			defer func() {
				if e := store.Close(); e != nil {
					err = errors.Join(err, e)
				}
			}()

			manager := web.NewRunManager(trading.NewService(params), store)
			server, err := web.NewServer(web.ServerParams{
				Manager:    manager,
				MCPHandler: mcpserver.New(manager).SSEHandler(),
			})
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				crew.Logger().Info("Serving trading crew", slog.String("addr", addr))
				serveErr <- httpServer.ListenAndServe()
			}()

			select {
			case err = <-serveErr:
				if errors.Is(err, http.ErrServerClosed) {
					err = nil
				}
			case <-ctx.Done():
				crew.Logger().Info("Shutting down")
			}

			// Runs are recorded before the store is closed. Open MCP SSE
			// streams can keep the HTTP shutdown waiting, so it goes last
			// and falls back to closing the connections.
			e := shutdownInOrder(shutdownTimeout,
				manager.Shutdown,
				func(ctx context.Context) error {
					if err := httpServer.Shutdown(ctx); err != nil {
						return errors.Join(err, httpServer.Close())
					}
					return nil
				},
			)
			return errors.Join(err, e)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

// shutdownInOrder runs the steps one after the other, each with its own
// timeout.
func shutdownInOrder(timeout time.Duration, steps ...func(context.Context) error) error {
	var errs []error
	for _, step := range steps {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		errs = append(errs, step(ctx))
		cancel()
	}
	return errors.Join(errs...)
}
