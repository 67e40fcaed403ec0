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

// Command tradingcrew runs the financial trading crew from the command line,
// or serves its web form.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nlpodyssey/trading-crew-go/config"
	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the state shared by the subcommands once configuration is loaded.
type app struct {
	cfg          *config.Config
	model        string
	managerModel string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tradingcrew",
		Short: "Financial Trading Crew",
		Long: "A crew of AI agents (data analyst, trading strategy developer, trade advisor and " +
			"risk advisor) producing a trading analysis for a stock.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.model, "model", "", "model of the agents (overrides OPENAI_MODEL_NAME)")
	root.PersistentFlags().StringVar(&a.managerModel, "manager-model", "", "model of the crew manager (overrides MANAGER_MODEL_NAME)")

	root.AddCommand(newRunCmd(a), newServeCmd(a))
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("model") {
		cfg.AgentModel = a.model
	}
	if cmd.Flags().Changed("manager-model") {
		cfg.ManagerModel = a.managerModel
	}
	a.cfg = cfg

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	crew.SetLogger(logger)
	slog.SetDefault(logger)
	return nil
}

// eventLogger reports crew progress through the logger when verbose output
// is enabled.
func eventLogger(logger *slog.Logger) crew.Hooks {
	return crew.HooksFunc(func(ctx context.Context, e crew.Event) {
		attrs := []any{slog.String("type", string(e.Type))}
		if e.TaskIndex >= 0 {
			attrs = append(attrs, slog.Int("task", e.TaskIndex+1))
		}
		if e.AgentRole != "" {
			attrs = append(attrs, slog.String("agent", e.AgentRole))
		}
		if e.Tool != "" {
			attrs = append(attrs, slog.String("tool", e.Tool))
		}
		if e.Error != "" {
			attrs = append(attrs, slog.String("error", e.Error))
		}
		logger.InfoContext(ctx, "Crew event", attrs...)
	})
}
