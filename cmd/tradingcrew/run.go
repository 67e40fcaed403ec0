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
	"errors"
	"fmt"
	"strings"

	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/textwrap"
	"github.com/nlpodyssey/trading-crew-go/trading"
	"github.com/spf13/cobra"
)

type runFlags struct {
	stock     string
	capital   int64
	risk      string
	strategy  string
	news      bool
	showTasks bool
}

func (f runFlags) inputs() (trading.Inputs, error) {
	var errs []error
	rt, err := trading.ParseRiskTolerance(f.risk)
	if err != nil {
		errs = append(errs, err)
	}
	ts, err := trading.ParseTradingStrategy(f.strategy)
	if err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return trading.Inputs{}, err
	}

	in := trading.Inputs{
		StockSelection:            strings.TrimSpace(f.stock),
		InitialCapital:            f.capital,
		RiskTolerance:             rt,
		TradingStrategyPreference: ts,
		NewsImpactConsideration:   f.news,
	}
	return in, in.Validate()
}

func newRunCmd(a *app) *cobra.Command {
	defaults := trading.DefaultInputs()
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the trading crew once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.inputs()
			if err != nil {
				return fmt.Errorf("invalid inputs: %w", err)
			}
			params, err := trading.ParamsFromConfig(a.cfg)
			if err != nil {
				return err
			}

			var hooks crew.Hooks
			if a.cfg.Verbose {
				hooks = eventLogger(crew.Logger())
			}
			out, err := trading.NewService(params).Run(cmd.Context(), in, hooks)
			if err != nil {
				return fmt.Errorf("an error occurred: %w", err)
			}

			w := cmd.OutOrStdout()
			if f.showTasks {
				_, _ = fmt.Fprintln(w, crew.PrettyPrintOutput(*out))
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintln(w, textwrap.PrettyPrintResult(out.Raw))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.stock, "stock", defaults.StockSelection, "stock selection")
	flags.Int64Var(&f.capital, "capital", defaults.InitialCapital, "initial capital")
	flags.StringVar(&f.risk, "risk", string(defaults.RiskTolerance), "risk tolerance: Low, Medium or High")
	flags.StringVar(&f.strategy, "strategy", string(defaults.TradingStrategyPreference),
		"trading strategy preference: Day Trading, Swing Trading or Long-term Investment")
	flags.BoolVar(&f.news, "news", defaults.NewsImpactConsideration, "consider news impact")
	flags.BoolVar(&f.showTasks, "show-tasks", false, "print the output of every task before the result")
	return cmd
}
