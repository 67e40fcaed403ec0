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

package trading

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type RiskTolerance string

const (
	RiskLow    RiskTolerance = "Low"
	RiskMedium RiskTolerance = "Medium"
	RiskHigh   RiskTolerance = "High"
)

// RiskTolerances lists the accepted values, in display order.
var RiskTolerances = []RiskTolerance{RiskLow, RiskMedium, RiskHigh}

type TradingStrategy string

const (
	DayTrading         TradingStrategy = "Day Trading"
	SwingTrading       TradingStrategy = "Swing Trading"
	LongTermInvestment TradingStrategy = "Long-term Investment"
)

// TradingStrategies lists the accepted values, in display order.
var TradingStrategies = []TradingStrategy{DayTrading, SwingTrading, LongTermInvestment}

const (
	DefaultStockSelection = "MSFT"
	DefaultInitialCapital = 100000
	InitialCapitalStep    = 1000
)

// Inputs are the user parameters of a trading crew run.
type Inputs struct {
	StockSelection            string          `json:"stock_selection"`
	InitialCapital            int64           `json:"initial_capital"`
	RiskTolerance             RiskTolerance   `json:"risk_tolerance"`
	TradingStrategyPreference TradingStrategy `json:"trading_strategy_preference"`
	NewsImpactConsideration   bool            `json:"news_impact_consideration"`
}

// DefaultInputs returns the initial values of the input form.
func DefaultInputs() Inputs {
	return Inputs{
		StockSelection:            DefaultStockSelection,
		InitialCapital:            DefaultInitialCapital,
		RiskTolerance:             RiskLow,
		TradingStrategyPreference: DayTrading,
		NewsImpactConsideration:   true,
	}
}

func ParseRiskTolerance(s string) (RiskTolerance, error) {
	for _, v := range RiskTolerances {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid risk tolerance %q: must be one of Low, Medium, High", s)
}

func ParseTradingStrategy(s string) (TradingStrategy, error) {
	norm := strings.Join(strings.Fields(s), " ")
	for _, v := range TradingStrategies {
		if strings.EqualFold(norm, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid trading strategy preference %q: must be one of Day Trading, Swing Trading, Long-term Investment", s)
}

// Validate reports every invalid field.
func (in Inputs) Validate() error {
	var errs []error
	if strings.TrimSpace(in.StockSelection) == "" {
		errs = append(errs, errors.New("stock selection is required"))
	}
	if in.InitialCapital < 0 {
		errs = append(errs, fmt.Errorf("initial capital must not be negative, got %d", in.InitialCapital))
	}
	if _, err := ParseRiskTolerance(string(in.RiskTolerance)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseTradingStrategy(string(in.TradingStrategyPreference)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Normalize validates the inputs and returns them with the stock trimmed
// and the choices in their canonical spelling.
func (in Inputs) Normalize() (Inputs, error) {
	if err := in.Validate(); err != nil {
		return in, err
	}
	in.StockSelection = strings.TrimSpace(in.StockSelection)
	in.RiskTolerance, _ = ParseRiskTolerance(string(in.RiskTolerance))
	in.TradingStrategyPreference, _ = ParseTradingStrategy(string(in.TradingStrategyPreference))
	return in, nil
}

// Map returns the template inputs of the crew, normalized when valid.
func (in Inputs) Map() map[string]string {
	if n, err := in.Normalize(); err == nil {
		in = n
	}
	return map[string]string{
		"stock_selection":             strings.TrimSpace(in.StockSelection),
		"initial_capital":             strconv.FormatInt(in.InitialCapital, 10),
		"risk_tolerance":              string(in.RiskTolerance),
		"trading_strategy_preference": string(in.TradingStrategyPreference),
		"news_impact_consideration":   pythonBool(in.NewsImpactConsideration),
	}
}

func pythonBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
