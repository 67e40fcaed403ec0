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
	"context"
	"errors"
	"fmt"

	"github.com/nlpodyssey/trading-crew-go/config"
	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/modelsettings"
	"github.com/nlpodyssey/trading-crew-go/tools"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

// DefaultManagerTemperature is the sampling temperature of the manager model.
const DefaultManagerTemperature = 0.7

// Params wires the trading crew to its models and tools.
type Params struct {
	// Model used by the four personas.
	Model crew.Model

	// Model used by the crew manager.
	ManagerModel crew.Model

	// Settings of the manager model. The temperature defaults to
	// DefaultManagerTemperature.
	ManagerSettings modelsettings.ModelSettings

	// Tools given to every persona, usually scraping and search.
	Tools []crew.Tool

	MaxIterations int
	Verbose       bool
}

// NewCrew builds the financial trading crew: four personas running the
// data analysis, strategy development, execution planning and risk
// assessment tasks under a hierarchical process.
func NewCrew(p Params, hooks crew.Hooks) (*crew.Crew, error) {
	if p.Model == nil {
		return nil, errors.New("trading crew requires an agent model")
	}
	if p.ManagerModel == nil {
		return nil, errors.New("trading crew requires a manager model")
	}

	newAgent := func(role, goal, backstory string) *crew.Agent {
		return crew.NewAgent(role).
			WithGoal(goal).
			WithBackstory(backstory).
			WithVerbose(p.Verbose).
			WithAllowDelegation(true).
			WithTools(p.Tools...).
			WithModel(p.Model)
	}

	dataAnalyst := newAgent(DataAnalystRole, dataAnalystGoal, dataAnalystBackstory)
	strategyDeveloper := newAgent(TradingStrategyDeveloperRole, tradingStrategyDeveloperGoal, tradingStrategyDeveloperBackstory)
	tradeAdvisor := newAgent(TradeAdvisorRole, tradeAdvisorGoal, tradeAdvisorBackstory)
	riskAdvisor := newAgent(RiskAdvisorRole, riskAdvisorGoal, riskAdvisorBackstory)

	managerSettings := p.ManagerSettings
	if !managerSettings.Temperature.Valid() {
		managerSettings.Temperature = param.NewOpt(DefaultManagerTemperature)
	}

	return &crew.Crew{
		Agents: []*crew.Agent{dataAnalyst, strategyDeveloper, tradeAdvisor, riskAdvisor},
		Tasks: []*crew.Task{
			{
				Description:    dataAnalysisDescription,
				ExpectedOutput: dataAnalysisExpectedOutput,
				Agent:          dataAnalyst,
			},
			{
				Description:    strategyDevelopmentDescription,
				ExpectedOutput: strategyDevelopmentExpectedOutput,
				Agent:          strategyDeveloper,
			},
			{
				Description:    executionPlanningDescription,
				ExpectedOutput: executionPlanningExpectedOutput,
				Agent:          tradeAdvisor,
			},
			{
				Description:    riskAssessmentDescription,
				ExpectedOutput: riskAssessmentExpectedOutput,
				Agent:          riskAdvisor,
			},
		},
		Process:         crew.Hierarchical,
		ManagerModel:    p.ManagerModel,
		ManagerSettings: managerSettings,
		MaxIterations:   p.MaxIterations,
		Verbose:         p.Verbose,
		Hooks:           hooks,
	}, nil
}

// Runner runs the trading crew for a set of inputs.
type Runner interface {
	Run(ctx context.Context, in Inputs, hooks crew.Hooks) (*crew.CrewOutput, error)
}

// Service is the default Runner: it validates the inputs, builds a fresh
// crew and kicks it off.
type Service struct {
	params Params
}

func NewService(p Params) *Service {
	return &Service{params: p}
}

func (s *Service) Run(ctx context.Context, in Inputs, hooks crew.Hooks) (*crew.CrewOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inputs: %w", err)
	}
	c, err := NewCrew(s.params, hooks)
	if err != nil {
		return nil, err
	}
	return c.Kickoff(ctx, in.Map())
}

// ParamsFromConfig creates OpenAI models and the search and scrape tools
// from the configuration. Both API keys are required.
func ParamsFromConfig(cfg *config.Config, opts ...option.RequestOption) (Params, error) {
	if err := cfg.Validate(config.OpenAIAPIKeyEnv, config.SerperAPIKeyEnv); err != nil {
		return Params{}, err
	}
	openaiKey, _ := cfg.OpenAIAPIKey.Get()
	serperKey, _ := cfg.SerperAPIKey.Get()

	client := crew.NewOpenAIClient(openaiKey, cfg.OpenAIBaseURL, opts...)
	httpClient := tools.NewHTTPClient(cfg.HTTPClientTimeout, crew.Logger())

	search := tools.SerperDevTool{
		APIKey:     serperKey,
		BaseURL:    cfg.SerperBaseURL,
		HTTPClient: httpClient,
	}
	scrape := tools.ScrapeWebsiteTool{HTTPClient: httpClient}

	return Params{
		Model:        crew.NewOpenAIChatModel(cfg.AgentModel, client),
		ManagerModel: crew.NewOpenAIChatModel(cfg.ManagerModel, client),
		ManagerSettings: modelsettings.ModelSettings{
			Temperature: param.NewOpt(cfg.ManagerTemperature),
		},
		Tools:         []crew.Tool{scrape.Tool(), search.Tool()},
		MaxIterations: cfg.MaxIterations,
		Verbose:       cfg.Verbose,
	}, nil
}
