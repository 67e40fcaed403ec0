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

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/nlpodyssey/trading-crew-go/types/optional"
	"go-simpler.org/env"
)

// ErrMissingSecret is returned by Validate when a required secret is absent.
var ErrMissingSecret = errors.New("missing required secret")

// Secret is an optional credential whose textual and JSON forms are redacted.
type Secret struct {
	optional.Optional[string]
}

// NewSecret returns a present secret holding v.
func NewSecret(v string) Secret {
	return Secret{optional.Value(v)}
}

func (s Secret) String() string {
	if !s.Present {
		return "<unset>"
	}
	return "<redacted>"
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Config is the process configuration. It is loaded once at startup and then
// passed to the components that need it.
type Config struct {
	OpenAIAPIKey Secret
	SerperAPIKey Secret
	Settings
}

// Settings holds the non-secret configuration decoded from the environment.
type Settings struct {
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	SerperBaseURL string `env:"SERPER_BASE_URL" default:"https://google.serper.dev"`

	AgentModel         string  `env:"OPENAI_MODEL_NAME" default:"gpt-3.5-turbo"`
	ManagerModel       string  `env:"MANAGER_MODEL_NAME" default:"gpt-3.5-turbo"`
	ManagerTemperature float64 `env:"MANAGER_TEMPERATURE" default:"0.7"`
	MaxIterations      int     `env:"CREW_MAX_ITERATIONS" default:"15"`
	Verbose            bool    `env:"CREW_VERBOSE" default:"true"`

	HTTPAddr          string        `env:"HTTP_ADDR" default:":8501"`
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" default:"30s"`

	HistoryDriver string `env:"HISTORY_DRIVER" default:"sqlite"`
	HistoryDSN    string `env:"HISTORY_DSN" default:"file:trading_crew.db"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// Load reads the dotenv file, if any, and decodes the configuration from the
// process environment. Absent secrets are not an error here; see Validate.
func Load() (*Config, error) {
	LoadEnv()
	return FromEnviron(os.Environ())
}

// FromEnviron decodes the configuration from a list of KEY=value pairs
// without touching the process environment.
func FromEnviron(environ []string) (*Config, error) {
	vars := toMap(environ)

	var cfg Config
	if err := env.Load(&cfg.Settings, &env.Options{Source: env.Map(vars)}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.OpenAIAPIKey = lookupSecret(vars, OpenAIAPIKeyEnv)
	cfg.SerperAPIKey = lookupSecret(vars, SerperAPIKeyEnv)

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func lookupSecret(vars map[string]string, name string) Secret {
	v, ok := vars[name]
	return Secret{optional.FromLookup(v, ok)}
}

func (cfg *Config) check() error {
	if cfg.MaxIterations <= 0 {
		return fmt.Errorf("CREW_MAX_ITERATIONS must be positive, got %d", cfg.MaxIterations)
	}
	if cfg.ManagerTemperature < 0 || cfg.ManagerTemperature > 2 {
		return fmt.Errorf("MANAGER_TEMPERATURE must be within [0, 2], got %g", cfg.ManagerTemperature)
	}
	if !slices.Contains([]string{"sqlite", "postgres"}, cfg.HistoryDriver) {
		return fmt.Errorf("HISTORY_DRIVER must be sqlite or postgres, got %q", cfg.HistoryDriver)
	}
	return nil
}

// Validate reports every required secret that is absent or empty.
func (cfg *Config) Validate(required ...string) error {
	var errs []error
	for _, name := range required {
		var s Secret
		switch name {
		case OpenAIAPIKeyEnv:
			s = cfg.OpenAIAPIKey
		case SerperAPIKeyEnv:
			s = cfg.SerperAPIKey
		default:
			errs = append(errs, fmt.Errorf("unknown secret %q", name))
			continue
		}
		if v, ok := s.Get(); !ok || v == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingSecret, name))
		}
	}
	return errors.Join(errs...)
}

func toMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
