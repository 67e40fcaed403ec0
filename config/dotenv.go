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
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/nlpodyssey/trading-crew-go/types/optional"
)

// DotenvFilename is the name of the local environment-definition file.
const DotenvFilename = ".env"

const (
	OpenAIAPIKeyEnv = "OPENAI_API_KEY"
	SerperAPIKeyEnv = "SERPER_API_KEY"
)

// FindDotenv walks up from dir to the filesystem root and returns the path of
// the first regular DotenvFilename it finds.
func FindDotenv(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, DotenvFilename)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LoadEnv loads the nearest dotenv file above the working directory into the
// process environment. Variables that are already set are never overwritten.
// A missing or unreadable file is silently ignored.
func LoadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		slog.Debug("cannot determine working directory for dotenv discovery", slog.String("error", err.Error()))
		return
	}
	LoadEnvFrom(wd)
}

// LoadEnvFrom is like LoadEnv, starting the discovery from dir.
func LoadEnvFrom(dir string) {
	path, ok := FindDotenv(dir)
	if !ok {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Debug("ignoring unreadable dotenv file", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// GetSecret loads the environment and returns the value bound to name.
// An unset variable yields an absent value, never an error.
func GetSecret(name string) optional.Optional[string] {
	LoadEnv()
	return optional.FromLookup(os.LookupEnv(name))
}

// GetOpenAIAPIKey returns the value of OPENAI_API_KEY, if set.
func GetOpenAIAPIKey() optional.Optional[string] {
	return GetSecret(OpenAIAPIKeyEnv)
}

// GetSerperAPIKey returns the value of SERPER_API_KEY, if set.
func GetSerperAPIKey() optional.Optional[string] {
	return GetSecret(SerperAPIKeyEnv)
}
