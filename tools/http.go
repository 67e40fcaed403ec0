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

package tools

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/nlpodyssey/trading-crew-go/crew"
)

const (
	DefaultHTTPTimeout = 30 * time.Second
	defaultRetryMax    = 3
)

// NewHTTPClient returns an HTTP client that retries connection errors and
// server-side failures with exponential backoff.
// A nil logger falls back to crew.Logger().
func NewHTTPClient(timeout time.Duration, logger *slog.Logger) *http.Client {
	if logger == nil {
		logger = crew.Logger()
	}
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := retryablehttp.NewClient()
	c.RetryMax = defaultRetryMax
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = logger.With(slog.String("component", "http"))
	return c.StandardClient()
}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return NewHTTPClient(DefaultHTTPTimeout, nil)
}
