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

package usage

import (
	"context"
	"sync"
)

// Usage accumulates token accounting across model requests.
// It is safe for concurrent use, since tool calls of one agent step may run
// nested agents in parallel.
type Usage struct {
	mu sync.Mutex

	// Total requests made to the LLM API.
	Requests uint64 `json:"requests"`

	// Total input tokens sent, across all requests.
	InputTokens uint64 `json:"input_tokens"`

	// Input tokens served from the provider cache.
	CachedTokens uint64 `json:"cached_tokens"`

	// Total output tokens received, across all requests.
	OutputTokens uint64 `json:"output_tokens"`

	// Output tokens spent on reasoning, for models that report them.
	ReasoningTokens uint64 `json:"reasoning_tokens"`

	// Total tokens sent and received, across all requests.
	TotalTokens uint64 `json:"total_tokens"`
}

func NewUsage() *Usage {
	return new(Usage)
}

func (u *Usage) Add(other *Usage) {
	if other == nil || u == other {
		return
	}
	snapshot := other.Snapshot()

	u.mu.Lock()
	defer u.mu.Unlock()
	u.Requests += snapshot.Requests
	u.InputTokens += snapshot.InputTokens
	u.CachedTokens += snapshot.CachedTokens
	u.OutputTokens += snapshot.OutputTokens
	u.ReasoningTokens += snapshot.ReasoningTokens
	u.TotalTokens += snapshot.TotalTokens
}

// Snapshot returns a copy of the counters, detached from u.
func (u *Usage) Snapshot() *Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return &Usage{
		Requests:        u.Requests,
		InputTokens:     u.InputTokens,
		CachedTokens:    u.CachedTokens,
		OutputTokens:    u.OutputTokens,
		ReasoningTokens: u.ReasoningTokens,
		TotalTokens:     u.TotalTokens,
	}
}

// usageContextKey is the key type for Usage values in Contexts.
type usageContextKey struct{}

// NewContext returns a new Context that carries the given Usage.
func NewContext(ctx context.Context, u *Usage) context.Context {
	return context.WithValue(ctx, usageContextKey{}, u)
}

// FromContext returns the Usage value stored in ctx, if any.
func FromContext(ctx context.Context) (*Usage, bool) {
	u, ok := ctx.Value(usageContextKey{}).(*Usage)
	return u, ok
}
