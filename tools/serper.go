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
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nlpodyssey/trading-crew-go/crew"
)

const (
	SearchToolName        = "search_the_internet"
	DefaultSerperBaseURL  = "https://google.serper.dev"
	DefaultSearchNResults = 10
)

var ErrMissingAPIKey = errors.New("missing Serper API key")

// SerperDevTool searches the internet through the Serper API.
type SerperDevTool struct {
	APIKey string

	// Defaults to DefaultSerperBaseURL.
	BaseURL string

	// Maximum number of organic results to return. Defaults to DefaultSearchNResults.
	NResults int

	// Defaults to NewHTTPClient with the default timeout.
	HTTPClient *http.Client
}

type SearchArgs struct {
	SearchQuery string `json:"search_query" jsonschema_description:"Mandatory search query you want to use to search the internet"`
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []serperResult `json:"organic"`
}

type serperResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// Tool wraps the search as a crew tool.
func (t SerperDevTool) Tool() crew.FunctionTool {
	return crew.NewFunctionTool(
		SearchToolName,
		"A tool that can be used to search the internet with a search_query.",
		func(ctx context.Context, args SearchArgs) (string, error) {
			return t.Search(ctx, args.SearchQuery)
		},
	)
}

// Search runs the query and formats the organic results as text.
func (t SerperDevTool) Search(ctx context.Context, query string) (string, error) {
	if t.APIKey == "" {
		return "", ErrMissingAPIKey
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("search query is empty")
	}
	n := t.NResults
	if n <= 0 {
		n = DefaultSearchNResults
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: n})
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(cmp.Or(t.BaseURL, DefaultSerperBaseURL), "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", t.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClientOrDefault(t.HTTPClient).Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("search request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result serperResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	return formatSearchResults(result.Organic, n), nil
}

func formatSearchResults(results []serperResult, n int) string {
	var entries []string
	for _, r := range results {
		if len(entries) == n {
			break
		}
		if r.Title == "" && r.Link == "" {
			continue
		}
		entries = append(entries, strings.Join([]string{
			"Title: " + r.Title,
			"Link: " + r.Link,
			"Snippet: " + r.Snippet,
			"---",
		}, "\n"))
	}
	if len(entries) == 0 {
		return "No results found."
	}
	return "\nSearch results: " + strings.Join(entries, "\n") + "\n"
}
