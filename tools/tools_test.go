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

package tools_test

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nlpodyssey/trading-crew-go/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHTTPClient() *http.Client {
	return tools.NewHTTPClient(5*time.Second, slog.New(slog.DiscardHandler))
}

func TestSerperSearch(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"organic":[
			{"title":"MSFT stock","link":"https://example.com/a","snippet":"Up 2%","position":1},
			{"title":"Microsoft news","link":"https://example.com/b","snippet":"Earnings","position":2},
			{"title":"Third","link":"https://example.com/c","snippet":"ignored","position":3}
		]}`)
	}))
	t.Cleanup(server.Close)

	tool := tools.SerperDevTool{APIKey: "secret", BaseURL: server.URL + "/", NResults: 2, HTTPClient: testHTTPClient()}
	out, err := tool.Search(t.Context(), "  MSFT news ")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"q": "MSFT news", "num": float64(2)}, got)
	assert.Equal(t, "\nSearch results: "+
		"Title: MSFT stock\nLink: https://example.com/a\nSnippet: Up 2%\n---\n"+
		"Title: Microsoft news\nLink: https://example.com/b\nSnippet: Earnings\n---\n", out)
}

func TestSerperToolInvoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"organic":[]}`)
	}))
	t.Cleanup(server.Close)

	tool := tools.SerperDevTool{APIKey: "secret", BaseURL: server.URL, HTTPClient: testHTTPClient()}.Tool()
	assert.Equal(t, tools.SearchToolName, tool.ToolName())

	out, err := tool.Invoke(t.Context(), `{"search_query":"nothing"}`)
	require.NoError(t, err)
	assert.Equal(t, "No results found.", out)

	_, err = tool.Invoke(t.Context(), `{}`)
	assert.Error(t, err)
}

func TestSerperErrors(t *testing.T) {
	_, err := tools.SerperDevTool{}.Search(t.Context(), "q")
	assert.ErrorIs(t, err, tools.ErrMissingAPIKey)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	tool := tools.SerperDevTool{APIKey: "wrong", BaseURL: server.URL, HTTPClient: testHTTPClient()}
	_, err = tool.Search(t.Context(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403: bad key")
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")

	_, err = tool.Search(t.Context(), "   ")
	assert.Error(t, err)
}

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, `{"organic":[{"title":"T","link":"L","snippet":"S"}]}`)
	}))
	t.Cleanup(server.Close)

	tool := tools.SerperDevTool{APIKey: "k", BaseURL: server.URL, HTTPClient: testHTTPClient()}
	out, err := tool.Search(t.Context(), "q")
	require.NoError(t, err)
	assert.Contains(t, out, "Title: T")
	assert.Equal(t, int32(2), calls.Load())
}

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Market Update</title><style>body { color: red; }</style></head>
<body>
  <script>var tracking = "do not read";</script>
  <noscript>Enable JavaScript</noscript>
  <!-- a comment -->
  <h1>MSFT   rallies</h1>
  <p>Shares rose
     sharply <b>today</b>.</p>
</body>
</html>`

func TestExtractText(t *testing.T) {
	text, err := tools.ExtractText(strings.NewReader(samplePage))
	require.NoError(t, err)
	assert.Equal(t, "Market Update MSFT rallies Shares rose sharply today .", text)
}

func TestScrapeWebsite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = fmt.Fprint(w, samplePage)
		case "/empty":
			_, _ = fmt.Fprint(w, "<html><body><script>x()</script></body></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	scraper := tools.ScrapeWebsiteTool{HTTPClient: testHTTPClient()}

	out, err := scraper.Scrape(t.Context(), server.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "Market Update MSFT rallies Shares rose sharply today .", out)

	short := tools.ScrapeWebsiteTool{MaxContentLength: 13, HTTPClient: testHTTPClient()}
	out, err = short.Scrape(t.Context(), server.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "Market Update\n[content truncated]", out)

	_, err = scraper.Scrape(t.Context(), server.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")

	_, err = scraper.Scrape(t.Context(), server.URL+"/empty")
	assert.ErrorContains(t, err, "no readable content")

	_, err = scraper.Scrape(t.Context(), "file:///etc/passwd")
	assert.ErrorContains(t, err, "only http and https")

	tool := scraper.Tool()
	assert.Equal(t, tools.ScrapeToolName, tool.ToolName())
	out, err = tool.Invoke(t.Context(), fmt.Sprintf(`{"website_url":%q}`, server.URL+"/page"))
	require.NoError(t, err)
	assert.Contains(t, out, "MSFT rallies")
}
