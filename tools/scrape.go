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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nlpodyssey/trading-crew-go/crew"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	ScrapeToolName          = "read_website_content"
	DefaultMaxContentLength = 20000
	maxPageBytes            = 5 << 20
	truncatedMarker         = "\n[content truncated]"
	scrapeUserAgent         = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// ScrapeWebsiteTool downloads a page and returns its visible text.
type ScrapeWebsiteTool struct {
	// Maximum number of characters returned. Defaults to DefaultMaxContentLength.
	MaxContentLength int

	// Defaults to NewHTTPClient with the default timeout.
	HTTPClient *http.Client
}

type ScrapeArgs struct {
	WebsiteURL string `json:"website_url" jsonschema_description:"Mandatory website url to read the file"`
}

// Tool wraps the scraper as a crew tool.
func (t ScrapeWebsiteTool) Tool() crew.FunctionTool {
	return crew.NewFunctionTool(
		ScrapeToolName,
		"A tool that can be used to read a website content.",
		func(ctx context.Context, args ScrapeArgs) (string, error) {
			return t.Scrape(ctx, args.WebsiteURL)
		},
	)
}

func (t ScrapeWebsiteTool) Scrape(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid website url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported website url %q: only http and https are allowed", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := httpClientOrDefault(t.HTTPClient).Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch website: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch website: status %d", resp.StatusCode)
	}

	text, err := ExtractText(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("the website has no readable content")
	}

	limit := t.MaxContentLength
	if limit <= 0 {
		limit = DefaultMaxContentLength
	}
	return truncate(text, limit), nil
}

// ExtractText returns the visible text of an HTML document, with runs of
// whitespace collapsed to single spaces.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(sb.String()), " "), nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncatedMarker
}
