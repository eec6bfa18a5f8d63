// Package websearch wraps the Tavily search API. Discovery grounds its
// attraction prompts in these snippets so suggestions reflect places that
// exist rather than model inventions.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/FACorreiaa/go-travel-planner/internal/api"
)

const (
	defaultSearchBaseURL = "https://api.tavily.com"
	defaultMaxResults    = 5
)

// Result is one scored snippet from a web search.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Client calls the Tavily /search endpoint.
type Client struct {
	http    *api.HTTPClient
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient builds a search client. The API key is read from TAVILY_API_KEY
// when apiKey is empty.
func NewClient(httpClient *api.HTTPClient, apiKey string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("websearch: missing TAVILY_API_KEY")
	}
	if httpClient == nil {
		httpClient = api.NewHTTPClient(0, 0, 0, "")
	}
	return &Client{
		http:    httpClient,
		baseURL: defaultSearchBaseURL,
		apiKey:  apiKey,
		logger:  logger.With(slog.String("client", "tavily")),
	}, nil
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search runs one query and returns up to maxResults snippets.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	req := searchRequest{
		APIKey:     c.apiKey,
		Query:      query,
		MaxResults: maxResults,
	}

	var resp searchResponse
	if err := c.http.PostJSON(ctx, c.baseURL+"/search", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("web search %q: %w", query, err)
	}

	c.logger.DebugContext(ctx, "Web search completed",
		slog.String("query", query),
		slog.Int("results", len(resp.Results)))
	return resp.Results, nil
}

// SnippetBlock renders results as a compact text block for prompt grounding.
// Returns an empty string when there is nothing usable.
func SnippetBlock(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		title := strings.TrimSpace(r.Title)
		content := strings.TrimSpace(r.Content)
		if title == "" && content == "" {
			continue
		}
		switch {
		case title == "":
			fmt.Fprintf(&b, "- %s\n", content)
		case content == "":
			fmt.Fprintf(&b, "- %s\n", title)
		default:
			fmt.Fprintf(&b, "- %s: %s\n", title, content)
		}
	}
	return strings.TrimSpace(b.String())
}
