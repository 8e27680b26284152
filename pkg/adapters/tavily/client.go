// Package tavily implements ports.NewsSearcher with the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/srag/pkg/domain"
)

// DefaultBaseURL is the public search endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// QueryPrefix scopes every search to recent domestic SRAG coverage.
const QueryPrefix = "notícias recentes Síndrome Respiratória Aguda Grave Brasil "

// Item is one search hit as serialized into the news text.
type Item struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Client calls the Tavily search API.
type Client struct {
	APIKey     string
	BaseURL    string
	Depth      string
	MaxResults int
	// MaxRetries bounds the 429 backoff loop.
	MaxRetries int
	client     *http.Client
}

// New constructs a client with a 10 second timeout.
func New(apiKey string) *Client {
	return NewWithClient(apiKey, &http.Client{Timeout: 10 * time.Second})
}

// NewWithClient constructs a client using the supplied HTTP client.
func NewWithClient(apiKey string, client *http.Client) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		Depth:      "basic",
		MaxResults: 5,
		MaxRetries: 3,
		client:     client,
	}
}

// Search implements ports.NewsSearcher. The result is a JSON array of
// Items, or an empty string when nothing was found.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	items, err := c.Items(ctx, query)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Items runs the search and returns at most MaxResults hits.
func (c *Client) Items(ctx context.Context, query string) ([]Item, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("tavily: %w", domain.ErrMissingAPIKey)
	}

	payload, err := json.Marshal(map[string]any{
		"query":        QueryPrefix + strings.TrimSpace(query),
		"api_key":      c.APIKey,
		"search_depth": c.Depth,
		"topic":        "news",
		"max_results":  c.MaxResults,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var response struct {
		Results []Item `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("tavily: invalid response: %w", err)
	}

	out := response.Results
	if c.MaxResults > 0 && len(out) > c.MaxResults {
		out = out[:c.MaxResults]
	}
	return out, nil
}

// post retries on 429, doubling the delay each time.
func (c *Client) post(ctx context.Context, payload []byte) (*http.Response, error) {
	url := strings.TrimRight(c.BaseURL, "/") + "/search"
	delay := time.Second

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.APIKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.MaxRetries {
			return resp, nil
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
}
