// Package websearch wraps the Serper web-search API. Search failures are
// absorbed at the pipeline boundary: research continues on whatever
// results are available.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://google.serper.dev"

type Hit struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Hit, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("SERPER_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg}, nil
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
}

func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Hit, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	payload, _ := json.Marshal(map[string]any{"q": query, "num": maxResults})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("status code: %d body=%s", res.StatusCode, string(b))
	}

	var parsed serperResponse
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(parsed.Organic))
	for _, item := range parsed.Organic {
		hits = append(hits, Hit{Title: item.Title, Link: item.Link, Snippet: item.Snippet, Position: item.Position})
	}
	return hits, nil
}

// SafeSearch logs and swallows search failures, returning an empty slice
// so research degrades instead of aborting the run.
func SafeSearch(ctx context.Context, s Searcher, query string, maxResults int) []Hit {
	hits, err := s.Search(ctx, query, maxResults)
	if err != nil {
		log.Printf("websearch search_failed query=%q err=%q", query, err.Error())
		return []Hit{}
	}
	return hits
}

// Query builders for the three research angles of an idea validation run.

func CompetitorQuery(ideaName, market string) string {
	return fmt.Sprintf("%s competitors %s startups", ideaName, market)
}

func SolutionsQuery(problem, market string) string {
	return fmt.Sprintf("%s solutions %s apps platforms tools", problem, market)
}

func MarketSizeQuery(market, region string) string {
	return fmt.Sprintf("%s market size %s statistics revenue", market, region)
}

func FoundersQuery(companyName string) string {
	return fmt.Sprintf("%s founders CEO revenue funding", companyName)
}
