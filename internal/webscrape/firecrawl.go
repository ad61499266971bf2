package webscrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultFirecrawlBaseURL = "https://api.firecrawl.dev/v0"

type FirecrawlConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// FirecrawlScraper fetches pages through the hosted Firecrawl API, which
// returns pre-cleaned markdown for the main page content.
type FirecrawlScraper struct {
	cfg FirecrawlConfig
}

func NewFirecrawlScraper(cfg FirecrawlConfig) (*FirecrawlScraper, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("FIRECRAWL_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultFirecrawlBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &FirecrawlScraper{cfg: cfg}, nil
}

type firecrawlResponse struct {
	Data struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"metadata"`
	} `json:"data"`
}

func (f *FirecrawlScraper) Scrape(ctx context.Context, url string) Result {
	payload, _ := json.Marshal(map[string]any{
		"url":             url,
		"formats":         []string{"markdown", "html"},
		"onlyMainContent": true,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(f.cfg.BaseURL, "/")+"/scrape", bytes.NewReader(payload))
	if err != nil {
		return failure(url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.cfg.APIKey)

	res, err := f.cfg.HTTPClient.Do(req)
	if err != nil {
		return failure(url, err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if res.StatusCode >= 400 {
		return failure(url, fmt.Errorf("status code: %d", res.StatusCode))
	}

	var parsed firecrawlResponse
	if err := json.Unmarshal(b, &parsed); err != nil {
		return failure(url, err)
	}
	return Result{
		URL:         url,
		Title:       parsed.Data.Metadata.Title,
		Description: parsed.Data.Metadata.Description,
		Content:     truncate(parsed.Data.Markdown, MaxContentChars),
		Success:     true,
	}
}
