// Package webscrape fetches competitor page content for analysis. A
// scrape never fails the caller: every request yields a Result, marked
// unsuccessful when the page could not be fetched.
package webscrape

import (
	"context"
	"log"
)

// MaxContentChars bounds the extracted page content handed to the LLM.
const MaxContentChars = 5000

type Result struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

type Scraper interface {
	Scrape(ctx context.Context, url string) Result
}

// ScrapeMultiple scrapes sequentially up to max URLs. The returned slice
// is 1:1 with the URLs actually attempted.
func ScrapeMultiple(ctx context.Context, s Scraper, urls []string, max int) []Result {
	if max <= 0 {
		max = 5
	}
	if len(urls) > max {
		urls = urls[:max]
	}
	results := make([]Result, 0, len(urls))
	for _, url := range urls {
		results = append(results, s.Scrape(ctx, url))
	}
	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}
	log.Printf("webscrape batch_done scraped=%d successful=%d", len(results), successful)
	return results
}

func failure(url string, err error) Result {
	log.Printf("webscrape scrape_failed url=%q err=%q", url, err.Error())
	return Result{URL: url, Success: false, Error: err.Error()}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
