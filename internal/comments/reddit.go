package comments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const redditUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// RedditFetcher reads a public thread through Reddit's .json listing
// endpoint. No authentication required.
type RedditFetcher struct {
	httpClient *http.Client
}

func NewRedditFetcher(httpClient *http.Client) *RedditFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &RedditFetcher{httpClient: httpClient}
}

// ensureJSONURL appends the .json suffix Reddit uses for its listing
// representation of a thread.
func ensureJSONURL(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", fmt.Errorf("no URL provided")
	}
	if !strings.HasSuffix(url, ".json") {
		url = strings.TrimRight(url, "/") + "/.json"
	}
	return url, nil
}

type redditListing struct {
	Data struct {
		Children []redditThing `json:"children"`
	} `json:"data"`
}

type redditThing struct {
	Kind string `json:"kind"`
	Data struct {
		ID                   string          `json:"id"`
		Title                string          `json:"title"`
		Selftext             string          `json:"selftext"`
		SubredditNamePrefixed string         `json:"subreddit_name_prefixed"`
		ViewCount            *int            `json:"view_count"`
		Author               string          `json:"author"`
		Body                 string          `json:"body"`
		Score                int             `json:"score"`
		CreatedUTC           float64         `json:"created_utc"`
		Replies              json.RawMessage `json:"replies"`
	} `json:"data"`
}

func (f *RedditFetcher) FetchPost(ctx context.Context, url string) (Post, error) {
	jsonURL, err := ensureJSONURL(url)
	if err != nil {
		return Post{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jsonURL, nil)
	if err != nil {
		return Post{}, err
	}
	req.Header.Set("User-Agent", redditUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	res, err := f.httpClient.Do(req)
	if err != nil {
		return Post{}, fmt.Errorf("fetch reddit thread: %w", err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if res.StatusCode >= 400 {
		return Post{}, fmt.Errorf("fetch reddit thread: status code: %d", res.StatusCode)
	}

	// Reddit returns [submission, comments].
	var payload []redditListing
	if err := json.Unmarshal(b, &payload); err != nil {
		return Post{}, fmt.Errorf("parse reddit thread: %w", err)
	}
	if len(payload) < 2 || len(payload[0].Data.Children) == 0 {
		return Post{}, fmt.Errorf("unexpected reddit structure or private post")
	}
	postData := payload[0].Data.Children[0].Data

	comments := []Comment{}
	walkRedditComments(payload[1].Data.Children, &comments)

	viewCount := "Unknown"
	if postData.ViewCount != nil {
		viewCount = fmt.Sprintf("%d", *postData.ViewCount)
	}

	return Post{
		Platform:      PlatformReddit,
		Title:         postData.Title,
		Body:          postData.Selftext,
		Subreddit:     postData.SubredditNamePrefixed,
		ViewCount:     viewCount,
		TotalComments: len(comments),
		Comments:      comments,
		URL:           url,
	}, nil
}

// walkRedditComments flattens the nested comment tree. "more"
// placeholders carry IDs only and are skipped.
func walkRedditComments(items []redditThing, out *[]Comment) {
	for _, item := range items {
		if item.Kind != "t1" {
			continue
		}
		author := item.Data.Author
		if author == "" {
			author = "[deleted]"
		}
		created := ""
		if item.Data.CreatedUTC > 0 {
			created = time.Unix(int64(item.Data.CreatedUTC), 0).UTC().Format("2006-01-02T15:04:05Z")
		}
		*out = append(*out, Comment{
			Author:  author,
			Body:    item.Data.Body,
			Score:   item.Data.Score,
			Created: created,
		})
		// Replies are either a nested listing or an empty string.
		if len(item.Data.Replies) > 0 && item.Data.Replies[0] == '{' {
			var nested redditListing
			if err := json.Unmarshal(item.Data.Replies, &nested); err == nil {
				walkRedditComments(nested.Data.Children, out)
			}
		}
	}
}

var _ Fetcher = (*RedditFetcher)(nil)
