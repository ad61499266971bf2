// Package ideascout finds places to post an idea for early feedback: a
// storytelling draft, matching subreddits, and X communities/accounts.
package ideascout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcalder/venturelens/internal/llm"
)

const (
	DefaultRedditBaseURL = "https://www.reddit.com"
	redditUserAgent      = "IdeaValidatorBot/0.1"

	// maxSubreddits bounds the combined subreddit list across keywords.
	maxSubreddits = 10
	// maxDescriptionChars keeps subreddit descriptions to one line.
	maxDescriptionChars = 180
)

type Subreddit struct {
	Name        string `json:"name"`
	Members     int    `json:"members"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

type XCommunity struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	PostingAngle string `json:"posting_angle"`
}

type XAccount struct {
	Handle      string `json:"handle"`
	Name        string `json:"name"`
	WhyRelevant string `json:"why_relevant"`
}

type XTargets struct {
	Communities []XCommunity `json:"communities"`
	Accounts    []XAccount   `json:"accounts"`
}

// Result is the full scouting output for one idea.
type Result struct {
	Idea       string      `json:"idea"`
	StoryPost  string      `json:"story_post"`
	Keywords   []string    `json:"keywords"`
	RedditSubs []Subreddit `json:"reddit_subs"`
	XTargets   XTargets    `json:"x_results"`
}

// SubredditSearcher finds communities matching a keyword.
type SubredditSearcher interface {
	SearchSubreddits(ctx context.Context, keyword string, limit int) ([]Subreddit, error)
}

type Scout struct {
	exec     *llm.Executor
	searcher SubredditSearcher
}

func NewScout(exec *llm.Executor, searcher SubredditSearcher) *Scout {
	return &Scout{exec: exec, searcher: searcher}
}

func (s *Scout) Analyze(ctx context.Context, idea string) (Result, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return Result{}, fmt.Errorf("idea is required")
	}

	story, _, err := s.exec.RunText(ctx, "story_post", storyPrompt(idea))
	if err != nil {
		return Result{}, err
	}

	keywords := s.keywords(ctx, idea)
	subs := s.collectSubreddits(ctx, keywords)
	targets := s.xTargets(ctx, idea)

	return Result{
		Idea:       idea,
		StoryPost:  story,
		Keywords:   keywords,
		RedditSubs: subs,
		XTargets:   targets,
	}, nil
}

// keywords asks for a comma-separated list and dedupes it preserving
// order. A failed call yields no keywords rather than an error.
func (s *Scout) keywords(ctx context.Context, idea string) []string {
	raw, _, err := s.exec.RunText(ctx, "keywords", keywordsPrompt(idea))
	if err != nil {
		log.Printf("ideascout keywords_failed err=%q", err.Error())
		return []string{}
	}
	return ParseKeywords(raw)
}

// ParseKeywords splits a comma-separated keyword list, trimming blanks
// and deduping case-insensitively while preserving order.
func ParseKeywords(raw string) []string {
	parts := strings.Split(strings.ReplaceAll(raw, "\n", " "), ",")
	seen := map[string]bool{}
	unique := []string{}
	for _, p := range parts {
		k := strings.TrimSpace(p)
		if k == "" {
			continue
		}
		low := strings.ToLower(k)
		if seen[low] {
			continue
		}
		seen[low] = true
		unique = append(unique, k)
	}
	return unique
}

func (s *Scout) collectSubreddits(ctx context.Context, keywords []string) []Subreddit {
	all := []Subreddit{}
	seenNames := map[string]bool{}
	for _, kw := range keywords {
		subs, err := s.searcher.SearchSubreddits(ctx, kw, 5)
		if err != nil {
			log.Printf("ideascout subreddit_search_failed keyword=%q err=%q", kw, err.Error())
			continue
		}
		for _, sub := range subs {
			key := strings.ToLower(sub.Name)
			if !seenNames[key] {
				seenNames[key] = true
				all = append(all, sub)
			}
			if len(all) >= maxSubreddits {
				return all
			}
		}
	}
	return all
}

// xTargets degrades to empty lists when the model cannot produce
// usable JSON.
func (s *Scout) xTargets(ctx context.Context, idea string) XTargets {
	out := XTargets{}
	_, err := s.exec.RunJSON(ctx, "x_targets", xTargetsPrompt(idea), &out, nil)
	if err != nil {
		log.Printf("ideascout x_targets_failed err=%q", err.Error())
	}
	if out.Communities == nil {
		out.Communities = []XCommunity{}
	}
	if out.Accounts == nil {
		out.Accounts = []XAccount{}
	}
	return out
}

// RedditDirectory implements SubredditSearcher against Reddit's public
// subreddit search endpoint.
type RedditDirectory struct {
	baseURL    string
	httpClient *http.Client
}

func NewRedditDirectory(baseURL string, httpClient *http.Client) *RedditDirectory {
	if baseURL == "" {
		baseURL = DefaultRedditBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RedditDirectory{baseURL: baseURL, httpClient: httpClient}
}

type subredditSearchResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				DisplayNamePrefixed string `json:"display_name_prefixed"`
				Subscribers         int    `json:"subscribers"`
				PublicDescription   string `json:"public_description"`
				Title               string `json:"title"`
				URL                 string `json:"url"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (d *RedditDirectory) SearchSubreddits(ctx context.Context, keyword string, limit int) ([]Subreddit, error) {
	params := url.Values{
		"q":               {keyword},
		"limit":           {fmt.Sprintf("%d", limit)},
		"include_over_18": {"on"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(d.baseURL, "/")+"/subreddits/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", redditUserAgent)
	req.Header.Set("Accept", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code: %d", res.StatusCode)
	}

	var parsed subredditSearchResponse
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, err
	}

	results := []Subreddit{}
	for _, child := range parsed.Data.Children {
		c := child.Data
		if c.DisplayNamePrefixed == "" {
			continue
		}
		description := c.PublicDescription
		if description == "" {
			description = c.Title
		}
		description = strings.TrimSpace(strings.ReplaceAll(description, "\n", " "))
		if len(description) > maxDescriptionChars {
			description = description[:maxDescriptionChars-3] + "..."
		}
		path := c.URL
		if path == "" {
			path = "/" + c.DisplayNamePrefixed + "/"
		}
		results = append(results, Subreddit{
			Name:        c.DisplayNamePrefixed,
			Members:     c.Subscribers,
			Description: description,
			Link:        "https://www.reddit.com" + path,
		})
	}
	return results, nil
}

var _ SubredditSearcher = (*RedditDirectory)(nil)
