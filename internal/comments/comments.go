// Package comments fetches audience feedback threads from Reddit and
// X, and analyzes the reaction to a posted idea.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformReddit  Platform = "reddit"
	PlatformTwitter Platform = "twitter"
)

var ErrUnknownPlatform = errors.New("could not detect platform from URL")

// DetectPlatform inspects the post URL host.
func DetectPlatform(url string) (Platform, error) {
	u := strings.ToLower(url)
	switch {
	case strings.Contains(u, "reddit.com"), strings.Contains(u, "redd.it"):
		return PlatformReddit, nil
	case strings.Contains(u, "twitter.com"), strings.Contains(u, "x.com"):
		return PlatformTwitter, nil
	default:
		return "", ErrUnknownPlatform
	}
}

// Comment is a single reply, normalized across platforms. Score holds
// upvotes on Reddit and likes on X.
type Comment struct {
	Author   string `json:"author"`
	Username string `json:"username,omitempty"`
	Body     string `json:"body"`
	Score    int    `json:"score"`
	Created  string `json:"created_utc"`
}

// Post is a fetched thread with its replies.
type Post struct {
	Platform       Platform  `json:"platform"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Subreddit      string    `json:"subreddit,omitempty"`
	AuthorName     string    `json:"author_name,omitempty"`
	AuthorUsername string    `json:"author_username,omitempty"`
	Likes          int       `json:"likes"`
	ViewCount      string    `json:"view_count,omitempty"`
	TotalComments  int       `json:"total_comments"`
	Comments       []Comment `json:"comments"`
	URL            string    `json:"url"`
}

type Fetcher interface {
	FetchPost(ctx context.Context, url string) (Post, error)
}

// Client routes a post URL to the right platform fetcher.
type Client struct {
	reddit  Fetcher
	twitter Fetcher
}

func NewClient(reddit, twitter Fetcher) *Client {
	return &Client{reddit: reddit, twitter: twitter}
}

func (c *Client) FetchPost(ctx context.Context, url string) (Post, error) {
	platform, err := DetectPlatform(url)
	if err != nil {
		return Post{}, err
	}
	switch platform {
	case PlatformReddit:
		if c.reddit == nil {
			return Post{}, fmt.Errorf("reddit fetcher not configured")
		}
		return c.reddit.FetchPost(ctx, url)
	case PlatformTwitter:
		if c.twitter == nil {
			return Post{}, fmt.Errorf("twitter fetcher not configured")
		}
		return c.twitter.FetchPost(ctx, url)
	}
	return Post{}, ErrUnknownPlatform
}

var _ Fetcher = (*Client)(nil)
