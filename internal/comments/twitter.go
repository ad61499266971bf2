package comments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const DefaultTwitterBaseURL = "https://api.twitter.com/2"

var tweetIDRe = regexp.MustCompile(`/status/(\d+)`)

// TwitterFetcher reads a tweet and its conversation replies through the
// X v2 API. Replies come from search/recent, which only reaches back
// about 7 days on standard access.
type TwitterFetcher struct {
	bearerToken string
	baseURL     string
	httpClient  *http.Client
}

type TwitterConfig struct {
	BearerToken string
	BaseURL     string
	HTTPClient  *http.Client
}

func NewTwitterFetcher(cfg TwitterConfig) (*TwitterFetcher, error) {
	cfg.BearerToken = strings.TrimSpace(cfg.BearerToken)
	if cfg.BearerToken == "" {
		return nil, errors.New("TWITTER_BEARER_TOKEN not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTwitterBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &TwitterFetcher{bearerToken: cfg.BearerToken, baseURL: cfg.BaseURL, httpClient: cfg.HTTPClient}, nil
}

// extractTweetID pulls the numeric ID from a twitter.com or x.com
// status URL.
func extractTweetID(postURL string) (string, error) {
	m := tweetIDRe.FindStringSubmatch(strings.TrimSpace(postURL))
	if len(m) != 2 {
		return "", fmt.Errorf("could not find tweet ID in URL")
	}
	return m[1], nil
}

type tweetObject struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		LikeCount int `json:"like_count"`
	} `json:"public_metrics"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type tweetResponse struct {
	Data     tweetObject `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
}

type searchResponse struct {
	Data     []tweetObject `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
}

func (f *TwitterFetcher) FetchPost(ctx context.Context, postURL string) (Post, error) {
	tweetID, err := extractTweetID(postURL)
	if err != nil {
		return Post{}, err
	}

	var tweet tweetResponse
	params := url.Values{
		"tweet.fields": {"created_at,public_metrics,author_id"},
		"expansions":   {"author_id"},
		"user.fields":  {"username,name"},
	}
	if err := f.getJSON(ctx, "/tweets/"+tweetID, params, &tweet); err != nil {
		return Post{}, fmt.Errorf("fetch tweet: %w", err)
	}

	var author twitterUser
	if len(tweet.Includes.Users) > 0 {
		author = tweet.Includes.Users[0]
	}

	replies, err := f.fetchReplies(ctx, tweet.Data.ID, 50)
	if err != nil {
		return Post{}, fmt.Errorf("fetch replies: %w", err)
	}

	return Post{
		Platform:       PlatformTwitter,
		Title:          tweet.Data.Text,
		AuthorName:     author.Name,
		AuthorUsername: author.Username,
		Likes:          tweet.Data.PublicMetrics.LikeCount,
		TotalComments:  len(replies),
		Comments:       replies,
		URL:            postURL,
	}, nil
}

func (f *TwitterFetcher) fetchReplies(ctx context.Context, conversationID string, maxResults int) ([]Comment, error) {
	var search searchResponse
	params := url.Values{
		"query":        {fmt.Sprintf("conversation_id:%s -is:retweet", conversationID)},
		"tweet.fields": {"created_at,public_metrics,author_id,conversation_id,in_reply_to_user_id"},
		"expansions":   {"author_id"},
		"user.fields":  {"username,name"},
		"max_results":  {fmt.Sprintf("%d", maxResults)},
	}
	if err := f.getJSON(ctx, "/tweets/search/recent", params, &search); err != nil {
		return nil, err
	}

	userByID := map[string]twitterUser{}
	for _, u := range search.Includes.Users {
		userByID[u.ID] = u
	}

	replies := make([]Comment, 0, len(search.Data))
	for _, t := range search.Data {
		user := userByID[t.AuthorID]
		username := user.Username
		if username == "" {
			username = "unknown"
		}
		replies = append(replies, Comment{
			Author:   user.Name,
			Username: username,
			Body:     t.Text,
			Score:    t.PublicMetrics.LikeCount,
			Created:  t.CreatedAt,
		})
	}
	return replies, nil
}

func (f *TwitterFetcher) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(f.baseURL, "/")+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+f.bearerToken)

	res, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if res.StatusCode >= 400 {
		return fmt.Errorf("status code: %d", res.StatusCode)
	}
	return json.Unmarshal(b, out)
}

var _ Fetcher = (*TwitterFetcher)(nil)
