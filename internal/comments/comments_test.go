package comments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		url      string
		platform Platform
		wantErr  bool
	}{
		{"https://www.reddit.com/r/SideProject/comments/abc/", PlatformReddit, false},
		{"https://redd.it/abc", PlatformReddit, false},
		{"https://twitter.com/user/status/123", PlatformTwitter, false},
		{"https://x.com/user/status/123", PlatformTwitter, false},
		{"https://example.com/post/1", "", true},
	}
	for _, c := range cases {
		got, err := DetectPlatform(c.url)
		if c.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", c.url)
			}
			continue
		}
		if err != nil || got != c.platform {
			t.Fatalf("DetectPlatform(%q) = %q, %v", c.url, got, err)
		}
	}
}

func TestEnsureJSONURL(t *testing.T) {
	got, err := ensureJSONURL("https://www.reddit.com/r/x/comments/1/post/")
	if err != nil || got != "https://www.reddit.com/r/x/comments/1/post/.json" {
		t.Fatalf("unexpected: %q, %v", got, err)
	}
	got, _ = ensureJSONURL("https://www.reddit.com/r/x/comments/1/post/.json")
	if got != "https://www.reddit.com/r/x/comments/1/post/.json" {
		t.Fatalf("json url modified: %q", got)
	}
	if _, err := ensureJSONURL("  "); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

const redditThreadJSON = `[
 {"data":{"children":[{"kind":"t3","data":{"title":"My app idea","selftext":"Feedback wanted","subreddit_name_prefixed":"r/SideProject","view_count":null}}]}},
 {"data":{"children":[
   {"kind":"t1","data":{"id":"c1","author":"alice","body":"Love it","score":12,"created_utc":1756600000,
     "replies":{"data":{"children":[
       {"kind":"t1","data":{"id":"c2","author":"","body":"Same here","score":3,"created_utc":1756600100,"replies":""}}
     ]}}}},
   {"kind":"t1","data":{"id":"c3","author":"bob","body":"Needs work","score":5,"created_utc":1756600200,"replies":""}},
   {"kind":"more","data":{"id":"m1"}}
 ]}}
]`

func TestRedditFetchPostFlattensThread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".json") {
			t.Errorf("expected .json path, got %q", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("missing user agent")
		}
		_, _ = w.Write([]byte(redditThreadJSON))
	}))
	defer srv.Close()

	f := NewRedditFetcher(srv.Client())
	post, err := f.FetchPost(context.Background(), srv.URL+"/r/SideProject/comments/abc/my-app/")
	if err != nil {
		t.Fatalf("FetchPost: %v", err)
	}
	if post.Platform != PlatformReddit || post.Title != "My app idea" || post.Subreddit != "r/SideProject" {
		t.Fatalf("unexpected post: %+v", post)
	}
	if post.ViewCount != "Unknown" {
		t.Fatalf("null view_count should map to Unknown, got %q", post.ViewCount)
	}
	if post.TotalComments != 3 || len(post.Comments) != 3 {
		t.Fatalf("expected 3 flattened comments, got %d", len(post.Comments))
	}
	// Nested reply sits right after its parent; the more placeholder is skipped.
	if post.Comments[0].Author != "alice" || post.Comments[1].Body != "Same here" || post.Comments[2].Author != "bob" {
		t.Fatalf("wrong flattening order: %+v", post.Comments)
	}
	if post.Comments[1].Author != "[deleted]" {
		t.Fatalf("blank author should map to [deleted], got %q", post.Comments[1].Author)
	}
}

func TestExtractTweetID(t *testing.T) {
	id, err := extractTweetID("https://x.com/someone/status/1234567890123456789?s=20")
	if err != nil || id != "1234567890123456789" {
		t.Fatalf("unexpected: %q, %v", id, err)
	}
	if _, err := extractTweetID("https://x.com/someone"); err == nil {
		t.Fatal("expected error without status segment")
	}
}

func TestTwitterFetchPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token: %q", r.Header.Get("Authorization"))
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/tweets/search/recent"):
			q := r.URL.Query().Get("query")
			if !strings.Contains(q, "conversation_id:99") || !strings.Contains(q, "-is:retweet") {
				t.Errorf("unexpected search query: %q", q)
			}
			_, _ = w.Write([]byte(`{"data":[
				{"id":"100","text":"nice","author_id":"u1","created_at":"2026-08-30T10:00:00Z","public_metrics":{"like_count":7}},
				{"id":"101","text":"meh","author_id":"u9","created_at":"2026-08-30T11:00:00Z","public_metrics":{"like_count":1}}
			],"includes":{"users":[{"id":"u1","name":"Alice","username":"alice"}]}}`))
		case strings.HasPrefix(r.URL.Path, "/tweets/99"):
			_, _ = w.Write([]byte(`{"data":{"id":"99","text":"launching my app","author_id":"u0","created_at":"2026-08-29T10:00:00Z","public_metrics":{"like_count":42}},"includes":{"users":[{"id":"u0","name":"Founder","username":"founder"}]}}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	f, err := NewTwitterFetcher(TwitterConfig{BearerToken: "tok", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewTwitterFetcher: %v", err)
	}
	post, err := f.FetchPost(context.Background(), "https://x.com/founder/status/99")
	if err != nil {
		t.Fatalf("FetchPost: %v", err)
	}
	if post.Platform != PlatformTwitter || post.Title != "launching my app" || post.Likes != 42 {
		t.Fatalf("unexpected post: %+v", post)
	}
	if post.AuthorUsername != "founder" {
		t.Fatalf("unexpected author: %+v", post)
	}
	if len(post.Comments) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(post.Comments))
	}
	if post.Comments[0].Username != "alice" || post.Comments[0].Score != 7 {
		t.Fatalf("unexpected reply: %+v", post.Comments[0])
	}
	// Author not present in includes maps to unknown.
	if post.Comments[1].Username != "unknown" {
		t.Fatalf("missing user should map to unknown, got %q", post.Comments[1].Username)
	}
}

func TestNewTwitterFetcherRequiresToken(t *testing.T) {
	if _, err := NewTwitterFetcher(TwitterConfig{}); err == nil {
		t.Fatal("expected error without bearer token")
	}
}

func TestClientRoutesByPlatform(t *testing.T) {
	c := NewClient(nil, nil)
	if _, err := c.FetchPost(context.Background(), "https://example.com/x"); err != ErrUnknownPlatform {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
}
