package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/mcalder/venturelens/internal/comments"
	"github.com/mcalder/venturelens/internal/docstore"
	"github.com/mcalder/venturelens/internal/finalreport"
	"github.com/mcalder/venturelens/internal/ideascout"
	"github.com/mcalder/venturelens/internal/validation"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, token string) (User, error) {
	if token != "good-token" {
		return User{}, fmt.Errorf("bad token")
	}
	return User{UID: "u1", Email: "u1@example.com", Name: "Test User"}, nil
}

type fakeValidator struct {
	report validation.Report
	err    error
}

func (f *fakeValidator) Run(_ context.Context, input validation.IdeaSubmission) (validation.Report, error) {
	if f.err != nil {
		return validation.Report{}, f.err
	}
	r := f.report
	r.UserInput = input
	return r, nil
}

type fakeFetcher struct {
	post comments.Post
	err  error
}

func (f *fakeFetcher) FetchPost(_ context.Context, url string) (comments.Post, error) {
	if _, err := comments.DetectPlatform(url); err != nil {
		return comments.Post{}, err
	}
	if f.err != nil {
		return comments.Post{}, f.err
	}
	p := f.post
	p.URL = url
	return p, nil
}

type fakeAnalyzer struct {
	analysis   comments.Analysis
	priorIdeas []comments.PriorIdea
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ comments.Post, priorIdeas []comments.PriorIdea) (comments.Analysis, error) {
	f.priorIdeas = priorIdeas
	return f.analysis, nil
}

type fakeFinals struct {
	status      finalreport.Status
	result      finalreport.Result
	generateErr error
}

func (f *fakeFinals) Status(context.Context, string) (finalreport.Status, error) {
	return f.status, nil
}

func (f *fakeFinals) Generate(context.Context, string) (finalreport.Result, error) {
	if f.generateErr != nil {
		return finalreport.Result{}, f.generateErr
	}
	return f.result, nil
}

type fakeScout struct {
	result ideascout.Result
}

func (f *fakeScout) Analyze(_ context.Context, idea string) (ideascout.Result, error) {
	r := f.result
	r.Idea = idea
	return r, nil
}

type testEnv struct {
	srv      *httptest.Server
	client   *http.Client
	store    docstore.Store
	analyzer *fakeAnalyzer
	finals   *fakeFinals
}

func sampleReport() validation.Report {
	return validation.Report{
		ID: "rep-1",
		ProcessedInput: validation.ProcessedInput{
			IdeaName: "Pet Tracker",
			Market:   "pet care",
		},
		FinalSummary: validation.ValidationSummary{
			Overview:             "Solid idea",
			FeasibilityScore:     70,
			MarketReadinessScore: 65,
			SWOTAnalysis: validation.SWOT{
				Strengths: []string{"s"}, Weaknesses: []string{"w"},
				Opportunities: []string{"o"}, Threats: []string{"t"},
			},
			RiskAnalysis:         []string{"r"},
			Recommendations:      []string{"rec"},
			CompetitiveAdvantage: "adv",
			MarketSizeEstimate:   "large",
		},
		CreatedAt: time.Now().UTC(),
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := docstore.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	analyzer := &fakeAnalyzer{analysis: comments.Analysis{Summary: "people liked it"}}
	finals := &fakeFinals{}

	handler := NewServer(Config{
		Sessions:  scs.New(),
		Verifier:  fakeVerifier{},
		Store:     store,
		Validator: &fakeValidator{report: sampleReport()},
		Fetcher:   &fakeFetcher{post: comments.Post{Platform: comments.PlatformReddit, Title: "Would you use this?", Body: "gps collar"}},
		Analyzer:  analyzer,
		Finals:    finals,
		Scout:     &fakeScout{result: ideascout.Result{StoryPost: "story"}},
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &testEnv{
		srv:      srv,
		client:   &http.Client{Jar: jar},
		store:    store,
		analyzer: analyzer,
		finals:   finals,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	res, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(res.Body)
	payload := map[string]any{}
	_ = json.Unmarshal(blob, &payload)
	return res, payload
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	res, _ := e.do(t, http.MethodPost, "/auth/login", map[string]string{"id_token": "good-token"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", res.StatusCode)
	}
}

func sampleSubmission() map[string]string {
	return map[string]string{
		"idea_name": "Pet Tracker",
		"problem":   "pets get lost",
		"market":    "pet care",
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	env := newTestEnv(t)
	res, payload := env.do(t, http.MethodGet, "/api/health", nil)
	if res.StatusCode != http.StatusOK || payload["status"] != "healthy" {
		t.Fatalf("unexpected health response: %d %v", res.StatusCode, payload)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/validate"},
		{http.MethodPost, "/api/analyze"},
		{http.MethodPost, "/api/analyze-idea"},
		{http.MethodGet, "/api/final/status"},
		{http.MethodPost, "/api/generate-final-report"},
		{http.MethodGet, "/api/my/ideas"},
		{http.MethodGet, "/api/reports"},
		{http.MethodGet, "/api/reports/x"},
	} {
		res, _ := env.do(t, route.method, route.path, nil)
		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, res.StatusCode)
		}
	}
}

func TestLoginRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)
	res, _ := env.do(t, http.MethodPost, "/auth/login", map[string]string{"id_token": "wrong"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	if res, _ := env.do(t, http.MethodPost, "/auth/logout", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("logout status %d", res.StatusCode)
	}
	if res, _ := env.do(t, http.MethodGet, "/api/my/ideas", nil); res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", res.StatusCode)
	}
}

func TestValidatePersistsDocuments(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	res, payload := env.do(t, http.MethodPost, "/api/validate", sampleSubmission())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("validate status %d: %v", res.StatusCode, payload)
	}
	if payload["report_id"] != "rep-1" || payload["success"] != true {
		t.Fatalf("unexpected payload: %v", payload)
	}

	ctx := context.Background()
	doc, err := env.store.Get(ctx, docstore.CollectionValidations, "rep-1")
	if err != nil {
		t.Fatalf("validation doc missing: %v", err)
	}
	if doc.Body["user_id"] != "u1" || doc.Body["user_email"] != "u1@example.com" {
		t.Fatalf("ownership fields missing: %+v", doc.Body)
	}

	userDoc, err := env.store.Get(ctx, docstore.CollectionUsers, "u1")
	if err != nil {
		t.Fatalf("user doc missing: %v", err)
	}
	if userDoc.Body["email"] != "u1@example.com" {
		t.Fatalf("unexpected user doc: %+v", userDoc.Body)
	}

	ideas, err := env.store.Find(ctx, docstore.UserCollection("u1", docstore.SubIdeas), docstore.Query{})
	if err != nil || len(ideas) != 1 {
		t.Fatalf("expected 1 idea doc, got %d (%v)", len(ideas), err)
	}
	if ideas[0].Body["status"] != "validated" {
		t.Fatalf("unexpected idea doc: %+v", ideas[0].Body)
	}

	summaries, err := env.store.Find(ctx, docstore.UserCollection("u1", docstore.SubAISummaries), docstore.Query{})
	if err != nil || len(summaries) != 1 {
		t.Fatalf("expected 1 summary doc, got %d (%v)", len(summaries), err)
	}
	if summaries[0].Body["startup_validation_id"] != "rep-1" {
		t.Fatalf("unexpected summary doc: %+v", summaries[0].Body)
	}
}

func TestValidateRejectsIncompleteSubmission(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	res, payload := env.do(t, http.MethodPost, "/api/validate", map[string]string{"idea_name": "x"})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", res.StatusCode, payload)
	}
}

func TestAnalyzePassesPriorIdeasAndPersists(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	// A prior validation seeds the ideas subcollection.
	if res, _ := env.do(t, http.MethodPost, "/api/validate", sampleSubmission()); res.StatusCode != http.StatusOK {
		t.Fatalf("validate failed")
	}

	res, payload := env.do(t, http.MethodPost, "/api/analyze",
		map[string]string{"url": "https://www.reddit.com/r/startups/comments/abc/post/"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("analyze status %d: %v", res.StatusCode, payload)
	}
	if payload["platform"] != "reddit" {
		t.Fatalf("unexpected platform: %v", payload)
	}
	if len(env.analyzer.priorIdeas) != 1 || env.analyzer.priorIdeas[0].IdeaName != "Pet Tracker" {
		t.Fatalf("unexpected prior ideas: %+v", env.analyzer.priorIdeas)
	}

	docs, err := env.store.Find(context.Background(),
		docstore.UserCollection("u1", docstore.SubCommentSummaries), docstore.Query{})
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected 1 comment summary, got %d (%v)", len(docs), err)
	}
	if docs[0].Body["post_title_preview"] != "Would you use this?" {
		t.Fatalf("unexpected comment summary: %+v", docs[0].Body)
	}
}

func TestAnalyzeRejectsUnknownPlatform(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	res, _ := env.do(t, http.MethodPost, "/api/analyze", map[string]string{"url": "https://example.com/post"})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}

func TestGenerateFinalReportMissingPrerequisites(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.finals.generateErr = finalreport.ErrMissingPrerequisite

	res, payload := env.do(t, http.MethodPost, "/api/generate-final-report", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	if payload["error"] != "Both AI summary and Comment summary are required." {
		t.Fatalf("unexpected error message: %v", payload)
	}
}

func TestReportOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	res, _ := env.do(t, http.MethodGet, "/api/reports/nope", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}

	_, err := env.store.Put(context.Background(), docstore.CollectionValidations, "theirs",
		map[string]any{"user_id": "someone-else"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, _ = env.do(t, http.MethodGet, "/api/reports/theirs", nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.StatusCode)
	}
	res, _ = env.do(t, http.MethodDelete, "/api/reports/theirs", nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 on delete, got %d", res.StatusCode)
	}
}

func TestReportLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	if res, _ := env.do(t, http.MethodPost, "/api/validate", sampleSubmission()); res.StatusCode != http.StatusOK {
		t.Fatalf("validate failed")
	}

	res, payload := env.do(t, http.MethodGet, "/api/reports", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", res.StatusCode)
	}
	if count, _ := payload["count"].(float64); count != 1 {
		t.Fatalf("expected 1 report, got %v", payload["count"])
	}

	res, payload = env.do(t, http.MethodGet, "/api/reports/rep-1", nil)
	if res.StatusCode != http.StatusOK || payload["user_id"] != "u1" {
		t.Fatalf("get report: %d %v", res.StatusCode, payload)
	}

	res, _ = env.do(t, http.MethodDelete, "/api/reports/rep-1", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d", res.StatusCode)
	}
	res, _ = env.do(t, http.MethodGet, "/api/reports/rep-1", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", res.StatusCode)
	}
}

func TestReportHTMLRendersMarkdown(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	if res, _ := env.do(t, http.MethodPost, "/api/validate", sampleSubmission()); res.StatusCode != http.StatusOK {
		t.Fatalf("validate failed")
	}

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/reports/rep-1/html", nil)
	res, err := env.client.Do(req)
	if err != nil {
		t.Fatalf("get html: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("html status %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body, _ := io.ReadAll(res.Body)
	html := string(body)
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "Pet Tracker") {
		t.Fatalf("unexpected html: %q", html)
	}
	// GFM tables render as real table markup.
	if !strings.Contains(html, "<table>") {
		t.Fatalf("expected rendered score table, got: %q", html)
	}
}

func TestMyCollectionsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()
	for i, ts := range []string{"2026-08-01T00:00:00Z", "2026-08-02T00:00:00Z"} {
		_, err := env.store.Put(ctx, docstore.UserCollection("u1", docstore.SubFinalReports), "",
			map[string]any{"report_id": fmt.Sprintf("fr-%d", i), "created_at": ts})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	res, payload := env.do(t, http.MethodGet, "/api/my/final-reports", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", res.StatusCode)
	}
	items, _ := payload["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first, _ := items[0].(map[string]any)
	if first["report_id"] != "fr-1" {
		t.Fatalf("expected newest first, got %v", first)
	}
}

func TestAnalyzeIdea(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	res, payload := env.do(t, http.MethodPost, "/api/analyze-idea", map[string]string{"idea": "gps collar"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("analyze-idea status %d: %v", res.StatusCode, payload)
	}
	result, _ := payload["result"].(map[string]any)
	if result["idea"] != "gps collar" || result["story_post"] != "story" {
		t.Fatalf("unexpected result: %v", result)
	}
}
