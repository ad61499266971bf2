// Package httpapi exposes the validation, comment analysis, and
// reporting workflows over HTTP with cookie-based sessions.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mcalder/venturelens/internal/comments"
	"github.com/mcalder/venturelens/internal/docstore"
	"github.com/mcalder/venturelens/internal/finalreport"
	"github.com/mcalder/venturelens/internal/ideascout"
	"github.com/mcalder/venturelens/internal/validation"
)

const (
	sessionKeyUID   = "uid"
	sessionKeyEmail = "email"
	sessionKeyName  = "name"
)

// Validator runs the idea validation workflow.
type Validator interface {
	Run(ctx context.Context, input validation.IdeaSubmission) (validation.Report, error)
}

// CommentAnalyzer reads audience reaction to a fetched post.
type CommentAnalyzer interface {
	Analyze(ctx context.Context, post comments.Post, priorIdeas []comments.PriorIdea) (comments.Analysis, error)
}

// FinalReporter builds the combined verdict report.
type FinalReporter interface {
	Status(ctx context.Context, uid string) (finalreport.Status, error)
	Generate(ctx context.Context, uid string) (finalreport.Result, error)
}

// IdeaScout suggests where to post an idea for feedback.
type IdeaScout interface {
	Analyze(ctx context.Context, idea string) (ideascout.Result, error)
}

type Config struct {
	Sessions  *scs.SessionManager
	Verifier  TokenVerifier
	Store     docstore.Store
	Validator Validator
	Fetcher   comments.Fetcher
	Analyzer  CommentAnalyzer
	Finals    FinalReporter
	Scout     IdeaScout
}

type Server struct {
	sessions  *scs.SessionManager
	verifier  TokenVerifier
	store     docstore.Store
	validator Validator
	fetcher   comments.Fetcher
	analyzer  CommentAnalyzer
	finals    FinalReporter
	scout     IdeaScout
	markdown  goldmark.Markdown
}

func NewServer(cfg Config) http.Handler {
	s := &Server{
		sessions:  cfg.Sessions,
		verifier:  cfg.Verifier,
		store:     cfg.Store,
		validator: cfg.Validator,
		fetcher:   cfg.Fetcher,
		analyzer:  cfg.Analyzer,
		finals:    cfg.Finals,
		scout:     cfg.Scout,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/analyze-idea", s.handleAnalyzeIdea)
	mux.HandleFunc("GET /api/final/status", s.handleFinalStatus)
	mux.HandleFunc("POST /api/generate-final-report", s.handleGenerateFinalReport)
	mux.HandleFunc("GET /api/my/ideas", s.handleMyCollection(docstore.SubIdeas))
	mux.HandleFunc("GET /api/my/summaries", s.handleMyCollection(docstore.SubAISummaries))
	mux.HandleFunc("GET /api/my/comment-summaries", s.handleMyCollection(docstore.SubCommentSummaries))
	mux.HandleFunc("GET /api/my/final-reports", s.handleMyCollection(docstore.SubFinalReports))
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)
	mux.HandleFunc("DELETE /api/reports/{id}", s.handleDeleteReport)
	mux.HandleFunc("GET /api/reports/{id}/html", s.handleReportHTML)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	if s.sessions != nil {
		return s.sessions.LoadAndSave(mux)
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func decodeJSONBytes(blob []byte, dst any) error {
	return json.Unmarshal(blob, dst)
}

// currentUID returns the session user, writing a 401 when absent.
func (s *Server) currentUID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := s.sessions.GetString(r.Context(), sessionKeyUID)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	return uid, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
