package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mcalder/venturelens/internal/comments"
	"github.com/mcalder/venturelens/internal/docstore"
)

// maxPreviewChars bounds the post previews stored alongside an
// analysis.
const maxPreviewChars = 400

// maxPriorIdeas is how many of the user's recent ideas the analysis
// prompt gets as context.
const maxPriorIdeas = 3

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUID(w, r)
	if !ok {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	post, err := s.fetcher.FetchPost(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		if errors.Is(err, comments.ErrUnknownPlatform) {
			writeError(w, http.StatusBadRequest, "Only Reddit and X post URLs are supported")
			return
		}
		log.Printf("httpapi fetch_post_failed uid=%q err=%q", uid, err.Error())
		writeError(w, http.StatusBadGateway, "Could not fetch the post")
		return
	}

	priorIdeas := s.loadPriorIdeas(r, uid)
	analysis, err := s.analyzer.Analyze(r.Context(), post, priorIdeas)
	if err != nil {
		log.Printf("httpapi analyze_failed uid=%q err=%q", uid, err.Error())
		writeError(w, http.StatusInternalServerError, "Analysis failed. Please try again.")
		return
	}

	summaryID := docstore.NewID()
	_, err = s.store.Put(r.Context(), docstore.UserCollection(uid, docstore.SubCommentSummaries), summaryID, map[string]any{
		"summary_id":         summaryID,
		"created_at":         time.Now().UTC().Format(time.RFC3339Nano),
		"url":                post.URL,
		"platform":           string(post.Platform),
		"post_title_preview": comments.TruncateAtWord(post.Title, maxPreviewChars),
		"post_body_preview":  comments.TruncateAtWord(post.Body, maxPreviewChars),
		"analysis":           toMap(analysis),
	})
	if err != nil {
		log.Printf("httpapi save_comment_summary_failed uid=%q err=%q", uid, err.Error())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"platform":   post.Platform,
		"post":       post,
		"analysis":   analysis,
		"summary_id": summaryID,
	})
}

// loadPriorIdeas pulls the user's most recent validated ideas for
// prompt context. Failures degrade to no context.
func (s *Server) loadPriorIdeas(r *http.Request, uid string) []comments.PriorIdea {
	docs, err := s.store.Find(r.Context(), docstore.UserCollection(uid, docstore.SubIdeas), docstore.Query{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   maxPriorIdeas,
	})
	if err != nil {
		log.Printf("httpapi load_ideas_failed uid=%q err=%q", uid, err.Error())
		return nil
	}
	ideas := make([]comments.PriorIdea, 0, len(docs))
	for _, doc := range docs {
		input, _ := doc.Body["idea_input"].(map[string]any)
		if input == nil {
			continue
		}
		str := func(key string) string {
			v, _ := input[key].(string)
			return v
		}
		createdAt, _ := doc.Body["created_at"].(string)
		ideas = append(ideas, comments.PriorIdea{
			IdeaName:    str("idea_name"),
			Problem:     str("problem"),
			Solution:    str("solution"),
			KeyFeatures: str("key_features"),
			Uniqueness:  str("uniqueness"),
			CreatedAt:   createdAt,
		})
	}
	return ideas
}

func (s *Server) handleAnalyzeIdea(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUID(w, r)
	if !ok {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var req struct {
		Idea string `json:"idea"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil || strings.TrimSpace(req.Idea) == "" {
		writeError(w, http.StatusBadRequest, "idea is required")
		return
	}

	result, err := s.scout.Analyze(r.Context(), req.Idea)
	if err != nil {
		log.Printf("httpapi analyze_idea_failed uid=%q err=%q", uid, err.Error())
		writeError(w, http.StatusInternalServerError, "Idea analysis failed. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}
