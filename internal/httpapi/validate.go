package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/mcalder/venturelens/internal/docstore"
	"github.com/mcalder/venturelens/internal/validation"
)

// toMap flattens a typed value into the document body shape.
func toMap(v any) map[string]any {
	out := map[string]any{}
	b, err := json.Marshal(v)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUID(w, r)
	if !ok {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var input validation.IdeaSubmission
	if err := decodeJSONBytes(blob, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.validator.Run(r.Context(), input)
	if err != nil {
		log.Printf("httpapi validate_failed uid=%q err=%q", uid, err.Error())
		writeError(w, http.StatusInternalServerError, "Validation failed. Please try again.")
		return
	}

	s.persistValidation(r, uid, input, report)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Validation completed",
		"report_id": report.ID,
		"data":      report,
	})
}

// persistValidation writes the report and its per-user bookkeeping
// documents. Storage failures are logged, not surfaced, so a finished
// validation still reaches the caller.
func (s *Server) persistValidation(r *http.Request, uid string, input validation.IdeaSubmission, report validation.Report) {
	ctx := r.Context()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	email := s.sessions.GetString(ctx, sessionKeyEmail)
	name := s.sessions.GetString(ctx, sessionKeyName)

	body := toMap(report)
	body["user_id"] = uid
	body["user_email"] = email
	body["saved_at"] = now
	if _, err := s.store.Put(ctx, docstore.CollectionValidations, report.ID, body); err != nil {
		log.Printf("httpapi save_validation_failed uid=%q err=%q", uid, err.Error())
	}

	if _, err := s.store.Merge(ctx, docstore.CollectionUsers, uid, map[string]any{
		"email":              email,
		"name":               name,
		"last_validation_at": now,
	}); err != nil {
		log.Printf("httpapi save_user_failed uid=%q err=%q", uid, err.Error())
	}

	ideaID := docstore.NewID()
	if _, err := s.store.Put(ctx, docstore.UserCollection(uid, docstore.SubIdeas), ideaID, map[string]any{
		"idea_id":    ideaID,
		"created_at": now,
		"idea_input": toMap(input),
		"status":     "validated",
	}); err != nil {
		log.Printf("httpapi save_idea_failed uid=%q err=%q", uid, err.Error())
	}

	summaryID := docstore.NewID()
	if _, err := s.store.Put(ctx, docstore.UserCollection(uid, docstore.SubAISummaries), summaryID, map[string]any{
		"summary_id":            summaryID,
		"created_at":            now,
		"idea_ref":              ideaID,
		"startup_validation_id": report.ID,
		"final_summary":         toMap(report.FinalSummary),
	}); err != nil {
		log.Printf("httpapi save_summary_failed uid=%q err=%q", uid, err.Error())
	}
}
