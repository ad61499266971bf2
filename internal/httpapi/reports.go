package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mcalder/venturelens/internal/docstore"
	"github.com/mcalder/venturelens/internal/validation"
)

const (
	myCollectionLimit = 50
	reportListLimit   = 10
)

// handleMyCollection serves the newest documents from one of the
// user's subcollections.
func (s *Server) handleMyCollection(sub string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := s.currentUID(w, r)
		if !ok {
			return
		}
		docs, err := s.store.Find(r.Context(), docstore.UserCollection(uid, sub), docstore.Query{
			OrderBy: "created_at",
			Desc:    true,
			Limit:   myCollectionLimit,
		})
		if err != nil {
			log.Printf("httpapi list_failed uid=%q sub=%q err=%q", uid, sub, err.Error())
			writeError(w, http.StatusInternalServerError, "could not list documents")
			return
		}
		items := make([]map[string]any, 0, len(docs))
		for _, doc := range docs {
			items = append(items, doc.Body)
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	}
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUID(w, r)
	if !ok {
		return
	}
	docs, err := s.store.Find(r.Context(), docstore.CollectionValidations, docstore.Query{
		Field:   "user_id",
		Equals:  uid,
		OrderBy: "created_at",
		Desc:    true,
		Limit:   reportListLimit,
	})
	if err != nil {
		log.Printf("httpapi list_reports_failed uid=%q err=%q", uid, err.Error())
		writeError(w, http.StatusInternalServerError, "could not list reports")
		return
	}
	reports := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		reports = append(reports, doc.Body)
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports, "count": len(reports)})
}

// loadOwnedReport fetches a validation report and enforces ownership,
// writing the error response itself on failure.
func (s *Server) loadOwnedReport(w http.ResponseWriter, r *http.Request, uid string) (docstore.Document, bool) {
	id := r.PathValue("id")
	doc, err := s.store.Get(r.Context(), docstore.CollectionValidations, id)
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return docstore.Document{}, false
	}
	if err != nil {
		log.Printf("httpapi get_report_failed id=%q err=%q", id, err.Error())
		writeError(w, http.StatusInternalServerError, "could not load report")
		return docstore.Document{}, false
	}
	if owner, _ := doc.Body["user_id"].(string); owner != uid {
		writeError(w, http.StatusForbidden, "You do not have access to this report")
		return docstore.Document{}, false
	}
	return doc, true
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUID(w, r)
	if !ok {
		return
	}
	doc, ok := s.loadOwnedReport(w, r, uid)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc.Body)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUID(w, r)
	if !ok {
		return
	}
	doc, ok := s.loadOwnedReport(w, r, uid)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), docstore.CollectionValidations, doc.ID); err != nil {
		log.Printf("httpapi delete_report_failed id=%q err=%q", doc.ID, err.Error())
		writeError(w, http.StatusInternalServerError, "could not delete report")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": doc.ID})
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUID(w, r)
	if !ok {
		return
	}
	doc, ok := s.loadOwnedReport(w, r, uid)
	if !ok {
		return
	}

	// The stored body is the marshaled report plus ownership fields;
	// the extra fields are ignored on the way back in.
	var report validation.Report
	b, _ := json.Marshal(doc.Body)
	if err := json.Unmarshal(b, &report); err != nil {
		writeError(w, http.StatusInternalServerError, "could not render report")
		return
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(validation.ReportMarkdown(report)), &buf); err != nil {
		log.Printf("httpapi render_report_failed id=%q err=%q", doc.ID, err.Error())
		writeError(w, http.StatusInternalServerError, "could not render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
