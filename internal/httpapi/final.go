package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/mcalder/venturelens/internal/finalreport"
)

func (s *Server) handleFinalStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUID(w, r)
	if !ok {
		return
	}
	status, err := s.finals.Status(r.Context(), uid)
	if err != nil {
		log.Printf("httpapi final_status_failed uid=%q err=%q", uid, err.Error())
		writeError(w, http.StatusInternalServerError, "could not load status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleGenerateFinalReport(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUID(w, r)
	if !ok {
		return
	}
	result, err := s.finals.Generate(r.Context(), uid)
	if errors.Is(err, finalreport.ErrMissingPrerequisite) {
		writeError(w, http.StatusBadRequest, "Both AI summary and Comment summary are required.")
		return
	}
	if err != nil {
		log.Printf("httpapi final_report_failed uid=%q err=%q", uid, err.Error())
		writeError(w, http.StatusInternalServerError, "Final report generation failed. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "report": result})
}
