package web

import (
	"net/http"

	"github.com/JonMunkholm/roster/internal/core"
)

// idManagerResponse is the body of GET /api/id-manager.
type idManagerResponse struct {
	Success bool              `json:"success"`
	Stats   core.IDStats      `json:"stats"`
	AllIDs  map[string]string `json:"allIds"`
}

// handleIDStats returns the stored row-key to id assignments.
func (s *Server) handleIDStats(w http.ResponseWriter, r *http.Request) {
	ids := s.service.IDs()
	writeJSON(w, http.StatusOK, idManagerResponse{
		Success: true,
		Stats:   ids.Stats(),
		AllIDs:  ids.All(),
	})
}

// handleClearIDs forgets every stored assignment.
func (s *Server) handleClearIDs(w http.ResponseWriter, r *http.Request) {
	s.service.IDs().Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All stored IDs cleared",
	})
}

// handleConfigStatus reports which upstream settings are present, masked.
func (s *Server) handleConfigStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.NewConfigStatus(s.cfg.Sheets))
}

// handleTestConnection runs the step-by-step upstream diagnosis.
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.TestConnection(r.Context()))
}

// statusResponse is the body of GET /api/status.
type statusResponse struct {
	Source       core.SourceStatus       `json:"source"`
	FetchLimiter core.FetchLimiterStatus `json:"fetchLimiter"`
	StoredIDs    int                     `json:"storedIds"`
	Settings     core.DisplaySettings    `json:"settings"`
}

// handleStatus reports where records currently come from and the state of
// the fetch limiter and id registry.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Source:       s.service.SourceStatus(r.Context()),
		FetchLimiter: s.service.Limiter().Status(),
		StoredIDs:    s.service.IDs().Len(),
		Settings:     s.service.Settings().Get(),
	})
}

// handleHealth is the liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
