package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/roster/internal/core"
	"github.com/go-chi/chi/v5"
)

// handleListUsers returns the current records filtered for the viewer role.
// ?refresh=1 asks the upstream for fresh values.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	records := s.service.FetchRecords(r.Context(), parseBoolParam(r, "refresh"))
	writeJSON(w, http.StatusOK, s.service.ViewRecords(r.Context(), records))
}

// handleGetUser returns one record by id.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.FindRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	view := s.service.ViewRecords(r.Context(), []core.Record{rec})
	writeJSON(w, http.StatusOK, view[0])
}

// handleColumns lists every field present in the current records.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	records := s.service.FetchRecords(r.Context(), false)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"columns": core.AvailableColumns(records),
	})
}

// parseBoolParam reports whether a query parameter is set to a true value.
func parseBoolParam(r *http.Request, name string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && b
}
