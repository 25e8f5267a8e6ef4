package web

import (
	"io"
	"net/http"

	"github.com/JonMunkholm/roster/internal/core"
	"github.com/cockroachdb/errors"
)

// settingsResponse is the body of every display-settings reply.
type settingsResponse struct {
	Settings core.DisplaySettings `json:"settings"`
	Success  bool                 `json:"success"`
	Message  string               `json:"message,omitempty"`
}

// handleGetDisplaySettings returns the current display settings.
func (s *Server) handleGetDisplaySettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsResponse{
		Settings: s.service.Settings().Get(),
		Success:  true,
	})
}

// handleUpdateDisplaySettings merges a partial settings update.
func (s *Server) handleUpdateDisplaySettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = &core.ValidationError{
				Field:   "body",
				Code:    "VAL005",
				Message: "request body is too large",
			}
			respondError(w, r, err, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, errors.Wrap(err, "read settings body"), http.StatusBadRequest)
		return
	}

	upd, err := core.ParseSettingsUpdate(body)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	settings, err := s.service.Settings().Update(upd)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		Settings: settings,
		Success:  true,
		Message:  "Display settings updated successfully",
	})
}

// handleResetDisplaySettings restores the configured defaults.
func (s *Server) handleResetDisplaySettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsResponse{
		Settings: s.service.Settings().Reset(),
		Success:  true,
		Message:  "Display settings reset to defaults",
	})
}
