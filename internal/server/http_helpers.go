package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"sketch-relay/internal/game"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeOK wraps the payload in the uniform success envelope.
func writeOK(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{
		"success": true,
		"message": "OK",
	}
	for key, value := range payload {
		body[key] = value
	}
	writeJSON(w, http.StatusOK, body)
}

// writeFailure maps the error taxonomy onto a status code and the failure
// envelope. Clients are expected to retry on their next poll for everything
// except Forbidden.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError && s.log != nil {
		s.log.Errorw("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": err.Error(),
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, game.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
