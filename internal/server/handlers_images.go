package server

import (
	"fmt"
	"net/http"

	"sketch-relay/internal/game"
)

func (s *Server) handleQueueImage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.caller(r); err != nil {
		s.writeFailure(w, err)
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		s.writeFailure(w, fmt.Errorf("%w: invalid request body", game.ErrValidation))
		return
	}
	if req.Prompt == "" {
		s.writeFailure(w, fmt.Errorf("%w: prompt is required", game.ErrValidation))
		return
	}
	requestID, err := s.gen.Submit(r.Context(), req.Prompt)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeOK(w, map[string]any{
		"requestId": requestID,
	})
}

func (s *Server) handleImageResult(w http.ResponseWriter, r *http.Request) {
	if _, err := s.caller(r); err != nil {
		s.writeFailure(w, err)
		return
	}
	url, err := s.gen.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	payload := map[string]any{
		"done": url != "",
	}
	if url != "" {
		payload["url"] = url
	}
	writeOK(w, payload)
}
