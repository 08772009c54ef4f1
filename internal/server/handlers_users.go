package server

import (
	"fmt"
	"net/http"

	"sketch-relay/internal/game"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		s.writeFailure(w, fmt.Errorf("%w: invalid request body", game.ErrValidation))
		return
	}
	user, err := s.game.RegisterUser(r.Context(), req.Username)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.log.Infow("user registered", "user", user.ID, "username", user.Username)
	writeOK(w, map[string]any{
		"userId": user.ID,
		"apiKey": user.APIKey,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		APIKey   string `json:"apiKey"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		s.writeFailure(w, fmt.Errorf("%w: invalid request body", game.ErrValidation))
		return
	}
	user, err := s.game.Login(r.Context(), req.Username, req.APIKey)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeOK(w, map[string]any{
		"userId": user.ID,
	})
}
