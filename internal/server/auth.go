package server

import (
	"fmt"
	"net/http"
	"strings"

	"sketch-relay/internal/game"
)

// caller resolves the requesting user from the X-Api-Key header, falling
// back to the apiKey cookie that browser clients carry.
func (s *Server) caller(r *http.Request) (*game.User, error) {
	key := strings.TrimSpace(r.Header.Get("X-Api-Key"))
	if key == "" {
		if cookie, err := r.Cookie("apiKey"); err == nil {
			key = cookie.Value
		}
	}
	if key == "" {
		return nil, fmt.Errorf("%w: missing api key", game.ErrForbidden)
	}
	return s.game.ResolveCaller(r.Context(), key)
}
