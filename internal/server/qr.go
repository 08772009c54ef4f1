package server

import (
	"fmt"
	"net/http"

	"github.com/skip2/go-qrcode"
)

// handleJoinQR renders the join link for a room as a QR code so a host can
// put it on a shared screen.
func (s *Server) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	room, err := s.game.LookupRoom(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	joinURL := fmt.Sprintf("%s/join/%s", s.cfg.PublicBaseURL, room.Code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
