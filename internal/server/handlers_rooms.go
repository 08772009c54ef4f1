package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sketch-relay/internal/game"
)

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	user, err := s.caller(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		s.writeFailure(w, fmt.Errorf("%w: invalid request body", game.ErrValidation))
		return
	}
	room, err := s.game.CreateRoom(r.Context(), user.ID, req.Name)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.metrics.RoomsCreated.Inc()
	s.log.Infow("room created", "room", room.ID, "code", room.Code, "creator", user.ID)
	writeOK(w, map[string]any{
		"code":   room.Code,
		"roomId": room.ID,
	})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	user, err := s.caller(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		s.writeFailure(w, fmt.Errorf("%w: invalid request body", game.ErrValidation))
		return
	}
	room, number, err := s.game.JoinRoom(r.Context(), user.ID, req.Code)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.metrics.PlayersJoined.Inc()
	s.log.Infow("player joined", "room", room.ID, "user", user.ID, "number", number)
	writeOK(w, map[string]any{
		"code":         room.Code,
		"roomId":       room.ID,
		"playerNumber": number,
	})
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	user, err := s.caller(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if err := s.game.LeaveRoom(r.Context(), user.ID); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleKickPlayer(w http.ResponseWriter, r *http.Request) {
	user, err := s.caller(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	var req struct {
		UserID string `json:"userId"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		s.writeFailure(w, fmt.Errorf("%w: invalid request body", game.ErrValidation))
		return
	}
	if err := s.game.KickPlayer(r.Context(), user.ID, req.UserID); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleStartRoom(w http.ResponseWriter, r *http.Request) {
	user, err := s.caller(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	code := r.PathValue("code")
	if err := s.game.StartRoom(r.Context(), user.ID, code); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.log.Infow("room started", "code", code, "creator", user.ID)
	writeOK(w, nil)
}

func (s *Server) handlePollRoom(w http.ResponseWriter, r *http.Request) {
	user, err := s.caller(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	result, err := s.game.PollRoom(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if result.Advanced {
		s.metrics.RoundsAdvanced.Inc()
		if result.Finished {
			s.metrics.RoomsFinished.Inc()
		}
	}
	if result.RaceLost {
		s.metrics.TickRacesLost.Inc()
	}
	payload := map[string]any{
		"room":    roomPayload(result.Room),
		"players": playersPayload(result.Players),
	}
	if result.RelayArtifact != "" {
		payload["relayArtifact"] = result.RelayArtifact
	}
	writeOK(w, payload)
}

func (s *Server) handleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	user, err := s.caller(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	var req struct {
		Round       int    `json:"round"`
		Prompt      string `json:"prompt"`
		ArtifactRef string `json:"artifactRef"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		s.writeFailure(w, fmt.Errorf("%w: invalid request body", game.ErrValidation))
		return
	}
	if err := s.game.SubmitEntry(r.Context(), user.ID, r.PathValue("id"), req.Round, req.Prompt, req.ArtifactRef); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.metrics.EntriesSubmitted.Inc()
	writeOK(w, nil)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, err := s.caller(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	grouped, err := s.game.Summary(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	rounds := make(map[string][]map[string]any, len(grouped))
	for round, entries := range grouped {
		list := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			list = append(list, map[string]any{
				"authorId":    entry.AuthorID,
				"prompt":      entry.Prompt,
				"artifactRef": entry.ArtifactRef,
			})
		}
		rounds[strconv.Itoa(round)] = list
	}
	writeOK(w, map[string]any{
		"rounds": rounds,
	})
}

// roomPayload includes the server's current time so clients can render a
// countdown without trusting their own clocks.
func roomPayload(room *game.Room) map[string]any {
	payload := map[string]any{
		"id":          room.ID,
		"code":        room.Code,
		"name":        room.Name,
		"creatorId":   room.CreatorID,
		"playerCount": room.PlayerCount,
		"currentTime": time.Now().UTC().UnixMilli(),
	}
	if room.RoundCount != nil {
		payload["roundCount"] = *room.RoundCount
	}
	if room.CurrentRound != nil {
		payload["currentRound"] = *room.CurrentRound
	}
	if room.RoundDeadline != nil {
		payload["roundDeadline"] = room.RoundDeadline.UTC().Format(time.RFC3339)
	}
	return payload
}

func playersPayload(players []game.Player) []map[string]any {
	list := make([]map[string]any, 0, len(players))
	for _, player := range players {
		list = append(list, map[string]any{
			"playerNumber": player.PlayerNumber,
			"userId":       player.UserID,
			"displayName":  player.DisplayName,
		})
	}
	return list
}
