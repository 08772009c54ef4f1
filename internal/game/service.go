package game

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxNameLength = 64

// Service composes the roster, ledger, scheduler and relay resolver behind
// the externally exposed operations. It resolves nothing itself beyond
// ordering the calls (identity -> membership/ownership -> delegate) and
// recording lifecycle events.
type Service struct {
	store     Store
	roster    *Roster
	ledger    *Ledger
	scheduler *Scheduler
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewService(store Store, roundTimespan time.Duration, validateRef ArtifactValidator, log *zap.SugaredLogger) *Service {
	return &Service{
		store:     store,
		roster:    NewRoster(store),
		ledger:    NewLedger(store, validateRef),
		scheduler: NewScheduler(store, roundTimespan),
		log:       log,
		now:       timeNowUTC,
	}
}

// setNow pins the clock of every time-dependent collaborator. Test hook.
func (s *Service) setNow(now func() time.Time) {
	s.now = now
	s.scheduler.now = now
	s.roster.now = now
	s.ledger.now = now
}

// RegisterUser creates a user and mints the api key that identifies them
// from then on.
func (s *Service) RegisterUser(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxNameLength {
		return nil, fmt.Errorf("%w: username must be 1-%d characters", ErrValidation, maxNameLength)
	}
	user := &User{
		ID:        uuid.NewString(),
		Username:  username,
		APIKey:    NewAPIKey(),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies a username/api-key pair.
func (s *Service) Login(ctx context.Context, username, apiKey string) (*User, error) {
	user, err := s.store.GetUserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown username or api key", ErrForbidden)
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(user.APIKey), []byte(strings.TrimSpace(apiKey))) != 1 {
		return nil, fmt.Errorf("%w: unknown username or api key", ErrForbidden)
	}
	return user, nil
}

// ResolveCaller maps a presented credential to a user. Any miss is
// Forbidden; the caller learns nothing about which part failed.
func (s *Service) ResolveCaller(ctx context.Context, apiKey string) (*User, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing api key", ErrForbidden)
	}
	user, err := s.store.GetUserByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid api key", ErrForbidden)
		}
		return nil, err
	}
	return user, nil
}

// CreateRoom creates a waiting room with the caller as creator and seat 1.
func (s *Service) CreateRoom(ctx context.Context, creatorID, name string) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: room name must be 1-%d characters", ErrValidation, maxNameLength)
	}
	room := &Room{
		ID:        uuid.NewString(),
		Code:      NewJoinCode(),
		CreatorID: creatorID,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	if _, err := s.roster.Join(ctx, room, creatorID); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, room.ID, EventRoomCreated, map[string]any{
		"code":    room.Code,
		"creator": creatorID,
	})
	return room, nil
}

// JoinRoom resolves the code and seats the caller.
func (s *Service) JoinRoom(ctx context.Context, userID, code string) (*Room, int, error) {
	room, err := s.store.GetRoomByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, 0, err
	}
	number, err := s.roster.Join(ctx, room, userID)
	if err != nil {
		return nil, 0, err
	}
	s.appendEvent(ctx, room.ID, EventPlayerJoined, map[string]any{
		"user":   userID,
		"number": number,
	})
	return room, number, nil
}

// LeaveRoom removes the caller from whichever room they are seated in.
func (s *Service) LeaveRoom(ctx context.Context, userID string) error {
	player, err := s.store.FindPlayerByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: you are not in a room", ErrNotFound)
		}
		return err
	}
	room, err := s.store.GetRoom(ctx, player.RoomID)
	if err != nil {
		return err
	}
	if err := s.roster.Leave(ctx, room, userID); err != nil {
		return err
	}
	s.appendEvent(ctx, room.ID, EventPlayerLeft, map[string]any{"user": userID})
	return nil
}

// KickPlayer removes another player from the caller's room.
func (s *Service) KickPlayer(ctx context.Context, actorID, targetUserID string) error {
	player, err := s.store.FindPlayerByUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: you are not in a room", ErrNotFound)
		}
		return err
	}
	room, err := s.store.GetRoom(ctx, player.RoomID)
	if err != nil {
		return err
	}
	if err := s.roster.Kick(ctx, room, actorID, targetUserID); err != nil {
		return err
	}
	s.appendEvent(ctx, room.ID, EventPlayerKicked, map[string]any{
		"actor":  actorID,
		"target": targetUserID,
	})
	return nil
}

// StartRoom begins round 1 of the room identified by code.
func (s *Service) StartRoom(ctx context.Context, actorID, code string) error {
	room, err := s.store.GetRoomByCode(ctx, normalizeCode(code))
	if err != nil {
		return err
	}
	if err := s.scheduler.Start(ctx, room, actorID); err != nil {
		return err
	}
	s.appendEvent(ctx, room.ID, EventRoundStarted, map[string]any{
		"rounds": room.PlayerCount,
	})
	return nil
}

// LookupRoom resolves a join code without requiring membership. Used by the
// join-QR endpoint.
func (s *Service) LookupRoom(ctx context.Context, code string) (*Room, error) {
	return s.store.GetRoomByCode(ctx, normalizeCode(code))
}

// PollResult is the per-caller view of a room at poll time. RaceLost means
// this poll attempted an advance and another poller committed it first.
type PollResult struct {
	Room          *Room
	Players       []Player
	RelayArtifact string
	Advanced      bool
	Finished      bool
	RaceLost      bool
}

// PollRoom is the lazy heart of the game. Every client polls it; when the
// caller is the room creator and the current deadline has elapsed it runs a
// Tick first, then re-reads the authoritative state (its own commit or the
// winner's) and resolves the relay artifact for the caller's seat.
func (s *Service) PollRoom(ctx context.Context, userID, roomID string) (*PollResult, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	viewer, err := s.store.GetPlayer(ctx, room.ID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: you are not a member of this room", ErrForbidden)
		}
		return nil, err
	}

	result := &PollResult{}
	if room.CreatorID == userID && s.deadlineElapsed(room) {
		tick, err := s.scheduler.tick(ctx, room)
		if err != nil {
			return nil, err
		}
		result.Advanced = tick.Advanced
		result.Finished = tick.Advanced && tick.IsDone
		if tick.Advanced {
			eventType := EventRoundAdvanced
			if tick.IsDone {
				eventType = EventRoomFinished
			}
			s.appendEvent(ctx, room.ID, eventType, map[string]any{
				"round": *room.CurrentRound,
			})
		} else if !tick.IsEarly && !tick.IsDone {
			// Lost the race; pick up the winner's state.
			result.RaceLost = true
			room, err = s.store.GetRoom(ctx, roomID)
			if err != nil {
				return nil, err
			}
		}
	}

	players, err := s.roster.Roster(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	relay, err := s.resolveRelayFor(ctx, room, viewer.PlayerNumber, players)
	if err != nil {
		return nil, err
	}

	result.Room = room
	result.Players = players
	result.RelayArtifact = relay
	return result, nil
}

// SubmitEntry records the caller's artifact for the round they believe is
// active.
func (s *Service) SubmitEntry(ctx context.Context, userID, roomID string, round int, prompt, artifactRef string) error {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetPlayer(ctx, room.ID, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: you are not a member of this room", ErrForbidden)
		}
		return err
	}
	if err := s.ledger.Submit(ctx, room, round, userID, prompt, artifactRef); err != nil {
		return err
	}
	s.appendEvent(ctx, room.ID, EventEntrySubmitted, map[string]any{
		"author": userID,
		"round":  round,
	})
	return nil
}

// Summary returns the finished room's entries grouped by round.
func (s *Service) Summary(ctx context.Context, userID, roomID string) (map[int][]Entry, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetPlayer(ctx, room.ID, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: you are not a member of this room", ErrForbidden)
		}
		return nil, err
	}
	return s.ledger.SummaryByRound(ctx, room)
}

func (s *Service) deadlineElapsed(room *Room) bool {
	return room.Guessing() && room.RoundDeadline != nil && !s.now().Before(*room.RoundDeadline)
}

// resolveRelayFor maps seats back to authors and runs the bounded relay
// walk over the previous round's submissions.
func (s *Service) resolveRelayFor(ctx context.Context, room *Room, viewerSeat int, players []Player) (string, error) {
	if !room.Guessing() || *room.CurrentRound <= 1 {
		return "", nil
	}
	seatToUser := make(map[int]string, len(players))
	maxSeat := 0
	for _, p := range players {
		seatToUser[p.PlayerNumber] = p.UserID
		if p.PlayerNumber > maxSeat {
			maxSeat = p.PlayerNumber
		}
	}
	previous := *room.CurrentRound - 1
	var lookupErr error
	ref, ok := ResolveRelay(viewerSeat, *room.CurrentRound, maxSeat, func(seat int) (string, bool) {
		if lookupErr != nil {
			return "", false
		}
		authorID, seated := seatToUser[seat]
		if !seated {
			return "", false
		}
		entry, err := s.ledger.Get(ctx, room.ID, previous, authorID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				lookupErr = err
			}
			return "", false
		}
		return entry.ArtifactRef, true
	})
	if lookupErr != nil {
		return "", lookupErr
	}
	if !ok {
		return "", nil
	}
	return ref, nil
}

// appendEvent records a lifecycle event. The event log is advisory; a write
// failure is logged, never surfaced to the player.
func (s *Service) appendEvent(ctx context.Context, roomID, eventType string, payload map[string]any) {
	event := &Event{
		RoomID:  roomID,
		Type:    eventType,
		Payload: payload,
		At:      s.now(),
	}
	if err := s.store.AppendEvent(ctx, event); err != nil && s.log != nil {
		s.log.Warnw("failed to append event", "room", roomID, "type", eventType, "error", err)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
