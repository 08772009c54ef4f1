package game

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// casAttempts bounds the retry loops that race on the room version. The
// values being written depend on the state read (seat numbers on the player
// count, round count on the roster size), so a lost precondition means
// re-reading and recomputing, not blindly rewriting.
const casAttempts = 3

// Roster assigns seats and enforces the capacity and ownership rules around
// membership. Seat numbers only ever grow (max assigned + 1) and are stable
// forever after: a leave or kick never renumbers the players left behind and
// never frees a number for reuse, because reseating mid-game would silently
// reassign relay provenance. The gaps that creates are tolerated by the
// relay walk.
type Roster struct {
	store Store
	now   func() time.Time
}

func NewRoster(store Store) *Roster {
	return &Roster{store: store, now: timeNowUTC}
}

// Join seats the user in the room and returns the assigned player number.
// The player insert and the player-count increment commit together or not
// at all; a partial failure must not leave a seated player uncounted.
func (r *Roster) Join(ctx context.Context, room *Room, userID string) (int, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		if room.PlayerCount >= RoomCapacity {
			return 0, fmt.Errorf("%w: room is full", ErrConflict)
		}
		seat, err := r.nextSeat(ctx, room.ID)
		if err != nil {
			return 0, err
		}
		player := &Player{
			UserID:       userID,
			RoomID:       room.ID,
			PlayerNumber: seat,
			JoinedAt:     r.now(),
		}
		ok, err := r.store.AddPlayer(ctx, room, room.Version, player)
		if err != nil {
			return 0, err
		}
		if ok {
			return player.PlayerNumber, nil
		}
		fresh, err := r.store.GetRoom(ctx, room.ID)
		if err != nil {
			return 0, err
		}
		*room = *fresh
	}
	return 0, fmt.Errorf("%w: room is busy, try again", ErrConflict)
}

// nextSeat returns one past the highest seat ever assigned. The room version
// precondition on the insert makes the read-compute-insert safe: if another
// join lands in between, the insert fails and the caller recomputes.
func (r *Roster) nextSeat(ctx context.Context, roomID string) (int, error) {
	players, err := r.store.ListPlayers(ctx, roomID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, p := range players {
		if p.PlayerNumber > max {
			max = p.PlayerNumber
		}
	}
	return max + 1, nil
}

// Leave removes the user's seat and decrements the player count. Other
// players keep their numbers.
func (r *Roster) Leave(ctx context.Context, room *Room, userID string) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		ok, err := r.store.RemovePlayer(ctx, room, room.Version, userID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		fresh, err := r.store.GetRoom(ctx, room.ID)
		if err != nil {
			return err
		}
		*room = *fresh
	}
	return fmt.Errorf("%w: room is busy, try again", ErrConflict)
}

// Kick removes another player. Only the room creator may kick, and not
// themselves; the creator leaves like everyone else.
func (r *Roster) Kick(ctx context.Context, room *Room, actorID, targetUserID string) error {
	if room.CreatorID != actorID {
		return fmt.Errorf("%w: only the room creator can kick players", ErrForbidden)
	}
	if actorID == targetUserID {
		return fmt.Errorf("%w: you cannot kick yourself", ErrForbidden)
	}
	if _, err := r.store.GetPlayer(ctx, room.ID, targetUserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: player is not in this room", ErrNotFound)
		}
		return err
	}
	return r.Leave(ctx, room, targetUserID)
}

// Roster returns the room's players ordered by seat number.
func (r *Roster) Roster(ctx context.Context, roomID string) ([]Player, error) {
	return r.store.ListPlayers(ctx, roomID)
}
