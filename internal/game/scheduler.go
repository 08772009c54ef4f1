package game

import (
	"context"
	"fmt"
	"time"
)

// TickResult reports the outcome of one lazy evaluation of a room's round
// state. A lost optimistic-concurrency race leaves all fields false: the
// transition happened, just not through this caller.
type TickResult struct {
	Advanced bool
	IsEarly  bool
	IsDone   bool
}

// Scheduler owns the room state machine: WAITING, GUESSING(1..N), FINISHED.
// There are no server-side timers; transitions happen whenever a poll calls
// Tick after a deadline has elapsed, however late that is.
type Scheduler struct {
	store    Store
	timespan time.Duration
	now      func() time.Time
}

func NewScheduler(store Store, timespan time.Duration) *Scheduler {
	return &Scheduler{
		store:    store,
		timespan: timespan,
		now:      timeNowUTC,
	}
}

// Start moves a waiting room into round 1. The round count is fixed to the
// player count at this moment: every player gets exactly one full relay
// cycle, and later joins or leaves do not change it. A lost version race is
// retried against a fresh read, since the bump may have come from a
// concurrent join or leave rather than another start.
func (s *Scheduler) Start(ctx context.Context, room *Room, actorID string) error {
	if room.CreatorID != actorID {
		return fmt.Errorf("%w: only the room creator can start the game", ErrForbidden)
	}
	for attempt := 0; attempt < casAttempts; attempt++ {
		if !room.Waiting() {
			return fmt.Errorf("%w: game already started", ErrConflict)
		}
		count := room.PlayerCount
		first := 1
		deadline := s.now().Add(s.timespan)
		room.RoundCount = &count
		room.CurrentRound = &first
		room.RoundDeadline = &deadline
		ok, err := s.store.UpdateRoom(ctx, room, room.Version)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		fresh, err := s.store.GetRoom(ctx, room.ID)
		if err != nil {
			return err
		}
		*room = *fresh
	}
	return fmt.Errorf("%w: room is busy, try again", ErrConflict)
}

// Tick re-reads the room and advances it if the deadline has elapsed. Safe
// to call from any poller at any time: the version precondition on the
// update guarantees that of k concurrent callers exactly one commits, and
// the rest observe a no-op and simply re-read the room.
func (s *Scheduler) Tick(ctx context.Context, roomID string) (TickResult, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return TickResult{}, err
	}
	return s.tick(ctx, room)
}

func (s *Scheduler) tick(ctx context.Context, room *Room) (TickResult, error) {
	if room.Finished() {
		return TickResult{IsDone: true}, nil
	}
	if room.Waiting() {
		return TickResult{IsEarly: true}, nil
	}
	now := s.now()
	if room.RoundDeadline == nil || now.Before(*room.RoundDeadline) {
		return TickResult{IsEarly: true}, nil
	}

	expected := room.Version
	next := *room.CurrentRound + 1
	done := room.RoundCount == nil || next > *room.RoundCount
	if done {
		finished := FinishedRound
		room.CurrentRound = &finished
		room.RoundDeadline = nil
	} else {
		deadline := now.Add(s.timespan)
		room.CurrentRound = &next
		room.RoundDeadline = &deadline
	}

	ok, err := s.store.UpdateRoom(ctx, room, expected)
	if err != nil {
		return TickResult{}, err
	}
	if !ok {
		// Someone else advanced inside the same window. Not an error; the
		// caller re-reads the authoritative state.
		return TickResult{}, nil
	}
	return TickResult{Advanced: true, IsDone: done}, nil
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
