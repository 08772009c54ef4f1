package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestRoom(t *testing.T, store Store, creatorID string, playerCount int) *Room {
	t.Helper()
	ctx := context.Background()
	room := &Room{
		ID:        "room-" + creatorID,
		Code:      "CODE" + creatorID,
		CreatorID: creatorID,
		Name:      "test room",
	}
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	roster := NewRoster(store)
	for i := 0; i < playerCount; i++ {
		userID := creatorID
		if i > 0 {
			userID = "guest-" + creatorID + string(rune('a'+i))
		}
		if _, err := roster.Join(ctx, room, userID); err != nil {
			t.Fatalf("join player %d: %v", i+1, err)
		}
	}
	return room
}

func TestStartFixesRoundCountToPlayerCount(t *testing.T) {
	store := NewMemStore()
	sched := NewScheduler(store, time.Minute)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return base }
	room := newTestRoom(t, store, "u1", 4)

	if err := sched.Start(context.Background(), room, "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	fresh, err := store.GetRoom(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if fresh.RoundCount == nil || *fresh.RoundCount != 4 {
		t.Fatalf("expected round count 4, got %v", fresh.RoundCount)
	}
	if fresh.CurrentRound == nil || *fresh.CurrentRound != 1 {
		t.Fatalf("expected current round 1, got %v", fresh.CurrentRound)
	}
	if fresh.RoundDeadline == nil || !fresh.RoundDeadline.Equal(base.Add(time.Minute)) {
		t.Fatalf("expected deadline %v, got %v", base.Add(time.Minute), fresh.RoundDeadline)
	}
}

func TestStartRejectsNonCreator(t *testing.T) {
	store := NewMemStore()
	sched := NewScheduler(store, time.Minute)
	room := newTestRoom(t, store, "u1", 2)

	err := sched.Start(context.Background(), room, "guest-u1b")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestStartRetriesAfterConcurrentJoin(t *testing.T) {
	store := NewMemStore()
	sched := NewScheduler(store, time.Minute)
	room := newTestRoom(t, store, "u1", 2)
	ctx := context.Background()

	// The creator's client read the room, then another player joined and
	// bumped the version behind its back.
	stale, err := store.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if _, err := NewRoster(store).Join(ctx, room, "late-guest"); err != nil {
		t.Fatalf("late join: %v", err)
	}

	if err := sched.Start(ctx, stale, "u1"); err != nil {
		t.Fatalf("start from stale read: %v", err)
	}

	fresh, _ := store.GetRoom(ctx, room.ID)
	if fresh.RoundCount == nil || *fresh.RoundCount != 3 {
		t.Fatalf("expected round count 3 including the late join, got %v", fresh.RoundCount)
	}
	if fresh.CurrentRound == nil || *fresh.CurrentRound != 1 {
		t.Fatalf("expected round 1, got %v", fresh.CurrentRound)
	}
}

func TestStartTwiceConflicts(t *testing.T) {
	store := NewMemStore()
	sched := NewScheduler(store, time.Minute)
	room := newTestRoom(t, store, "u1", 2)
	ctx := context.Background()

	if err := sched.Start(ctx, room, "u1"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	err := sched.Start(ctx, room, "u1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestTickBeforeDeadlineIsEarly(t *testing.T) {
	store := NewMemStore()
	sched := NewScheduler(store, time.Minute)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return base }
	room := newTestRoom(t, store, "u1", 2)
	ctx := context.Background()

	if err := sched.Start(ctx, room, "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	sched.now = func() time.Time { return base.Add(59 * time.Second) }

	result, err := sched.Tick(ctx, room.ID)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !result.IsEarly || result.Advanced {
		t.Fatalf("expected early no-op, got %+v", result)
	}
}

func TestTickOnWaitingRoomIsEarly(t *testing.T) {
	store := NewMemStore()
	sched := NewScheduler(store, time.Minute)
	room := newTestRoom(t, store, "u1", 2)

	result, err := sched.Tick(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !result.IsEarly {
		t.Fatalf("expected early no-op on waiting room, got %+v", result)
	}
}

func TestTickAdvancesThroughAllRoundsToFinished(t *testing.T) {
	store := NewMemStore()
	sched := NewScheduler(store, time.Minute)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	sched.now = func() time.Time { return now }
	room := newTestRoom(t, store, "u1", 3)
	ctx := context.Background()

	if err := sched.Start(ctx, room, "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	for round := 2; round <= 3; round++ {
		now = now.Add(time.Minute)
		result, err := sched.Tick(ctx, room.ID)
		if err != nil {
			t.Fatalf("tick to round %d: %v", round, err)
		}
		if !result.Advanced || result.IsDone {
			t.Fatalf("expected advance to round %d, got %+v", round, result)
		}
		fresh, _ := store.GetRoom(ctx, room.ID)
		if *fresh.CurrentRound != round {
			t.Fatalf("expected round %d, got %d", round, *fresh.CurrentRound)
		}
	}

	now = now.Add(time.Minute)
	result, err := sched.Tick(ctx, room.ID)
	if err != nil {
		t.Fatalf("final tick: %v", err)
	}
	if !result.Advanced || !result.IsDone {
		t.Fatalf("expected terminal advance, got %+v", result)
	}

	fresh, _ := store.GetRoom(ctx, room.ID)
	if !fresh.Finished() {
		t.Fatalf("expected finished room, got round %v", fresh.CurrentRound)
	}
	if fresh.RoundDeadline != nil {
		t.Fatalf("expected cleared deadline, got %v", fresh.RoundDeadline)
	}

	// Ticking a finished room stays a no-op forever.
	result, err = sched.Tick(ctx, room.ID)
	if err != nil {
		t.Fatalf("tick after finish: %v", err)
	}
	if result.Advanced || !result.IsDone {
		t.Fatalf("expected finished no-op, got %+v", result)
	}
}

func TestConcurrentTicksCommitExactlyOnce(t *testing.T) {
	store := NewMemStore()
	sched := NewScheduler(store, time.Minute)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return base }
	room := newTestRoom(t, store, "u1", 4)
	ctx := context.Background()

	if err := sched.Start(ctx, room, "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	startVersion := roomVersion(t, store, room.ID)
	sched.now = func() time.Time { return base.Add(2 * time.Minute) }

	const pollers = 8
	var wg sync.WaitGroup
	results := make([]TickResult, pollers)
	errs := make([]error, pollers)
	for i := 0; i < pollers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = sched.Tick(ctx, room.ID)
		}(i)
	}
	wg.Wait()

	advanced := 0
	for i := 0; i < pollers; i++ {
		if errs[i] != nil {
			t.Fatalf("tick %d: %v", i, errs[i])
		}
		if results[i].Advanced {
			advanced++
		}
	}
	if advanced != 1 {
		t.Fatalf("expected exactly one winner, got %d", advanced)
	}

	fresh, _ := store.GetRoom(ctx, room.ID)
	if *fresh.CurrentRound != 2 {
		t.Fatalf("expected a single advance to round 2, got %d", *fresh.CurrentRound)
	}
	if fresh.Version != startVersion+1 {
		t.Fatalf("expected one version bump, got %d -> %d", startVersion, fresh.Version)
	}
}

func roomVersion(t *testing.T, store Store, roomID string) int64 {
	t.Helper()
	room, err := store.GetRoom(context.Background(), roomID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	return room.Version
}
