package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxPromptLength = 280

// ArtifactValidator checks that an artifact reference points at the external
// generation service's storage domain. The check lives at the boundary; the
// ledger only invokes it.
type ArtifactValidator func(ref string) error

// Ledger records one relay artifact per (room, round, author) and is the
// read path for "did seat X submit in round Y".
type Ledger struct {
	store       Store
	validateRef ArtifactValidator
	now         func() time.Time
}

func NewLedger(store Store, validateRef ArtifactValidator) *Ledger {
	return &Ledger{store: store, validateRef: validateRef, now: timeNowUTC}
}

// Submit records the author's artifact for the given round. The round the
// client believes it is submitting for must still be the room's active
// round: after an advance, a stale submit is rejected rather than silently
// attributed to the new round.
func (l *Ledger) Submit(ctx context.Context, room *Room, round int, authorID, prompt, artifactRef string) error {
	if prompt == "" || len(prompt) > maxPromptLength {
		return fmt.Errorf("%w: prompt must be 1-%d characters", ErrValidation, maxPromptLength)
	}
	if err := l.validateRef(artifactRef); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !room.Guessing() {
		return fmt.Errorf("%w: no active round to submit to", ErrConflict)
	}
	if round != *room.CurrentRound {
		return fmt.Errorf("%w: round %d is already closed", ErrConflict, round)
	}
	entry := &Entry{
		ID:          uuid.NewString(),
		RoomID:      room.ID,
		RoundNumber: round,
		AuthorID:    authorID,
		Prompt:      prompt,
		ArtifactRef: artifactRef,
		CreatedAt:   l.now(),
	}
	return l.store.CreateEntry(ctx, entry)
}

func (l *Ledger) Get(ctx context.Context, roomID string, round int, authorID string) (*Entry, error) {
	return l.store.GetEntry(ctx, roomID, round, authorID)
}

// SummaryByRound groups the room's entries by round, each round's entries in
// insertion order. Only meaningful once the room is finished.
func (l *Ledger) SummaryByRound(ctx context.Context, room *Room) (map[int][]Entry, error) {
	if !room.Finished() {
		return nil, fmt.Errorf("%w: the game is not finished yet", ErrConflict)
	}
	entries, err := l.store.ListEntries(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	grouped := make(map[int][]Entry, len(entries))
	for _, entry := range entries {
		grouped[entry.RoundNumber] = append(grouped[entry.RoundNumber], entry)
	}
	return grouped, nil
}
