package game

import "context"

// Store is the persistence boundary. Reads filter by equality on named
// fields and report a missing row as ErrNotFound, distinct from hard
// failures (which wrap ErrUpstream). The room row carries a version column;
// conditional writes commit only while the stored version still matches the
// expected value, and that compare-and-swap is the single point of
// serialization for round advancement and seat accounting.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByAPIKey(ctx context.Context, apiKey string) (*User, error)
	GetUserByName(ctx context.Context, username string) (*User, error)

	CreateRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, id string) (*Room, error)
	GetRoomByCode(ctx context.Context, code string) (*Room, error)

	// UpdateRoom writes the room's round fields (current round, round count,
	// deadline) and bumps the version, provided the stored version still
	// equals expected. It reports whether the write took effect; a lost race
	// is not an error.
	UpdateRoom(ctx context.Context, room *Room, expected int64) (bool, error)

	// AddPlayer inserts the player row and increments the room's player
	// count in one atomic step guarded by the version precondition. A user
	// already seated anywhere returns ErrConflict.
	AddPlayer(ctx context.Context, room *Room, expected int64, player *Player) (bool, error)

	// RemovePlayer deletes the player row and decrements the player count
	// under the same precondition. Remaining seat numbers are not touched.
	RemovePlayer(ctx context.Context, room *Room, expected int64, userID string) (bool, error)

	GetPlayer(ctx context.Context, roomID, userID string) (*Player, error)
	FindPlayerByUser(ctx context.Context, userID string) (*Player, error)
	ListPlayers(ctx context.Context, roomID string) ([]Player, error)

	// CreateEntry inserts a submission; a second entry for the same
	// (room, round, author) triple returns ErrConflict.
	CreateEntry(ctx context.Context, entry *Entry) error
	GetEntry(ctx context.Context, roomID string, round int, authorID string) (*Entry, error)
	ListEntries(ctx context.Context, roomID string) ([]Entry, error)

	AppendEvent(ctx context.Context, event *Event) error
}
