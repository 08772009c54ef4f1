package game

import "time"

// RoomCapacity is the hard player limit per room.
const RoomCapacity = 10

// FinishedRound is the sentinel stored in CurrentRound once the final round
// has elapsed. A nil CurrentRound means the room is still waiting to start.
const FinishedRound = -1

type Room struct {
	ID            string
	Code          string
	CreatorID     string
	Name          string
	PlayerCount   int
	RoundCount    *int
	CurrentRound  *int
	RoundDeadline *time.Time
	Version       int64
	CreatedAt     time.Time
}

func (r *Room) Waiting() bool {
	return r.CurrentRound == nil
}

func (r *Room) Finished() bool {
	return r.CurrentRound != nil && *r.CurrentRound == FinishedRound
}

func (r *Room) Guessing() bool {
	return r.CurrentRound != nil && *r.CurrentRound >= 1
}

type Player struct {
	UserID       string
	RoomID       string
	PlayerNumber int
	DisplayName  string
	JoinedAt     time.Time
}

type Entry struct {
	ID          string
	RoomID      string
	RoundNumber int
	AuthorID    string
	Prompt      string
	ArtifactRef string
	CreatedAt   time.Time
}

type User struct {
	ID        string
	Username  string
	APIKey    string
	CreatedAt time.Time
}

type Event struct {
	RoomID  string
	Type    string
	Payload map[string]any
	At      time.Time
}

const (
	EventRoomCreated    = "room_created"
	EventPlayerJoined   = "player_joined"
	EventPlayerLeft     = "player_left"
	EventPlayerKicked   = "player_kicked"
	EventRoundStarted   = "round_started"
	EventRoundAdvanced  = "round_advanced"
	EventRoomFinished   = "room_finished"
	EventEntrySubmitted = "entry_submitted"
)
