package db

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"size:64;uniqueIndex;not null"`
	APIKey    string    `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type Room struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	Code          string `gorm:"size:12;uniqueIndex;not null"`
	CreatorID     string `gorm:"type:uuid;index;not null"`
	Name          string `gorm:"size:64;not null"`
	PlayerCount   int    `gorm:"not null;default:0"`
	RoundCount    *int
	CurrentRound  *int
	RoundDeadline *time.Time
	Version       int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"not null"`
}

// A user holds at most one seat at a time, and within a room each seat
// number is taken at most once. Seat numbers are never reassigned.
type Player struct {
	ID           uint      `gorm:"primaryKey"`
	RoomID       string    `gorm:"type:uuid;index;not null;uniqueIndex:idx_players_room_number"`
	UserID       string    `gorm:"type:uuid;uniqueIndex;not null"`
	PlayerNumber int       `gorm:"not null;uniqueIndex:idx_players_room_number"`
	JoinedAt     time.Time `gorm:"not null"`
}

type Entry struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	RoomID      string    `gorm:"type:uuid;index;not null;uniqueIndex:idx_entries_room_round_author"`
	RoundNumber int       `gorm:"not null;uniqueIndex:idx_entries_room_round_author"`
	AuthorID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_entries_room_round_author"`
	Prompt      string    `gorm:"size:280;not null"`
	ArtifactRef string    `gorm:"size:512;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    string         `gorm:"type:uuid;index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
