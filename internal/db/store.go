package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sketch-relay/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Store is the Postgres-backed implementation of game.Store. The room row's
// version column carries the optimistic-concurrency token: every write that
// matters goes through a WHERE id = ? AND version = ? update and checks
// RowsAffected, so the database is the single point of serialization.
type Store struct {
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

func (s *Store) CreateUser(ctx context.Context, user *game.User) error {
	record := User{
		ID:        user.ID,
		Username:  user.Username,
		APIKey:    user.APIKey,
		CreatedAt: user.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username is taken", game.ErrConflict)
		}
		return upstream(err)
	}
	return nil
}

func (s *Store) GetUserByAPIKey(ctx context.Context, apiKey string) (*game.User, error) {
	var record User
	if err := s.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&record).Error; err != nil {
		return nil, mapLookupErr(err, "user")
	}
	return toUser(&record), nil
}

func (s *Store) GetUserByName(ctx context.Context, username string) (*game.User, error) {
	var record User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&record).Error; err != nil {
		return nil, mapLookupErr(err, "user")
	}
	return toUser(&record), nil
}

func (s *Store) CreateRoom(ctx context.Context, room *game.Room) error {
	record := Room{
		ID:            room.ID,
		Code:          room.Code,
		CreatorID:     room.CreatorID,
		Name:          room.Name,
		PlayerCount:   room.PlayerCount,
		RoundCount:    room.RoundCount,
		CurrentRound:  room.CurrentRound,
		RoundDeadline: room.RoundDeadline,
		Version:       room.Version,
		CreatedAt:     room.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: join code already in use", game.ErrConflict)
		}
		return upstream(err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id string) (*game.Room, error) {
	var record Room
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, mapLookupErr(err, "room")
	}
	return toRoom(&record), nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (*game.Room, error) {
	var record Room
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&record).Error; err != nil {
		return nil, mapLookupErr(err, "room")
	}
	return toRoom(&record), nil
}

func (s *Store) UpdateRoom(ctx context.Context, room *game.Room, expected int64) (bool, error) {
	result := s.db.WithContext(ctx).Model(&Room{}).
		Where("id = ? AND version = ?", room.ID, expected).
		Updates(map[string]any{
			"current_round":  room.CurrentRound,
			"round_count":    room.RoundCount,
			"round_deadline": room.RoundDeadline,
			"version":        expected + 1,
		})
	if result.Error != nil {
		return false, upstream(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	room.Version = expected + 1
	return true, nil
}

func (s *Store) AddPlayer(ctx context.Context, room *game.Room, expected int64, player *game.Player) (bool, error) {
	committed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Room{}).
			Where("id = ? AND version = ?", room.ID, expected).
			Updates(map[string]any{
				"player_count": gorm.Expr("player_count + 1"),
				"version":      expected + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Stale version: the whole attempt is retried by the caller.
			return nil
		}
		record := Player{
			RoomID:       player.RoomID,
			UserID:       player.UserID,
			PlayerNumber: player.PlayerNumber,
			JoinedAt:     player.JoinedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		committed = true
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("%w: already in a room", game.ErrConflict)
		}
		return false, upstream(err)
	}
	if committed {
		room.PlayerCount++
		room.Version = expected + 1
	}
	return committed, nil
}

var errPlayerMissing = errors.New("player missing")

func (s *Store) RemovePlayer(ctx context.Context, room *game.Room, expected int64, userID string) (bool, error) {
	committed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Room{}).
			Where("id = ? AND version = ?", room.ID, expected).
			Updates(map[string]any{
				"player_count": gorm.Expr("player_count - 1"),
				"version":      expected + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted := tx.Where("room_id = ? AND user_id = ?", room.ID, userID).Delete(&Player{})
		if deleted.Error != nil {
			return deleted.Error
		}
		if deleted.RowsAffected == 0 {
			// Roll back the count decrement: there was no seat to remove.
			return errPlayerMissing
		}
		committed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, errPlayerMissing) {
			return false, fmt.Errorf("%w: player", game.ErrNotFound)
		}
		return false, upstream(err)
	}
	if committed {
		room.PlayerCount--
		room.Version = expected + 1
	}
	return committed, nil
}

func (s *Store) GetPlayer(ctx context.Context, roomID, userID string) (*game.Player, error) {
	row, err := s.playerRow(ctx, "players.room_id = ? AND players.user_id = ?", roomID, userID)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Store) FindPlayerByUser(ctx context.Context, userID string) (*game.Player, error) {
	return s.playerRow(ctx, "players.user_id = ?", userID)
}

func (s *Store) playerRow(ctx context.Context, query string, args ...any) (*game.Player, error) {
	var record struct {
		Player
		Username string
	}
	err := s.db.WithContext(ctx).Table("players").
		Select("players.*, users.username").
		Joins("JOIN users ON users.id = players.user_id").
		Where(query, args...).
		Take(&record).Error
	if err != nil {
		return nil, mapLookupErr(err, "player")
	}
	return &game.Player{
		UserID:       record.UserID,
		RoomID:       record.RoomID,
		PlayerNumber: record.PlayerNumber,
		DisplayName:  record.Username,
		JoinedAt:     record.JoinedAt,
	}, nil
}

func (s *Store) ListPlayers(ctx context.Context, roomID string) ([]game.Player, error) {
	var records []struct {
		Player
		Username string
	}
	err := s.db.WithContext(ctx).Table("players").
		Select("players.*, users.username").
		Joins("JOIN users ON users.id = players.user_id").
		Where("players.room_id = ?", roomID).
		Order("players.player_number").
		Find(&records).Error
	if err != nil {
		return nil, upstream(err)
	}
	players := make([]game.Player, 0, len(records))
	for _, record := range records {
		players = append(players, game.Player{
			UserID:       record.UserID,
			RoomID:       record.RoomID,
			PlayerNumber: record.PlayerNumber,
			DisplayName:  record.Username,
			JoinedAt:     record.JoinedAt,
		})
	}
	return players, nil
}

func (s *Store) CreateEntry(ctx context.Context, entry *game.Entry) error {
	record := Entry{
		ID:          entry.ID,
		RoomID:      entry.RoomID,
		RoundNumber: entry.RoundNumber,
		AuthorID:    entry.AuthorID,
		Prompt:      entry.Prompt,
		ArtifactRef: entry.ArtifactRef,
		CreatedAt:   entry.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: you already submitted for round %d", game.ErrConflict, entry.RoundNumber)
		}
		return upstream(err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, roomID string, round int, authorID string) (*game.Entry, error) {
	var record Entry
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND round_number = ? AND author_id = ?", roomID, round, authorID).
		First(&record).Error
	if err != nil {
		return nil, mapLookupErr(err, "entry")
	}
	return toEntry(&record), nil
}

func (s *Store) ListEntries(ctx context.Context, roomID string) ([]game.Entry, error) {
	var records []Entry
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, upstream(err)
	}
	entries := make([]game.Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, *toEntry(&record))
	}
	return entries, nil
}

func (s *Store) AppendEvent(ctx context.Context, event *game.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return upstream(err)
	}
	record := Event{
		RoomID:    event.RoomID,
		Type:      event.Type,
		Payload:   payload,
		CreatedAt: event.At,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return upstream(err)
	}
	return nil
}

func toUser(record *User) *game.User {
	return &game.User{
		ID:        record.ID,
		Username:  record.Username,
		APIKey:    record.APIKey,
		CreatedAt: record.CreatedAt,
	}
}

func toRoom(record *Room) *game.Room {
	return &game.Room{
		ID:            record.ID,
		Code:          record.Code,
		CreatorID:     record.CreatorID,
		Name:          record.Name,
		PlayerCount:   record.PlayerCount,
		RoundCount:    record.RoundCount,
		CurrentRound:  record.CurrentRound,
		RoundDeadline: record.RoundDeadline,
		Version:       record.Version,
		CreatedAt:     record.CreatedAt,
	}
}

func toEntry(record *Entry) *game.Entry {
	return &game.Entry{
		ID:          record.ID,
		RoomID:      record.RoomID,
		RoundNumber: record.RoundNumber,
		AuthorID:    record.AuthorID,
		Prompt:      record.Prompt,
		ArtifactRef: record.ArtifactRef,
		CreatedAt:   record.CreatedAt,
	}
}

func mapLookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", game.ErrNotFound, what)
	}
	return upstream(err)
}

func upstream(err error) error {
	return fmt.Errorf("%w: %v", game.ErrUpstream, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
