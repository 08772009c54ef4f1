package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStore is a mutex-guarded in-memory Store. It backs the test suite and
// the server's dev mode when no DATABASE_URL is configured; the version
// precondition behaves exactly like the database implementation so the
// concurrency semantics under test are the real ones.
type MemStore struct {
	mu      sync.Mutex
	users   map[string]*User
	rooms   map[string]*Room
	players map[string][]Player
	entries map[string][]Entry
	events  []Event
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:   make(map[string]*User),
		rooms:   make(map[string]*Room),
		players: make(map[string][]Player),
		entries: make(map[string][]Entry),
	}
}

func (s *MemStore) CreateUser(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return fmt.Errorf("%w: username is taken", ErrConflict)
		}
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemStore) GetUserByAPIKey(_ context.Context, apiKey string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.APIKey == apiKey {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: user", ErrNotFound)
}

func (s *MemStore) GetUserByName(_ context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: user", ErrNotFound)
}

func (s *MemStore) CreateRoom(_ context.Context, room *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return fmt.Errorf("%w: room already exists", ErrConflict)
	}
	for _, existing := range s.rooms {
		if existing.Code == room.Code {
			return fmt.Errorf("%w: join code already in use", ErrConflict)
		}
	}
	copied := copyRoom(room)
	s.rooms[room.ID] = copied
	return nil
}

func (s *MemStore) GetRoom(_ context.Context, id string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: room", ErrNotFound)
	}
	return copyRoom(room), nil
}

func (s *MemStore) GetRoomByCode(_ context.Context, code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if room.Code == code {
			return copyRoom(room), nil
		}
	}
	return nil, fmt.Errorf("%w: room", ErrNotFound)
}

func (s *MemStore) UpdateRoom(_ context.Context, room *Room, expected int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[room.ID]
	if !ok {
		return false, fmt.Errorf("%w: room", ErrNotFound)
	}
	if stored.Version != expected {
		return false, nil
	}
	stored.CurrentRound = copyIntPtr(room.CurrentRound)
	stored.RoundCount = copyIntPtr(room.RoundCount)
	stored.RoundDeadline = copyTimePtr(room.RoundDeadline)
	stored.Version = expected + 1
	room.Version = stored.Version
	return true, nil
}

func (s *MemStore) AddPlayer(_ context.Context, room *Room, expected int64, player *Player) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[room.ID]
	if !ok {
		return false, fmt.Errorf("%w: room", ErrNotFound)
	}
	for _, seated := range s.players {
		for _, p := range seated {
			if p.UserID == player.UserID {
				return false, fmt.Errorf("%w: already in a room", ErrConflict)
			}
		}
	}
	if stored.Version != expected {
		return false, nil
	}
	for _, p := range s.players[room.ID] {
		if p.PlayerNumber == player.PlayerNumber {
			return false, fmt.Errorf("%w: seat already taken", ErrConflict)
		}
	}
	copied := *player
	if user, ok := s.users[player.UserID]; ok {
		copied.DisplayName = user.Username
	}
	s.players[room.ID] = append(s.players[room.ID], copied)
	stored.PlayerCount++
	stored.Version = expected + 1
	room.PlayerCount = stored.PlayerCount
	room.Version = stored.Version
	return true, nil
}

func (s *MemStore) RemovePlayer(_ context.Context, room *Room, expected int64, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[room.ID]
	if !ok {
		return false, fmt.Errorf("%w: room", ErrNotFound)
	}
	index := -1
	for i, p := range s.players[room.ID] {
		if p.UserID == userID {
			index = i
			break
		}
	}
	if index < 0 {
		return false, fmt.Errorf("%w: player", ErrNotFound)
	}
	if stored.Version != expected {
		return false, nil
	}
	s.players[room.ID] = append(s.players[room.ID][:index], s.players[room.ID][index+1:]...)
	stored.PlayerCount--
	stored.Version = expected + 1
	room.PlayerCount = stored.PlayerCount
	room.Version = stored.Version
	return true, nil
}

func (s *MemStore) GetPlayer(_ context.Context, roomID, userID string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players[roomID] {
		if p.UserID == userID {
			copied := p
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: player", ErrNotFound)
}

func (s *MemStore) FindPlayerByUser(_ context.Context, userID string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seated := range s.players {
		for _, p := range seated {
			if p.UserID == userID {
				copied := p
				return &copied, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: player", ErrNotFound)
}

func (s *MemStore) ListPlayers(_ context.Context, roomID string) ([]Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Player, len(s.players[roomID]))
	copy(list, s.players[roomID])
	sort.Slice(list, func(i, j int) bool {
		return list[i].PlayerNumber < list[j].PlayerNumber
	})
	return list, nil
}

func (s *MemStore) CreateEntry(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries[entry.RoomID] {
		if existing.RoundNumber == entry.RoundNumber && existing.AuthorID == entry.AuthorID {
			return fmt.Errorf("%w: you already submitted for round %d", ErrConflict, entry.RoundNumber)
		}
	}
	s.entries[entry.RoomID] = append(s.entries[entry.RoomID], *entry)
	return nil
}

func (s *MemStore) GetEntry(_ context.Context, roomID string, round int, authorID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries[roomID] {
		if entry.RoundNumber == round && entry.AuthorID == authorID {
			copied := entry
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: entry", ErrNotFound)
}

func (s *MemStore) ListEntries(_ context.Context, roomID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Entry, len(s.entries[roomID]))
	copy(list, s.entries[roomID])
	return list, nil
}

func (s *MemStore) AppendEvent(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func copyRoom(room *Room) *Room {
	copied := *room
	copied.CurrentRound = copyIntPtr(room.CurrentRound)
	copied.RoundCount = copyIntPtr(room.RoundCount)
	copied.RoundDeadline = copyTimePtr(room.RoundDeadline)
	return &copied
}

func copyIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func copyTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
