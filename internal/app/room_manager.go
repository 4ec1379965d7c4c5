package app

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/nestrischamps-rooms/internal/core"
	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

// RoomManager owns one match room per owner, created on first use.
type RoomManager struct {
	registry      *Registry
	users         core.UserDirectory
	lookupTimeout time.Duration

	mu    sync.RWMutex
	rooms map[domain.UserID]*core.Room
}

func NewRoomManager(registry *Registry, users core.UserDirectory, lookupTimeout time.Duration) *RoomManager {
	return &RoomManager{
		registry:      registry,
		users:         users,
		lookupTimeout: lookupTimeout,
		rooms:         make(map[domain.UserID]*core.Room),
	}
}

func (m *RoomManager) GetOrCreate(owner domain.Owner) *core.Room {
	m.mu.RLock()
	room, ok := m.rooms[owner.ID]
	m.mu.RUnlock()
	if ok {
		return room
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok = m.rooms[owner.ID]; ok {
		return room
	}
	room = core.NewRoom(owner, m.registry.Directory(owner.ID), m.users, m.lookupTimeout)
	m.rooms[owner.ID] = room
	log.Info().Str("module", "app.rooms").Str("owner", string(owner.ID)).Str("login", owner.Login).Msg("room created")
	return room
}

func (m *RoomManager) Get(owner domain.UserID) (*core.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[owner]
	return room, ok
}

// List returns room summaries ordered by owner login.
func (m *RoomManager) List() []core.RoomInfo {
	m.mu.RLock()
	rooms := make([]*core.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int {
		switch {
		case a.Owner.Login < b.Owner.Login:
			return -1
		case a.Owner.Login > b.Owner.Login:
			return 1
		}
		return 0
	})
	return out
}

// StopRoom closes and forgets the owner's room.
func (m *RoomManager) StopRoom(owner domain.UserID, reason string) bool {
	m.mu.Lock()
	room, ok := m.rooms[owner]
	delete(m.rooms, owner)
	m.mu.Unlock()
	if !ok {
		return false
	}
	room.Close(reason)
	return true
}

// StopAll closes and forgets every room.
func (m *RoomManager) StopAll(reason string) {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[domain.UserID]*core.Room)
	m.mu.Unlock()
	for _, r := range rooms {
		r.Close(reason)
	}
}
