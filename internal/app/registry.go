package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/nestrischamps-rooms/internal/core"
	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

type producerKey struct {
	room domain.UserID
	user domain.UserID
}

// Registry binds producer identities to their current connection, per room.
// A user reconnecting replaces its previous binding in place.
type Registry struct {
	mu        sync.RWMutex
	producers map[producerKey]core.ProducerConnection
}

func NewRegistry() *Registry {
	return &Registry{
		producers: make(map[producerKey]core.ProducerConnection),
	}
}

// Bind makes conn the current producer connection of its user in room and
// returns the connection it replaced, if any.
func (r *Registry) Bind(room domain.UserID, conn core.ProducerConnection) core.ProducerConnection {
	key := producerKey{room: room, user: conn.User().ID}
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.producers[key]
	r.producers[key] = conn
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("user", string(key.user)).Str("conn", conn.ID()).Msg("bound producer")
	if old == conn {
		return nil
	}
	return old
}

// Unbind removes the binding only if conn is still the current one. It
// reports whether it did, so stale close events can be ignored.
func (r *Registry) Unbind(room domain.UserID, conn core.ProducerConnection) bool {
	key := producerKey{room: room, user: conn.User().ID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.producers[key]; !ok || cur != conn {
		log.Debug().Str("module", "app.registry").Str("conn", conn.ID()).Msg("stale producer unbind ignored")
		return false
	}
	delete(r.producers, key)
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("user", string(key.user)).Msg("unbound producer")
	return true
}

// UnbindRoom drops every binding of a room and returns the connections.
func (r *Registry) UnbindRoom(room domain.UserID) []core.ProducerConnection {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.ProducerConnection
	for key, conn := range r.producers {
		if key.room == room {
			out = append(out, conn)
			delete(r.producers, key)
		}
	}
	return out
}

func (r *Registry) Current(room, user domain.UserID) (core.ProducerConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.producers[producerKey{room: room, user: user}]
	return conn, ok
}

// Directory scopes the registry to one room for injection into core.Room.
func (r *Registry) Directory(room domain.UserID) core.ProducerDirectory {
	return roomDirectory{reg: r, room: room}
}

type roomDirectory struct {
	reg  *Registry
	room domain.UserID
}

func (d roomDirectory) Producer(id domain.UserID) (core.ProducerHandle, bool) {
	conn, ok := d.reg.Current(d.room, id)
	if !ok {
		return nil, false
	}
	return conn, true
}
