package core

import (
	"context"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

// Frame is a raw binary payload (e.g., a producer game frame).
type Frame []byte

// Connection abstracts an ordered, reliable message channel to one client.
// Owned by the adapter; the room only ever ends it through Kick.
// Implementations must not invoke OnMessage or OnClose callbacks from
// inside Send, SendBinary or Kick.
type Connection interface {
	// ID is unique per connection; for views it doubles as the peer id.
	ID() string
	User() *domain.User
	// Meta holds key/value hints supplied at connect time.
	Meta() map[string]string
	Send(protocol.Message) error
	SendBinary(Frame) error
	Kick(reason string)
	// OnMessage registers the handler for inbound frames; binary is false
	// for text frames.
	OnMessage(func(data []byte, binary bool))
	// OnClose registers a callback that fires once when the connection ends.
	OnClose(func())
}

// ProducerHandle is what a room may do with a live producer.
type ProducerHandle interface {
	User() *domain.User
	PeerID() string
	RemoteCalibration() bool
	Send(protocol.Message) error
}

// ProducerConnection is a connection that carries producer telemetry.
type ProducerConnection interface {
	Connection
	PeerID() string
	RemoteCalibration() bool
}

// ProducerDirectory resolves a producer identity to its current handle.
// It is owned by the transport side and injected into rooms.
type ProducerDirectory interface {
	Producer(id domain.UserID) (ProducerHandle, bool)
}

//go:generate mockgen -destination=../mocks/mock_user_directory.go -package=mocks . UserDirectory

// UserDirectory resolves user accounts.
type UserDirectory interface {
	UserByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	UserByLogin(ctx context.Context, login string) (*domain.User, error)
	UserBySecret(ctx context.Context, secret string) (*domain.User, error)
}

// RoomInfo is a read-only summary for APIs (no transport fields).
type RoomInfo struct {
	Owner     domain.Owner        `json:"owner"`
	Producers int                 `json:"producer_count"`
	Views     int                 `json:"view_count"`
	HasAdmin  bool                `json:"has_admin"`
	Players   []domain.PlayerSlot `json:"players"`
}
