package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/nestrischamps-rooms/internal/app"
	"github.com/dkeye/nestrischamps-rooms/internal/core"
	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

// Orchestrator wires transport connections into rooms.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager

	// mu orders producer bind/unbind against room add/remove, so a stale
	// close can never remove a producer that already reconnected.
	mu sync.Mutex
}

func New(registry *app.Registry, rooms *app.RoomManager) *Orchestrator {
	return &Orchestrator{
		Registry: registry,
		Rooms:    rooms,
	}
}

// ConnectAdmin makes conn the admin of its user's own room.
func (o *Orchestrator) ConnectAdmin(conn core.Connection) error {
	u := conn.User()
	if u == nil {
		conn.Kick(domain.KickForbidden)
		return domain.ErrForbidden
	}
	room := o.Rooms.GetOrCreate(u.AsOwner())
	return room.SetAdmin(conn)
}

// ConnectView attaches conn to the room of host. Secret views become the
// room's primary view.
func (o *Orchestrator) ConnectView(host domain.Owner, conn core.Connection, secret bool) {
	room := o.Rooms.GetOrCreate(host)
	conn.OnClose(func() {
		room.RemoveView(conn)
	})
	room.AddView(conn, secret)
}

// EvictRoom closes the room of owner and drops its producer bindings.
func (o *Orchestrator) EvictRoom(owner domain.UserID, reason string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	stopped := o.Rooms.StopRoom(owner, reason)
	for _, conn := range o.Registry.UnbindRoom(owner) {
		conn.Kick(reason)
	}
	return stopped
}

// Shutdown closes every room.
func (o *Orchestrator) Shutdown(reason string) {
	for _, info := range o.Rooms.List() {
		o.EvictRoom(info.Owner.ID, reason)
	}
}

var hostRPCAllowed = map[string]bool{
	protocol.CmdSetDisplayName: true,
	protocol.CmdSetCountryCode: true,
	protocol.CmdSetVictories:   true,
	protocol.CmdResetVictories: true,
	protocol.CmdSetBestOf:      true,
	protocol.CmdSetMatch:       true,
}

// HostRPC runs one whitelisted admin command on behalf of the room owner,
// outside of any admin connection.
func (o *Orchestrator) HostRPC(ctx context.Context, owner *domain.User, msg protocol.Message) error {
	if owner == nil {
		return domain.ErrForbidden
	}
	if !hostRPCAllowed[msg.Name] {
		return fmt.Errorf("%w: %q not allowed over rpc", domain.ErrForbidden, msg.Name)
	}
	room := o.Rooms.GetOrCreate(owner.AsOwner())
	if err := room.HandleAdminMessage(ctx, msg); err != nil {
		return err
	}
	log.Info().Str("module", "app.orch").Str("owner", string(owner.ID)).Str("command", msg.Name).Msg("host rpc")
	return nil
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidPlayer) ||
		errors.Is(err, domain.ErrUnknownCommand) ||
		errors.Is(err, domain.ErrBadPayload)
}
