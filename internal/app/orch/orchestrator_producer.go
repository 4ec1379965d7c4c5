package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/nestrischamps-rooms/internal/core"
	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

// ConnectProducer binds conn as its user's producer in the room of host.
// A previous connection of the same user is replaced and kicked.
func (o *Orchestrator) ConnectProducer(host domain.Owner, conn core.ProducerConnection) error {
	u := conn.User()
	if u == nil || u.ID.Empty() {
		conn.Kick(domain.KickForbidden)
		return domain.ErrForbidden
	}
	id := u.ID
	room := o.Rooms.GetOrCreate(host)
	logger := log.With().Str("module", "app.orch").Str("room", host.Login).Str("producer", string(id)).Logger()

	conn.OnMessage(func(data []byte, binary bool) {
		var payload protocol.ProducerPayload
		if binary {
			payload = protocol.BinaryPayload(data)
		} else {
			p, err := protocol.DecodeProducerText(data)
			if err != nil {
				logger.Debug().Err(err).Msg("dropping producer message")
				return
			}
			payload = p
		}
		room.HandleProducerMessage(id, payload)
	})
	conn.OnClose(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if !o.Registry.Unbind(host.ID, conn) {
			return
		}
		room.RemoveProducer(id)
	})

	o.mu.Lock()
	old := o.Registry.Bind(host.ID, conn)
	room.AddProducer(id)
	o.mu.Unlock()

	if old != nil {
		logger.Info().Str("old", old.ID()).Str("new", conn.ID()).Msg("replacing producer connection")
		old.Kick(domain.KickConcurrencyLimit)
	}
	return nil
}
