package core

import (
	"bytes"

	"github.com/samber/lo"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

// AddProducer registers a producer already bound in the ProducerDirectory.
// Calling it again for a known producer re-homes it onto the primary view,
// which covers reconnects with a new peer id.
func (r *Room) AddProducer(id domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	handle, ok := r.producers.Producer(id)
	if !ok {
		r.logger.Warn().Str("producer", string(id)).Msg("addProducer: no handle bound")
		return
	}

	if _, known := r.members[id]; !known {
		r.seq++
		r.members[id] = &producerEntry{seq: r.seq}
		r.logger.Info().Str("producer", string(id)).Uint64("seq", r.seq).Msg("producer added")

		if r.state.AutoJoin {
			r.autoJoinUser(id)
		}
		r.sendStateToAdmin()
	}

	if r.primary == nil {
		return
	}
	r.sendProducer(handle, protocol.SetViewPeerID(r.viewPeerID()))
	for idx, p := range r.state.Players {
		if p.ID != id {
			continue
		}
		r.send(r.primary, protocol.SetPeerID(idx, handle.PeerID()))
		r.sendProducer(handle, protocol.MakePlayer(idx, r.viewMeta()))
	}
}

// RemoveProducer drops a producer and clears every slot it occupied.
func (r *Room) RemoveProducer(id domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.removeProducer(id)
}

func (r *Room) removeProducer(id domain.UserID) {
	_, known := r.members[id]
	seated := lo.ContainsBy(r.state.Players, func(p domain.PlayerSlot) bool { return p.ID == id })
	if !known && !seated {
		return
	}

	delete(r.members, id)

	cleared := 0
	for idx := range r.state.Players {
		if r.state.Players[idx].ID != id {
			continue
		}
		if err := r.setPlayer(idx, ""); err != nil {
			r.logger.Error().Err(err).Int("slot", idx).Msg("clearing slot")
			continue
		}
		cleared++
	}
	r.logger.Info().Str("producer", string(id)).Int("cleared", cleared).Msg("producer removed")

	if cleared > 0 && r.state.AutoJoin && !r.closed {
		r.doAutoJoin()
	}
	r.sendStateToAdmin()
}

// HandleProducerMessage fans a producer payload out to the primary view,
// once per slot the producer occupies, with the slot index embedded.
func (r *Room) HandleProducerMessage(id domain.UserID, payload protocol.ProducerPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	if url, ok := payload.IsVdoNinjaURL(); ok {
		if e, known := r.members[id]; known {
			e.vdoNinjaURL = url
		}
		for idx := range r.state.Players {
			if r.state.Players[idx].ID != id {
				continue
			}
			r.state.Players[idx].VdoNinjaURL = url
			r.tellAdmin(protocol.SetVdoNinjaURL(idx, url))
		}
	}

	if r.primary == nil {
		return
	}

	sent := 0
	for idx, p := range r.state.Players {
		if p.ID != id {
			continue
		}
		switch payload.Kind {
		case protocol.PayloadBinary:
			if len(payload.Binary) == 0 {
				r.logger.Debug().Str("producer", string(id)).Msg("empty binary frame")
				return
			}
			frame := payload.Binary
			if sent > 0 {
				// the previous buffer may still be queued for writing
				frame = bytes.Clone(frame)
			}
			protocol.StampSlot(frame, idx)
			if err := r.primary.SendBinary(frame); err != nil {
				r.logger.Debug().Err(err).Int("slot", idx).Msg("frame send failed")
			}
		case protocol.PayloadList:
			r.send(r.primary, payload.List.WithSlot(idx))
		default:
			r.send(r.primary, protocol.Frame(idx, payload.Other))
		}
		sent++
	}
}
