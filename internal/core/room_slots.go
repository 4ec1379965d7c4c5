package core

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

// AssertValidPlayer fails unless n is a player number in [0, MaxPlayers).
func AssertValidPlayer(n int) error {
	if n < 0 || n >= domain.MaxPlayers {
		return fmt.Errorf("%w (%d)", domain.ErrInvalidPlayer, n)
	}
	return nil
}

// SetPlayer seats a producer identity in a slot, or clears it when id is
// empty.
func (r *Room) SetPlayer(slot int, id domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrRoomClosed
	}
	return r.setPlayer(slot, id)
}

// DoAutoJoin seats waiting producers and reports whether any seat changed.
func (r *Room) DoAutoJoin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	return r.doAutoJoin()
}

// slotAt validates n against both the protocol bound and the current roster.
func (r *Room) slotAt(n int) (*domain.PlayerSlot, error) {
	if err := AssertValidPlayer(n); err != nil {
		return nil, err
	}
	if n >= len(r.state.Players) {
		return nil, fmt.Errorf("%w (%d): only %d players", domain.ErrInvalidPlayer, n, len(r.state.Players))
	}
	return &r.state.Players[n], nil
}

func (r *Room) setPlayer(n int, id domain.UserID) error {
	current, err := r.slotAt(n)
	if err != nil {
		return err
	}

	old := current.ID
	if !old.Empty() && old != id {
		// the old occupant is only dropped once it holds no other slot
		holders := lo.CountBy(r.state.Players, func(p domain.PlayerSlot) bool { return p.ID == old })
		if holders <= 1 {
			if h, ok := r.producer(old); ok {
				r.sendProducer(h, protocol.DropPlayer())
			}
		}
	}

	handle, connected := r.producer(id)

	var next domain.PlayerSlot
	if id.Empty() {
		next = domain.NewPlayerSlot()
	} else {
		next = current.Clone()
		if old != id {
			next.OnBehalfOf = nil
		}
		other, seatedElsewhere := lo.Find(r.state.Players, func(p domain.PlayerSlot) bool { return p.ID == id })
		if seatedElsewhere {
			next = other.Clone()
		}
		if connected {
			if f, ok := r.producerFields(id); ok {
				next = f.Apply(next)
			}
		}
		if !seatedElsewhere && !connected {
			r.logger.Warn().Str("player", string(id)).Int("slot", n).Msg("setPlayer: player not found")
			return nil
		}
		next.ID = id
		next.Victories = 0
	}
	r.state.Players[n] = next

	peerID := ""
	if connected {
		peerID = handle.PeerID()
	}

	r.sendPlayerInfoToViews(n, next)
	// after the identity, so the view does not reset the peer id
	r.sendToViews(protocol.SetPeerID(n, peerID))

	if connected {
		r.sendProducer(handle, protocol.MakePlayer(n, r.viewMeta()))
	}
	return nil
}

func (r *Room) doAutoJoin() bool {
	seated := lo.SliceToMap(r.state.Players, func(p domain.PlayerSlot) (domain.UserID, bool) {
		return p.ID, true
	})
	waiting := lo.Filter(r.arrivalOrder(), func(id domain.UserID, _ int) bool { return !seated[id] })

	changed := false
	for _, id := range waiting {
		if r.autoJoinUser(id) {
			changed = true
		}
	}
	return changed
}

// autoJoinUser seats id in the lowest empty slot within the view bound.
func (r *Room) autoJoinUser(id domain.UserID) bool {
	limit := min(r.maxPossiblePlayers(), len(r.state.Players))
	for idx := 0; idx < limit; idx++ {
		if r.state.Players[idx].Occupied() {
			continue
		}
		if err := r.setPlayer(idx, id); err != nil {
			r.logger.Error().Err(err).Int("slot", idx).Msg("autojoin")
			return false
		}
		r.logger.Info().Str("producer", string(id)).Int("slot", idx).Msg("autojoined")
		return r.state.Players[idx].ID == id
	}
	return false
}

func (r *Room) addPlayer() {
	if len(r.state.Players) >= domain.MaxPlayers {
		return
	}
	idx := len(r.state.Players)
	r.state.Players = append(r.state.Players, domain.NewPlayerSlot())
	r.sendPlayerInfoToViews(idx, r.state.Players[idx])
}

// removePlayer deletes slot n and shifts the slots above it down. The roster
// never shrinks below MinPlayers: a fresh slot is appended instead.
func (r *Room) removePlayer(n int) error {
	if _, err := r.slotAt(n); err != nil {
		return err
	}

	dropped := r.state.Players[n]
	r.state.Players = slices.Delete(r.state.Players, n, n+1)
	vacated := len(r.state.Players)
	if len(r.state.Players) < domain.MinPlayers {
		r.state.Players = append(r.state.Players, domain.NewPlayerSlot())
	}

	if h, ok := r.producer(dropped.ID); ok {
		r.sendProducer(h, protocol.DropPlayer())
	}

	for idx := n; idx < len(r.state.Players); idx++ {
		p := r.state.Players[idx]
		r.sendPlayerInfoToViews(idx, p)
		if r.primary == nil {
			continue
		}
		if h, ok := r.producer(p.ID); ok {
			r.send(r.primary, protocol.SetPeerID(idx, h.PeerID()))
			r.sendProducer(h, protocol.MakePlayer(idx, r.viewMeta()))
		} else {
			r.send(r.primary, protocol.SetPeerID(idx, ""))
		}
	}

	if vacated == len(r.state.Players) {
		r.sendPlayerInfoToViews(vacated, domain.NewPlayerSlot())
	}
	return nil
}
