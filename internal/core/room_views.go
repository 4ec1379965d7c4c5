package core

import (
	"github.com/samber/lo"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

// AddView attaches a view and replays the room state to it. A secret view
// becomes the primary view: it receives telemetry and peer wiring, and its
// metadata drives the match mode and the autojoin bound.
func (r *Room) AddView(conn Connection, secret bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		conn.Kick(domain.ErrRoomClosed.Error())
		return
	}

	r.views = append(r.views, conn)

	if secret {
		if r.primary != nil {
			r.send(r.primary, protocol.SetSecondaryView())
		}
		r.primary = conn

		for _, id := range r.arrivalOrder() {
			if h, ok := r.producers.Producer(id); ok {
				r.sendProducer(h, protocol.SetViewPeerID(conn.ID()))
			}
		}

		if mode := matchModeFromMeta(r.viewMeta()); mode != r.state.MatchMode {
			r.state.MatchMode = mode
			r.state.SelectedMatch = nil
			r.sendStateToAdmin()
		}
	}
	r.logger.Info().Str("conn", conn.ID()).Bool("secret", secret).Int("views", len(r.views)).Msg("view added")

	if r.state.MatchMode == domain.MatchModeConcurrent {
		r.send(conn, protocol.SetMatchMsg(r.state.SelectedMatch))
	}
	r.send(conn, protocol.SetBestOfMsg(r.state.BestOf))
	r.send(conn, protocol.SetCurtainLogoMsg(r.state.CurtainLogo))

	for idx, p := range r.state.Players {
		for _, msg := range protocol.PlayerInfo(idx, p) {
			r.send(conn, msg)
		}
		if !p.Occupied() {
			continue
		}
		h, ok := r.producer(p.ID)
		if !ok {
			continue
		}
		r.send(conn, protocol.SetPeerID(idx, h.PeerID()))
		if secret {
			r.sendProducer(h, protocol.MakePlayer(idx, r.viewMeta()))
		}
	}
}

// RemoveView detaches a view. Losing the primary view tells every producer
// that there is no view peer anymore.
func (r *Room) RemoveView(conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.views = lo.Without(r.views, conn)
	r.logger.Info().Str("conn", conn.ID()).Int("views", len(r.views)).Msg("view removed")

	if conn != r.primary {
		return
	}
	r.primary = nil
	for _, id := range r.arrivalOrder() {
		if h, ok := r.producers.Producer(id); ok {
			r.sendProducer(h, protocol.SetViewPeerID(""))
		}
	}
}
