package core

import (
	"cmp"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

// View metadata keys understood by the room.
const (
	MetaPlayers            = "_players"
	MetaConcurrent2Matches = "_concurrent_2_matches"
)

const DefaultLookupTimeout = 5 * time.Second

type producerEntry struct {
	seq         uint64 // arrival order
	vdoNinjaURL string
}

// Room is the match-room coordinator for one owner. Every exported entry
// point holds mu for its whole mutation, so handlers never interleave.
// Admin commands are additionally serialized by cmdMu, which stays held
// across the profile lookup of setPlayerOnBehalfOfUser.
type Room struct {
	owner         domain.Owner
	producers     ProducerDirectory
	users         UserDirectory
	lookupTimeout time.Duration
	logger        zerolog.Logger

	cmdMu sync.Mutex

	mu      sync.Mutex
	closed  bool
	admin   Connection
	members map[domain.UserID]*producerEntry
	seq     uint64
	views   []Connection
	primary Connection
	state   domain.RoomState
}

func NewRoom(owner domain.Owner, producers ProducerDirectory, users UserDirectory, lookupTimeout time.Duration) *Room {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &Room{
		owner:         owner,
		producers:     producers,
		users:         users,
		lookupTimeout: lookupTimeout,
		logger: log.With().
			Str("module", "core.room").
			Str("room", owner.Login).
			Logger(),
		members: make(map[domain.UserID]*producerEntry),
		state:   domain.NewRoomState(),
	}
}

func (r *Room) Owner() domain.Owner { return r.owner }

// SetAdmin attaches the owner's control connection, evicting any previous
// admin. Non-owners are kicked.
func (r *Room) SetAdmin(conn Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		conn.Kick(domain.ErrRoomClosed.Error())
		return domain.ErrRoomClosed
	}
	if u := conn.User(); u == nil || u.ID != r.owner.ID {
		r.logger.Warn().Str("conn", conn.ID()).Msg("admin attach by non-owner")
		conn.Kick(domain.KickForbidden)
		return domain.ErrForbidden
	}

	if r.admin != nil {
		r.logger.Info().Str("old", r.admin.ID()).Str("new", conn.ID()).Msg("evicting previous admin")
		r.admin.Kick(domain.KickConcurrencyLimit)
	}
	r.admin = conn

	conn.OnMessage(func(data []byte, binary bool) {
		if binary {
			return
		}
		r.HandleAdminData(data)
	})
	conn.OnClose(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// a newer admin may already have replaced this one
		if r.admin == conn {
			r.admin = nil
		}
	})

	r.send(conn, protocol.SetOwner(r.owner))
	r.sendStateToAdmin()
	r.logger.Info().Str("conn", conn.ID()).Msg("admin attached")
	return nil
}

// Close tears the room down: producers are removed (clearing their slots),
// the admin and every view are kicked with reason.
func (r *Room) Close(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	// set first so clearing slots does not autojoin producers being removed
	r.closed = true

	for _, id := range r.arrivalOrder() {
		r.removeProducer(id)
	}
	if r.admin != nil {
		r.admin.Kick(reason)
		r.admin = nil
	}
	for _, v := range r.views {
		v.Kick(reason)
	}
	r.views = nil
	r.primary = nil
	r.logger.Info().Str("reason", reason).Msg("room closed")
}

// Snapshot returns a deep copy of the state the admin would receive.
func (r *Room) Snapshot() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		Owner:     r.owner,
		Producers: len(r.members),
		Views:     len(r.views),
		HasAdmin:  r.admin != nil,
		Players:   r.state.Clone().Players,
	}
}

// The helpers below expect r.mu to be held.

func (r *Room) snapshot() domain.Snapshot {
	fields := make([]domain.ProducerFields, 0, len(r.members))
	for _, id := range r.arrivalOrder() {
		if f, ok := r.producerFields(id); ok {
			fields = append(fields, f)
		}
	}
	return domain.Snapshot{Producers: fields, RoomState: r.state.Clone()}
}

func (r *Room) sendStateToAdmin() {
	r.tellAdmin(protocol.State(r.snapshot()))
}

func (r *Room) tellAdmin(msg protocol.Message) {
	if r.admin == nil {
		return
	}
	r.send(r.admin, msg)
}

func (r *Room) sendToViews(msg protocol.Message) {
	for _, v := range r.views {
		r.send(v, msg)
	}
}

func (r *Room) sendPlayerInfoToViews(slot int, p domain.PlayerSlot) {
	for _, msg := range protocol.PlayerInfo(slot, p) {
		r.sendToViews(msg)
	}
}

func (r *Room) send(conn Connection, msg protocol.Message) {
	if err := conn.Send(msg); err != nil {
		r.logger.Debug().Err(err).Str("conn", conn.ID()).Str("msg", msg.Name).Msg("send failed")
	}
}

func (r *Room) sendProducer(h ProducerHandle, msg protocol.Message) {
	if err := h.Send(msg); err != nil {
		r.logger.Debug().Err(err).Str("peer", h.PeerID()).Str("msg", msg.Name).Msg("producer send failed")
	}
}

// producer resolves a connected producer of this room.
func (r *Room) producer(id domain.UserID) (ProducerHandle, bool) {
	if id.Empty() {
		return nil, false
	}
	if _, ok := r.members[id]; !ok {
		return nil, false
	}
	return r.producers.Producer(id)
}

func (r *Room) producerFields(id domain.UserID) (domain.ProducerFields, bool) {
	h, ok := r.producer(id)
	if !ok {
		return domain.ProducerFields{}, false
	}
	f := domain.ProducerFields{
		ID:                id,
		VdoNinjaURL:       r.members[id].vdoNinjaURL,
		RemoteCalibration: h.RemoteCalibration(),
	}
	if u := h.User(); u != nil {
		f.Login = u.Login
		f.DisplayName = u.DisplayName
		f.ProfileImageURL = u.ProfileImageURL
		f.CountryCode = u.CountryCode
	}
	return f, true
}

// arrivalOrder lists member ids by connection arrival, oldest first.
func (r *Room) arrivalOrder() []domain.UserID {
	ids := lo.Keys(r.members)
	slices.SortFunc(ids, func(a, b domain.UserID) int {
		return cmp.Compare(r.members[a].seq, r.members[b].seq)
	})
	return ids
}

func (r *Room) viewMeta() map[string]string {
	if r.primary == nil {
		return map[string]string{}
	}
	if m := r.primary.Meta(); m != nil {
		return m
	}
	return map[string]string{}
}

func (r *Room) viewPeerID() string {
	if r.primary == nil {
		return ""
	}
	return r.primary.ID()
}

// maxPossiblePlayers bounds autojoin by the primary view's player count.
func (r *Room) maxPossiblePlayers() int {
	n, err := strconv.Atoi(r.viewMeta()[MetaPlayers])
	if err != nil || n <= 0 {
		return domain.MaxPlayers
	}
	return min(n, domain.MaxPlayers)
}

func matchModeFromMeta(meta map[string]string) domain.MatchMode {
	v, ok := meta[MetaConcurrent2Matches]
	if !ok {
		return domain.MatchModeUnset
	}
	if v == "true" {
		return domain.MatchModeConcurrent
	}
	return domain.MatchModeSingle
}
