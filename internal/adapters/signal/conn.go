package signal

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dkeye/nestrischamps-rooms/internal/app"
	"github.com/dkeye/nestrischamps-rooms/internal/core"
	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// KickCloseCode is the websocket close code carrying a kick reason.
const KickCloseCode = 4000

const KickBackpressure = "backpressure"

type outbound struct {
	kind int
	data []byte
}

// WsConn is a websocket-backed room connection. Writes go through a bounded
// queue drained by the write pump; callbacks fire from the read pump only.
type WsConn struct {
	id                string
	user              *domain.User
	meta              map[string]string
	peerID            string
	remoteCalibration bool
	policy            app.Policy

	conn *websocket.Conn
	send chan outbound
	quit chan struct{}

	mu         sync.RWMutex
	closed     bool
	kickReason string
	onMessage  func(data []byte, binary bool)
	onClose    []func()
}

type ConnOptions struct {
	User              *domain.User
	Meta              map[string]string
	PeerID            string
	RemoteCalibration bool
	SendBuffer        int
	Policy            app.Policy
}

func NewWsConn(ws *websocket.Conn, opts ConnOptions) *WsConn {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.Policy == nil {
		opts.Policy = app.SimplePolicy{}
	}
	id := uuid.NewString()
	peerID := opts.PeerID
	if peerID == "" {
		peerID = id
	}
	return &WsConn{
		id:                id,
		user:              opts.User,
		meta:              opts.Meta,
		peerID:            peerID,
		remoteCalibration: opts.RemoteCalibration,
		policy:            opts.Policy,
		conn:              ws,
		send:              make(chan outbound, opts.SendBuffer),
		quit:              make(chan struct{}),
	}
}

var (
	_ core.Connection         = (*WsConn)(nil)
	_ core.ProducerConnection = (*WsConn)(nil)
)

func (c *WsConn) ID() string              { return c.id }
func (c *WsConn) User() *domain.User      { return c.user }
func (c *WsConn) Meta() map[string]string { return c.meta }
func (c *WsConn) PeerID() string          { return c.peerID }
func (c *WsConn) RemoteCalibration() bool { return c.remoteCalibration }

func (c *WsConn) Send(msg protocol.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.TrySend(websocket.TextMessage, b)
}

func (c *WsConn) SendBinary(f core.Frame) error {
	return c.TrySend(websocket.BinaryMessage, f)
}

// TrySend queues one frame without blocking. On a full queue the policy
// decides whether the frame is simply dropped or the connection kicked.
func (c *WsConn) TrySend(kind int, data []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrClosed
	}
	select {
	case c.send <- outbound{kind: kind, data: data}:
		c.mu.RUnlock()
		return nil
	default:
	}
	c.mu.RUnlock()

	if c.policy.OnBackPressure(kind == websocket.BinaryMessage) == app.KickMember {
		c.Kick(KickBackpressure)
	}
	return ErrBackpressure
}

// Kick ends the connection with reason. Queued frames are flushed first.
func (c *WsConn) Kick(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.kickReason = reason
	close(c.quit)
}

func (c *WsConn) OnMessage(fn func(data []byte, binary bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

func (c *WsConn) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = append(c.onClose, fn)
}

func (c *WsConn) handler() func([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onMessage
}

// finish marks the connection closed and runs the close callbacks. It is
// only called once, by the read pump on exit.
func (c *WsConn) finish() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.quit)
	}
	callbacks := c.onClose
	c.onClose = nil
	c.mu.Unlock()

	_ = c.conn.Close()
	for _, fn := range callbacks {
		fn()
	}
}
