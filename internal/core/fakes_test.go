package core

import (
	"sync"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

type fakeConn struct {
	id                string
	user              *domain.User
	meta              map[string]string
	peerID            string
	remoteCalibration bool

	mu        sync.Mutex
	sent      []string
	frames    [][]byte
	kicks     []string
	onMessage func([]byte, bool)
	onClose   []func()
}

func newConn(id string, user *domain.User) *fakeConn {
	return &fakeConn{id: id, user: user, peerID: "peer-" + id}
}

func (c *fakeConn) ID() string              { return c.id }
func (c *fakeConn) User() *domain.User      { return c.user }
func (c *fakeConn) Meta() map[string]string { return c.meta }
func (c *fakeConn) PeerID() string          { return c.peerID }
func (c *fakeConn) RemoteCalibration() bool { return c.remoteCalibration }

func (c *fakeConn) Send(m protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m.String())
	return nil
}

func (c *fakeConn) SendBinary(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Kick(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kicks = append(c.kicks, reason)
}

func (c *fakeConn) OnMessage(fn func([]byte, bool)) { c.onMessage = fn }
func (c *fakeConn) OnClose(fn func())               { c.onClose = append(c.onClose, fn) }

// admin simulates an inbound admin text frame.
func (c *fakeConn) admin(raw string) { c.onMessage([]byte(raw), false) }

func (c *fakeConn) close() {
	for _, fn := range c.onClose {
		fn()
	}
}

func (c *fakeConn) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
	c.frames = nil
}

func (c *fakeConn) kicked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.kicks...)
}

type fakeDirectory struct {
	mu    sync.Mutex
	conns map[domain.UserID]*fakeConn
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{conns: make(map[domain.UserID]*fakeConn)}
}

func (d *fakeDirectory) bind(c *fakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns[c.user.ID] = c
}

func (d *fakeDirectory) unbind(id domain.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.conns, id)
}

func (d *fakeDirectory) Producer(id domain.UserID) (ProducerHandle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.conns[id]
	if !ok {
		return nil, false
	}
	return c, true
}

var (
	hostUser  = &domain.User{ID: "1", Login: "host", DisplayName: "Host"}
	aliceUser = &domain.User{ID: "2", Login: "alice", DisplayName: "Alice", CountryCode: "FR", ProfileImageURL: "https://img/alice.png"}
	bobUser   = &domain.User{ID: "3", Login: "bob", DisplayName: "Bob", CountryCode: "CA"}
	carolUser = &domain.User{ID: "4", Login: "carol", DisplayName: "Carol"}
)
