package app

import (
	"github.com/dkeye/nestrischamps-rooms/internal/core"
	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

type stubConn struct {
	id   string
	user *domain.User
}

func (c *stubConn) ID() string                   { return c.id }
func (c *stubConn) User() *domain.User           { return c.user }
func (c *stubConn) Meta() map[string]string      { return nil }
func (c *stubConn) PeerID() string               { return "peer-" + c.id }
func (c *stubConn) RemoteCalibration() bool      { return false }
func (c *stubConn) Send(protocol.Message) error  { return nil }
func (c *stubConn) SendBinary(core.Frame) error  { return nil }
func (c *stubConn) Kick(string)                  {}
func (c *stubConn) OnMessage(func([]byte, bool)) {}
func (c *stubConn) OnClose(func())               {}
