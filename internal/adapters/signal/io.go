package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// Start runs the pumps of c. Callbacks must be registered before.
func (ctl *SignalWSController) Start(ctx context.Context, c *WsConn) {
	go ctl.writePump(ctx, c)
	go ctl.readPump(c)
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsConn) {
	ping := time.NewTicker(ctl.pingPeriod())
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", c.id).Msg("writePump ctx done")
			c.Kick("shutdown")
			ctl.closeWith(c)
			return
		case <-c.quit:
			ctl.closeWith(c)
			return
		case out := <-c.send:
			if err := ctl.write(c, out); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", c.id).Msg("writePump write error")
				_ = c.conn.Close()
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", c.id).Msg("writePump ping error")
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (ctl *SignalWSController) write(c *WsConn, out outbound) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(out.kind, out.data)
}

// closeWith flushes what is queued, then sends the close frame with the
// kick reason. The read pump notices the close and finishes the connection.
func (ctl *SignalWSController) closeWith(c *WsConn) {
flush:
	for {
		select {
		case out := <-c.send:
			if err := ctl.write(c, out); err != nil {
				_ = c.conn.Close()
				return
			}
		default:
			break flush
		}
	}

	c.mu.RLock()
	reason := c.kickReason
	c.mu.RUnlock()

	msg := websocket.FormatCloseMessage(KickCloseCode, reason)
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", c.id).Msg("close frame")
	}
	// the peer may never answer the close frame
	time.AfterFunc(writeWait, func() { _ = c.conn.Close() })
}

func (ctl *SignalWSController) readPump(c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", c.id).Msg("readPump closing")
		c.finish()
	}()

	c.conn.SetReadLimit(ctl.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, KickCloseCode) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", c.id).Msg("readPump read error")
			}
			return
		}
		fn := c.handler()
		if fn == nil {
			continue
		}
		fn(data, kind == websocket.BinaryMessage)
	}
}

const defaultPingPeriod = 54 * time.Second

func (ctl *SignalWSController) pingPeriod() time.Duration {
	if ctl.PingPeriod <= 0 {
		return defaultPingPeriod
	}
	return ctl.PingPeriod
}

func (ctl *SignalWSController) pongWait() time.Duration {
	return ctl.pingPeriod() * 10 / 9
}
