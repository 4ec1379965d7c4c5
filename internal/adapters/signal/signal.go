package signal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/nestrischamps-rooms/internal/app"
	"github.com/dkeye/nestrischamps-rooms/internal/app/orch"
	"github.com/dkeye/nestrischamps-rooms/internal/core"
	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

// UserKey is the gin context key holding the identified *domain.User.
const UserKey = "user"

// SignalWSController upgrades room websockets and hands them to the
// orchestrator.
type SignalWSController struct {
	Orch       *orch.Orchestrator
	Users      core.UserDirectory
	Policy     app.Policy
	Limiter    *ConnectLimiter
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int

	// BaseCtx bounds the pumps; request contexts end with the handler.
	BaseCtx context.Context
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

// HandleAdmin serves GET /ws/admin.
func (ctl *SignalWSController) HandleAdmin(c *gin.Context) {
	user := CurrentUser(c)
	if !ctl.admit(c, user) {
		return
	}
	conn, ok := ctl.upgrade(c, ConnOptions{User: user})
	if !ok {
		return
	}
	if err := ctl.Orch.ConnectAdmin(conn); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(user.ID)).Msg("admin rejected")
	}
	ctl.Start(ctl.ctx(), conn)
}

// HandleProducer serves GET /ws/u/:login/producer and GET /ws/producer.
func (ctl *SignalWSController) HandleProducer(c *gin.Context) {
	user := CurrentUser(c)
	if !ctl.admit(c, user) {
		return
	}
	host, ok := ctl.host(c, user)
	if !ok {
		return
	}
	conn, ok := ctl.upgrade(c, ConnOptions{
		User:              user,
		PeerID:            c.Query("peerid"),
		RemoteCalibration: c.Query("remote_calibration") == "1",
	})
	if !ok {
		return
	}
	if err := ctl.Orch.ConnectProducer(host, conn); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(user.ID)).Msg("producer rejected")
	}
	ctl.Start(ctl.ctx(), conn)
}

// HandleView serves GET /ws/u/:login/view. Such views never become primary.
func (ctl *SignalWSController) HandleView(c *gin.Context) {
	host, ok := ctl.host(c, nil)
	if !ok {
		return
	}
	ctl.serveView(c, host, false)
}

// HandleSecretView serves GET /ws/view/:secret. The owner secret in the URL
// makes this view the room's primary view.
func (ctl *SignalWSController) HandleSecretView(c *gin.Context) {
	owner, err := ctl.Users.UserBySecret(c.Request.Context(), c.Param("secret"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ctl.serveView(c, owner.AsOwner(), true)
}

func (ctl *SignalWSController) serveView(c *gin.Context, host domain.Owner, secret bool) {
	conn, ok := ctl.upgrade(c, ConnOptions{
		User: CurrentUser(c),
		Meta: ViewMeta(c.Request.URL.Query()),
	})
	if !ok {
		return
	}
	ctl.Orch.ConnectView(host, conn, secret)
	ctl.Start(ctl.ctx(), conn)
}

// ViewMeta keeps the underscore-prefixed query parameters, first value wins.
func ViewMeta(q map[string][]string) map[string]string {
	meta := make(map[string]string)
	for k, vs := range q {
		if strings.HasPrefix(k, "_") && len(vs) > 0 {
			meta[k] = vs[0]
		}
	}
	return meta
}

func (ctl *SignalWSController) admit(c *gin.Context, user *domain.User) bool {
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrForbidden.Error()})
		return false
	}
	if !ctl.Limiter.Allow(user.ID) {
		log.Warn().Str("module", "signal").Str("user", string(user.ID)).Msg("connect rate limited")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many connections"})
		return false
	}
	return true
}

// host resolves the room owner from the :login path parameter, defaulting
// to the connecting user's own room.
func (ctl *SignalWSController) host(c *gin.Context, self *domain.User) (domain.Owner, bool) {
	login := c.Param("login")
	if login == "" {
		if self == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrUserNotFound.Error()})
			return domain.Owner{}, false
		}
		return self.AsOwner(), true
	}
	u, err := ctl.Users.UserByLogin(c.Request.Context(), login)
	if err != nil {
		ctl.fail(c, err)
		return domain.Owner{}, false
	}
	return u.AsOwner(), true
}

func (ctl *SignalWSController) fail(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	log.Error().Err(err).Str("module", "signal").Msg("user lookup")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (ctl *SignalWSController) upgrade(c *gin.Context, opts ConnOptions) (*WsConn, bool) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return nil, false
	}
	opts.SendBuffer = ctl.SendBuffer
	opts.Policy = ctl.Policy
	conn := NewWsConn(ws, opts)
	log.Info().Str("module", "signal").Str("conn", conn.ID()).Str("path", c.FullPath()).Msg("new WS connection")
	return conn, true
}

func (ctl *SignalWSController) ctx() context.Context {
	if ctl.BaseCtx == nil {
		return context.Background()
	}
	return ctl.BaseCtx
}
