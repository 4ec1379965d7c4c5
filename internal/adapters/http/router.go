package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/nestrischamps-rooms/internal/adapters/signal"
	"github.com/dkeye/nestrischamps-rooms/internal/app"
	"github.com/dkeye/nestrischamps-rooms/internal/app/orch"
	"github.com/dkeye/nestrischamps-rooms/internal/config"
	"github.com/dkeye/nestrischamps-rooms/internal/core"
	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	api "github.com/dkeye/nestrischamps-rooms/internal/transport/http"
)

const (
	sessionName = "ntc_session"
	sessionUID  = "uid"
)

// IdentifyMiddleware resolves the caller from the session cookie, or from
// an owner secret given as a bearer token or a ?token= query parameter. A
// secret match is remembered in the session. Unknown callers pass through
// anonymous.
func IdentifyMiddleware(users core.UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess := sessions.Default(c)

		if uid, ok := sess.Get(sessionUID).(string); ok && uid != "" {
			u, err := users.UserByID(ctx, domain.UserID(uid))
			if err == nil {
				c.Set(signal.UserKey, u)
				c.Next()
				return
			}
			if !errors.Is(err, domain.ErrUserNotFound) {
				log.Error().Err(err).Str("module", "adapters.http").Msg("session user lookup")
			}
			sess.Delete(sessionUID)
		}

		if secret := bearerSecret(c); secret != "" {
			u, err := users.UserBySecret(ctx, secret)
			switch {
			case err == nil:
				c.Set(signal.UserKey, u)
				sess.Set(sessionUID, string(u.ID))
				if err := sess.Save(); err != nil {
					log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
				}
			case !errors.Is(err, domain.ErrUserNotFound):
				log.Error().Err(err).Str("module", "adapters.http").Msg("secret lookup")
			}
		}
		c.Next()
	}
}

func bearerSecret(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

// Deps groups what the router hands to its handlers.
type Deps struct {
	Orch    *orch.Orchestrator
	Users   core.UserDirectory
	Limiter *signal.ConnectLimiter
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(IdentifyMiddleware(deps.Users))

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctl := &signal.SignalWSController{
		Orch:       deps.Orch,
		Users:      deps.Users,
		Policy:     app.SimplePolicy{},
		Limiter:    deps.Limiter,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.SendBuffer,
		BaseCtx:    ctx,
	}

	ws := r.Group("/ws")
	ws.GET("/admin", ctl.HandleAdmin)
	ws.GET("/producer", ctl.HandleProducer)
	ws.GET("/u/:login/producer", ctl.HandleProducer)
	ws.GET("/u/:login/view", ctl.HandleView)
	ws.GET("/view/:secret", ctl.HandleSecretView)

	(&api.API{Orch: deps.Orch}).Register(r.Group("/api"))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
