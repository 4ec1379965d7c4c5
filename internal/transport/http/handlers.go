package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/nestrischamps-rooms/internal/adapters/signal"
	"github.com/dkeye/nestrischamps-rooms/internal/app/orch"
	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

// API serves the JSON endpoints next to the websockets.
type API struct {
	Orch *orch.Orchestrator
}

type RPCResponse struct {
	OK bool `json:"ok"`
}

type CloseResponse struct {
	Closed bool `json:"closed"`
}

func (a *API) Register(r gin.IRouter) {
	r.GET("/rooms", a.handleRooms)
	r.POST("/host/rpc", a.handleHostRPC)
	r.DELETE("/room", a.handleCloseRoom)
}

func (a *API) handleRooms(c *gin.Context) {
	c.JSON(http.StatusOK, a.Orch.Rooms.List())
}

// handleHostRPC runs a whitelisted command against the caller's own room.
// The body is a [name, ...args] array.
func (a *API) handleHostRPC(c *gin.Context) {
	user := signal.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrForbidden.Error()})
		return
	}
	var msg protocol.Message
	if err := c.ShouldBindJSON(&msg); err != nil || msg.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid command"})
		return
	}
	if err := a.Orch.HostRPC(c.Request.Context(), user, msg); err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case orch.IsClientError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Str("module", "transport.http").Msg("host rpc")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, RPCResponse{OK: true})
}

func (a *API) handleCloseRoom(c *gin.Context) {
	user := signal.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrForbidden.Error()})
		return
	}
	closed := a.Orch.EvictRoom(user.ID, "room_closed")
	c.JSON(http.StatusOK, CloseResponse{Closed: closed})
}
