package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/realtime"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty slice or "*" permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler upgrades clients onto the realtime hub.
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWSHandler constructs the handler.
func NewWSHandler(hub *realtime.Hub, allowedOrigins []string, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{hub: hub, upgrader: buildUpgrader(allowedOrigins), logger: logger}
}

// Stream godoc
// @Summary Console state change notifications
// @Description Upgrades to a websocket that receives {"event":"state_changed","component":...} messages.
// @Tags Console
// @Router /ws [get]
func (h *WSHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Serve(conn)
}
