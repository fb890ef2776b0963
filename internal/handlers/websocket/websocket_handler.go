// internal/handlers/websocket/websocket_handler.go
package websocket

import (
	"net/http"

	"timesoffice-service/internal/middleware"
	"timesoffice-service/internal/pkg/auth"
	"timesoffice-service/internal/pkg/response"
	ws "timesoffice-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Desktop clients connect from a file origin.
		return true
	},
}

type WebSocketHandler struct {
	hub     *ws.Hub
	manager *auth.Manager
	logger  *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, manager *auth.Manager, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     hub,
		manager: manager,
		logger:  logger,
	}
}

// HandleConnection authenticates the operator, upgrades the connection
// and registers it with the hub.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := middleware.ExtractToken(c)
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "missing authentication token", nil)
		return
	}

	claims, err := h.manager.Verify(token)
	if err != nil {
		h.logger.Error("websocket authentication failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		response.Error(c, http.StatusUnauthorized, "authentication failed", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, claims.Subject, h.logger)
	h.hub.Register <- client

	h.logger.Info("websocket client connected",
		zap.String("operator", claims.Subject),
		zap.String("ip", c.ClientIP()),
	)

	go client.WritePump()
	go client.ReadPump()
}

// Stats reports the number of connected clients.
func (h *WebSocketHandler) Stats(c *gin.Context) {
	response.Success(c, http.StatusOK, "websocket stats", gin.H{
		"clients": h.hub.TotalClients(),
	})
}
