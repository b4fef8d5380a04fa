package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
)

// Handler handles WebSocket connections
type Handler struct {
	hub        *Hub
	upgrader   gorillaws.Upgrader
	sendBuffer int
	logger     *logger.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, allowedOrigins []string, sendBuffer int, log *logger.Logger) *Handler {
	origins := newOriginChecker(allowedOrigins)
	return &Handler{
		hub: hub,
		// Larger buffers keep full-screen TUIs responsive.
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     origins.check,
		},
		sendBuffer: sendBuffer,
		logger:     log.WithFields(zap.String("component", "ws_handler")),
	}
}

// HandleConnection upgrades HTTP to WebSocket, replays live sessions and
// then serves frames until the connection closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	clientID := uuid.New().String()
	h.logger.Debug("WebSocket connection established",
		zap.String("client_id", clientID),
		zap.String("remote_addr", c.Request.RemoteAddr),
	)

	client := NewClient(clientID, conn, h.hub, h.sendBuffer, h.logger)
	if !h.hub.Register(client) {
		_ = conn.WriteMessage(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(gorillaws.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	go client.WritePump()
	if n := h.hub.Attach(client); n > 0 {
		client.logger.Info("Reattached sessions", zap.Int("sessions", n))
	}
	client.ReadPump(c.Request.Context())
}
