package websocket

import (
	"github.com/gin-gonic/gin"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/metrics"
)

// Options configures the gateway.
type Options struct {
	AllowedOrigins []string
	SendBuffer     int
	Metrics        *metrics.Metrics
}

// Gateway represents the terminal WebSocket gateway
type Gateway struct {
	Hub     *Hub
	Handler *Handler
	logger  *logger.Logger
}

// NewGateway creates a new WebSocket gateway with all components initialized
func NewGateway(broker Broker, opts Options, log *logger.Logger) *Gateway {
	hub := NewHub(broker, opts.Metrics, log)
	return &Gateway{
		Hub:     hub,
		Handler: NewHandler(hub, opts.AllowedOrigins, opts.SendBuffer, log),
		logger:  log,
	}
}

// SetupRoutes adds the WebSocket routes to the Gin engine
func (g *Gateway) SetupRoutes(router gin.IRouter) {
	router.GET("/ws", g.Handler.HandleConnection)
}
