package websocket

import (
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/config"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/metrics"
)

// Provide creates the terminal WebSocket gateway from configuration.
func Provide(cfg *config.Config, broker Broker, m *metrics.Metrics, log *logger.Logger) (*Gateway, error) {
	gateway := NewGateway(broker, Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SendBuffer:     cfg.Terminal.SendBuffer,
		Metrics:        m,
	}, log)
	return gateway, nil
}
