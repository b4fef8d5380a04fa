package events

import (
	"fmt"
	"strings"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/config"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/events/bus"
)

// Provide builds the configured event bus: NATS when a URL is set, in-memory otherwise.
// The returned cleanup closes the bus.
func Provide(cfg config.NATSConfig, log *logger.Logger) (bus.EventBus, func(), error) {
	if strings.TrimSpace(cfg.URL) != "" {
		natsBus, err := bus.NewNATSEventBus(cfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize nats event bus: %w", err)
		}
		return natsBus, natsBus.Close, nil
	}

	memBus := bus.NewMemoryEventBus(log)
	return memBus, memBus.Close, nil
}
