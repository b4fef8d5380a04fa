package events

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/events/bus"
)

// SubscribeAudit logs every terminal lifecycle event published on eb.
// NATS deployments may run further consumers on the same subjects.
func SubscribeAudit(eb bus.EventBus, log *logger.Logger) (bus.Subscription, error) {
	audit := log.WithFields(zap.String("component", "terminal-audit"))
	sub, err := eb.Subscribe(TerminalAll, func(_ context.Context, e *bus.Event) error {
		fields := []zap.Field{
			zap.String("subject", e.Type),
			zap.String("event_id", e.ID),
			zap.Time("at", e.Timestamp),
		}
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, zap.Any(k, e.Data[k]))
		}
		audit.Info("terminal lifecycle event", fields...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe terminal audit: %w", err)
	}
	return sub, nil
}
