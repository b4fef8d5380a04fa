package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/events/bus"
)

func TestSubscribeAudit_LogsTerminalEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	eb := bus.NewMemoryEventBus(logger.NewNop())
	t.Cleanup(eb.Close)

	sub, err := SubscribeAudit(eb, logger.FromZap(zap.New(core)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	require.NoError(t, PublishTerminal(context.Background(), eb, TerminalExited, map[string]interface{}{
		KeySessionID: "s1",
		KeyExitCode:  1,
	}))
	require.NoError(t, eb.Publish(context.Background(), "agent.updated", bus.NewEvent("agent.updated", Source, nil)))

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("terminal lifecycle event").Len() == 1
	}, time.Second, 5*time.Millisecond)

	entry := logs.FilterMessage("terminal lifecycle event").All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, TerminalExited, fields["subject"])
	assert.Equal(t, "s1", fields[KeySessionID])
	assert.Equal(t, "terminal-audit", fields["component"])
}

func TestSubscribeAudit_ClosedBus(t *testing.T) {
	eb := bus.NewMemoryEventBus(logger.NewNop())
	eb.Close()

	_, err := SubscribeAudit(eb, logger.NewNop())
	assert.Error(t, err)
}
