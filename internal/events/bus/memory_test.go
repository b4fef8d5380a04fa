package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
)

func receive(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	b := NewMemoryEventBus(logger.NewNop())
	defer b.Close()

	received := make(chan *Event, 1)
	sub, err := b.Subscribe("terminal.created", func(_ context.Context, e *Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)
	assert.True(t, sub.IsValid())

	event := NewEvent("terminal.created", "test", map[string]interface{}{"session_id": "s-1"})
	require.NoError(t, b.Publish(context.Background(), "terminal.created", event))

	got := receive(t, received)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, "s-1", got.Data["session_id"])
}

func TestMemoryEventBus_Wildcards(t *testing.T) {
	b := NewMemoryEventBus(logger.NewNop())
	defer b.Close()

	single := make(chan *Event, 4)
	tail := make(chan *Event, 4)
	_, err := b.Subscribe("terminal.*", func(_ context.Context, e *Event) error {
		single <- e
		return nil
	})
	require.NoError(t, err)
	_, err = b.Subscribe("terminal.>", func(_ context.Context, e *Event) error {
		tail <- e
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), "terminal.exited", NewEvent("terminal.exited", "test", nil)))
	require.NoError(t, b.Publish(context.Background(), "terminal.session.extra", NewEvent("x", "test", nil)))

	assert.Equal(t, "terminal.exited", receive(t, single).Type)
	assert.ElementsMatch(t, []string{"terminal.exited", "x"}, []string{receive(t, tail).Type, receive(t, tail).Type})

	select {
	case e := <-single:
		t.Fatalf("single-token wildcard matched %q", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryEventBus_Unsubscribe(t *testing.T) {
	b := NewMemoryEventBus(logger.NewNop())
	defer b.Close()

	received := make(chan *Event, 1)
	sub, err := b.Subscribe("terminal.killed", func(_ context.Context, e *Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, sub.Unsubscribe())
	assert.False(t, sub.IsValid())

	require.NoError(t, b.Publish(context.Background(), "terminal.killed", NewEvent("terminal.killed", "test", nil)))
	select {
	case <-received:
		t.Fatal("unsubscribed handler was called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryEventBus_Close(t *testing.T) {
	b := NewMemoryEventBus(logger.NewNop())
	assert.True(t, b.IsConnected())

	b.Close()
	assert.False(t, b.IsConnected())
	assert.ErrorIs(t, b.Publish(context.Background(), "a", NewEvent("a", "test", nil)), ErrBusClosed)
	_, err := b.Subscribe("a", func(context.Context, *Event) error { return nil })
	assert.ErrorIs(t, err, ErrBusClosed)
}
