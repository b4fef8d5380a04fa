package terminal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFrame_Create(t *testing.T) {
	env := newTestEnv(t)
	tr := newFakeTransport("ws-1")

	env.registry.HandleFrame(context.Background(), tr, []byte(`{"type":"terminal-create","sessionId":"s1","agentId":"copilot"}`))

	assert.Equal(t, []OutboundMessage{CreatedMessage("s1", "GitHub Copilot")}, tr.Messages())
	assert.Equal(t, 1, env.registry.GetSessionCount())
}

func TestHandleFrame_CreateFailures(t *testing.T) {
	t.Run("no agent", func(t *testing.T) {
		env := newTestEnv(t)
		tr := newFakeTransport("ws-1")

		env.registry.HandleFrame(context.Background(), tr, []byte(`{"type":"terminal-create","agentId":"ghost"}`))

		require.Len(t, tr.Messages(), 1)
		assert.Equal(t, ErrorMessage("no agent configured"), tr.Messages()[0])
		assert.Zero(t, env.registry.GetSessionCount())
	})

	t.Run("spawn", func(t *testing.T) {
		env := newTestEnv(t)
		env.spawner.err = errSpawn
		tr := newFakeTransport("ws-1")

		env.registry.HandleFrame(context.Background(), tr, []byte(`{"type":"terminal-create","sessionId":"s1"}`))

		msgs := tr.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, TypeError, msgs[0].Type)
		assert.Equal(t, "s1", msgs[0].SessionID)
		assert.Contains(t, msgs[0].Error, "no such file or directory")
	})

	t.Run("duplicate id", func(t *testing.T) {
		env := newTestEnv(t)
		tr := newFakeTransport("ws-1")
		env.create(t, tr, CreateRequest{SessionID: "s1"})

		env.registry.HandleFrame(context.Background(), tr, []byte(`{"type":"terminal-create","sessionId":"s1"}`))

		msgs := tr.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "session already exists", msgs[1].Error)
		assert.Equal(t, 1, env.registry.GetSessionCount())
	})
}

func TestHandleFrame_InputResizeKill(t *testing.T) {
	env := newTestEnv(t)
	tr := newFakeTransport("ws-1")
	id, proc := env.create(t, tr, CreateRequest{SessionID: "s1"})

	env.registry.HandleFrame(context.Background(), tr, []byte(`{"type":"terminal-input","sessionId":"s1","data":"git status\r"}`))
	env.registry.HandleFrame(context.Background(), tr, []byte(`{"type":"terminal-resize","sessionId":"s1","cols":132,"rows":43}`))
	env.registry.HandleFrame(context.Background(), tr, []byte(`{"type":"terminal-kill","sessionId":"s1"}`))

	assert.Equal(t, []string{"git status\r"}, proc.Writes())
	assert.Equal(t, [][2]uint16{{132, 43}}, proc.Resizes())
	assert.Equal(t, 1, proc.Kills())
	_, ok := env.registry.GetSessionInfo(context.Background(), id)
	assert.False(t, ok)
}

func TestHandleFrame_MalformedIsAnsweredAndIsolated(t *testing.T) {
	env := newTestEnv(t)
	other := newFakeTransport("ws-other")
	_, proc := env.create(t, other, CreateRequest{})
	tr := newFakeTransport("ws-1")

	for _, raw := range []string{
		`not json`,
		`{"type":"terminal-input"}`,
		`{"type":"terminal-launch-missiles"}`,
		`[]`,
	} {
		assert.NotPanics(t, func() {
			env.registry.HandleFrame(context.Background(), tr, []byte(raw))
		}, raw)
	}

	for _, msg := range tr.Messages() {
		assert.Equal(t, TypeError, msg.Type)
		assert.NotEmpty(t, msg.Error)
	}
	assert.Len(t, tr.Messages(), 4)
	assert.Equal(t, 1, env.registry.GetSessionCount())
	assert.Empty(t, proc.Writes())
	assert.Equal(t, []string{TypeCreated}, other.Types())
}

func TestHandleFrame_UnknownSessionIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	tr := newFakeTransport("ws-1")

	env.registry.HandleFrame(context.Background(), tr, []byte(`{"type":"terminal-input","sessionId":"ghost","data":"x"}`))
	env.registry.HandleFrame(context.Background(), tr, []byte(`{"type":"terminal-kill","sessionId":"ghost"}`))

	assert.Empty(t, tr.Messages())
}
