package terminal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent"
	"github.com/TechnicallyShaun/camelot-sub000/internal/agent/store"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/metrics"
	"github.com/TechnicallyShaun/camelot-sub000/internal/events/bus"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal/pty"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal/shellcmd"
)

var testEpoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeProcess struct {
	mu      sync.Mutex
	pid     int
	writes  []string
	resizes [][2]uint16
	kills   int
	onKill  func()

	handlers pty.Handlers
}

func (p *fakeProcess) Write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, string(data))
	return nil
}

func (p *fakeProcess) Resize(cols, rows uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resizes = append(p.resizes, [2]uint16{cols, rows})
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.kills++
	hook := p.onKill
	p.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Writes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.writes...)
}

func (p *fakeProcess) Resizes() [][2]uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]uint16(nil), p.resizes...)
}

func (p *fakeProcess) Kills() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills
}

// emit and exit drive the registry callbacks the way the PTY reader would.
func (p *fakeProcess) emit(s string) { p.handlers.OnData([]byte(s)) }
func (p *fakeProcess) exit(code int) { p.handlers.OnExit(code) }

type fakeSpawner struct {
	mu      sync.Mutex
	err     error
	procs   []*fakeProcess
	opts    []pty.SpawnOptions
	onSpawn func(p *fakeProcess)
}

func (s *fakeSpawner) Spawn(opts pty.SpawnOptions, h pty.Handlers) (pty.Process, error) {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return nil, s.err
	}
	p := &fakeProcess{pid: 1000 + len(s.procs), handlers: h}
	s.procs = append(s.procs, p)
	s.opts = append(s.opts, opts)
	hook := s.onSpawn
	s.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return p, nil
}

func (s *fakeSpawner) last() *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[len(s.procs)-1]
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

type fakeTransport struct {
	id   string
	mu   sync.Mutex
	open bool
	msgs []OutboundMessage
}

func newFakeTransport(id string) *fakeTransport {
	return &fakeTransport{id: id, open: true}
}

func (t *fakeTransport) ID() string { return t.id }

func (t *fakeTransport) Send(msg OutboundMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		t.msgs = append(t.msgs, msg)
	}
}

func (t *fakeTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *fakeTransport) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = false
}

func (t *fakeTransport) Messages() []OutboundMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]OutboundMessage(nil), t.msgs...)
}

func (t *fakeTransport) Types() []string {
	var types []string
	for _, m := range t.Messages() {
		types = append(types, m.Type)
	}
	return types
}

// recordingBus captures published subjects synchronously, in order.
type recordingBus struct {
	mu       sync.Mutex
	subjects []string
}

func (b *recordingBus) Publish(_ context.Context, subject string, _ *bus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	return nil
}

func (b *recordingBus) Subscribe(string, bus.EventHandler) (bus.Subscription, error) {
	return nil, errors.New("recording bus does not deliver")
}

func (b *recordingBus) Close()            {}
func (b *recordingBus) IsConnected() bool { return true }

func (b *recordingBus) Subjects() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.subjects...)
}

type fakeAgents struct {
	mu      sync.Mutex
	defs    map[string]*agent.Definition
	primary string
	err     error
}

func newFakeAgents() *fakeAgents {
	return &fakeAgents{
		primary: "claude",
		defs: map[string]*agent.Definition{
			"claude": {
				ID:          "claude",
				Name:        "Claude Code",
				Command:     "claude",
				DefaultArgs: []string{"--dangerously-skip-permissions"},
				IsPrimary:   true,
			},
			"copilot": {
				ID:          "copilot",
				Name:        "GitHub Copilot",
				Command:     "copilot",
				DefaultArgs: []string{"--allow-all-tools"},
			},
		},
	}
}

func (a *fakeAgents) FindByID(_ context.Context, id string) (*agent.Definition, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	def, ok := a.defs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return def, nil
}

func (a *fakeAgents) FindPrimary(ctx context.Context) (*agent.Definition, error) {
	a.mu.Lock()
	primary := a.primary
	a.mu.Unlock()
	if primary == "" {
		return nil, store.ErrNotFound
	}
	return a.FindByID(ctx, primary)
}

func (a *fakeAgents) remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.defs, id)
}

type testEnv struct {
	registry *Registry
	spawner  *fakeSpawner
	agents   *fakeAgents
	clock    *testingclock.FakeClock
	metrics  *metrics.Metrics
	workDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		spawner: &fakeSpawner{},
		agents:  newFakeAgents(),
		clock:   testingclock.NewFakeClock(testEpoch),
		metrics: metrics.New(prometheus.NewRegistry()),
		workDir: t.TempDir(),
	}
	env.registry = NewRegistry(Deps{
		Agents:   env.agents,
		Spawner:  env.spawner,
		Clock:    env.clock,
		Platform: shellcmd.POSIX,
		Metrics:  env.metrics,
		Logger:   logger.NewNop(),
	}, Config{
		ScrollbackBytes: 64,
		StartupDelay:    500 * time.Millisecond,
		ExitedGrace:     5 * time.Minute,
		IdleTimeout:     24 * time.Hour,
		DefaultWorkDir:  env.workDir,
	})
	return env
}

func (e *testEnv) create(t *testing.T, tr Transport, req CreateRequest) (string, *fakeProcess) {
	t.Helper()
	id, err := e.registry.CreateSession(context.Background(), tr, req)
	require.NoError(t, err)
	return id, e.spawner.last()
}

var errSpawn = errors.New("fork/exec /bin/nope: no such file or directory")
