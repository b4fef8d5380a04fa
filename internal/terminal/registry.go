// Package terminal brokers PTY-backed agent sessions to client transports.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent"
	"github.com/TechnicallyShaun/camelot-sub000/internal/agent/store"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/constants"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/metrics"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/tracing"
	"github.com/TechnicallyShaun/camelot-sub000/internal/events"
	"github.com/TechnicallyShaun/camelot-sub000/internal/events/bus"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal/pty"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal/shellcmd"
)

// Config holds the registry tunables.
type Config struct {
	ScrollbackBytes int
	StartupDelay    time.Duration
	ExitedGrace     time.Duration
	IdleTimeout     time.Duration
	DefaultWorkDir  string
	Cols            uint16
	Rows            uint16
}

// Deps are the collaborators of a Registry. Bus and Metrics are optional.
type Deps struct {
	Agents   store.Lookup
	Spawner  pty.Spawner
	Clock    clock.WithDelayedExecution
	Platform shellcmd.Platform
	Bus      bus.EventBus
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// CreateRequest carries the optional fields of a terminal-create frame.
type CreateRequest struct {
	SessionID   string
	AgentID     string
	ProjectPath string
	Prompt      string
}

// CleanupResult lists the sessions a Cleanup pass removed.
type CleanupResult struct {
	Removed []string // exited sessions past the grace window
	Killed  []string // running sessions past the idle timeout
}

// Registry is the only owner of the session map.
type Registry struct {
	deps   Deps
	cfg    Config
	logger *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry builds a Registry. Zero config values fall back to defaults.
func NewRegistry(deps Deps, cfg Config) *Registry {
	if cfg.ScrollbackBytes <= 0 {
		cfg.ScrollbackBytes = DefaultScrollbackBytes
	}
	if cfg.ExitedGrace <= 0 {
		cfg.ExitedGrace = constants.ExitedGrace
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = constants.IdleTimeout
	}
	if cfg.Cols == 0 {
		cfg.Cols = pty.DefaultCols
	}
	if cfg.Rows == 0 {
		cfg.Rows = pty.DefaultRows
	}
	if deps.Clock == nil {
		deps.Clock = clock.RealClock{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	return &Registry{
		deps:     deps,
		cfg:      cfg,
		logger:   deps.Logger.WithFields(zap.String("component", "terminal-registry")),
		sessions: make(map[string]*session),
	}
}

// CreateSession spawns a shell for the resolved agent, binds it to t and
// schedules the agent command to be typed after the startup delay.
func (r *Registry) CreateSession(ctx context.Context, t Transport, req CreateRequest) (string, error) {
	ctx, span := tracing.TraceSessionCreate(ctx, req.SessionID, req.AgentID)
	id, err := r.createSession(ctx, t, req)
	span.SetAttributes(attribute.String("session_id", id))
	tracing.EndSpan(span, err)
	return id, err
}

func (r *Registry) createSession(ctx context.Context, t Transport, req CreateRequest) (string, error) {
	id := req.SessionID
	if id != "" {
		r.mu.Lock()
		_, exists := r.sessions[id]
		r.mu.Unlock()
		if exists {
			r.countCreateFailure("exists")
			return "", fmt.Errorf("%w: %s", ErrSessionExists, id)
		}
	} else {
		id = uuid.New().String()
	}

	def, err := r.resolveAgent(ctx, req.AgentID)
	if err != nil {
		r.countCreateFailure("agent")
		return "", err
	}

	workDir := r.resolveWorkDir(req.ProjectPath)
	log := r.logger.WithSessionID(id).WithAgentID(def.ID)

	now := r.deps.Clock.Now()
	s := &session{
		id:           id,
		agentID:      def.ID,
		agentName:    def.Name,
		projectPath:  workDir,
		created:      now,
		lastActivity: now,
		scrollback:   NewScrollback(r.cfg.ScrollbackBytes),
	}

	proc, err := r.deps.Spawner.Spawn(pty.SpawnOptions{
		Dir:  workDir,
		Cols: r.cfg.Cols,
		Rows: r.cfg.Rows,
	}, pty.Handlers{
		OnData: func(data []byte) { r.onData(s, data) },
		OnExit: func(code int) { r.onExit(s, code) },
	})
	if err != nil {
		r.countCreateFailure("spawn")
		log.Error("failed to spawn terminal", zap.Error(err))
		return "", &SessionCreateError{SessionID: id, Cause: err}
	}

	command := shellcmd.Build(def, req.Prompt, r.deps.Platform) + r.deps.Platform.LineTerminator()

	r.mu.Lock()
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		_ = proc.Kill()
		r.countCreateFailure("exists")
		return "", fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	s.process = proc
	s.registered = true
	r.sessions[id] = s
	r.setActiveGauge()

	// Anything the shell printed before registration is flushed right after
	// the created frame, under the lock, so the client sees output in order.
	if t != nil && t.IsOpen() {
		s.transport = t
		t.Send(CreatedMessage(id, def.Name))
		if early := s.scrollback.Snapshot(); len(early) > len(s.utf8Tail) {
			t.Send(DataMessage(id, string(early[:len(early)-len(s.utf8Tail)])))
		}
		if s.exited {
			t.Send(ExitMessage(id, *s.exitCode))
		}
	}
	exitedEarly := s.exited
	var earlyCode int
	if exitedEarly {
		earlyCode = *s.exitCode
	} else {
		s.startTimer = r.deps.Clock.AfterFunc(r.cfg.StartupDelay, func() {
			r.typeCommand(id, command)
		})
	}
	r.mu.Unlock()

	if r.deps.Metrics != nil {
		r.deps.Metrics.SessionsCreated.Inc()
	}
	r.publish(events.TerminalCreated, map[string]interface{}{
		events.KeySessionID:   id,
		events.KeyAgentID:     def.ID,
		events.KeyProjectPath: workDir,
	})
	log.Info("terminal session created",
		zap.String("cwd", workDir),
		zap.Int("pid", proc.Pid()))
	if exitedEarly {
		r.announceExit(s, earlyCode, false)
	}
	return id, nil
}

func (r *Registry) resolveAgent(ctx context.Context, agentID string) (*agent.Definition, error) {
	var (
		def *agent.Definition
		err error
	)
	if agentID != "" {
		def, err = r.deps.Agents.FindByID(ctx, agentID)
	} else {
		def, err = r.deps.Agents.FindPrimary(ctx)
	}
	if errors.Is(err, store.ErrNotFound) {
		if agentID != "" {
			return nil, fmt.Errorf("%w: agent %q not found", ErrNoAgentConfigured, agentID)
		}
		return nil, fmt.Errorf("%w: no primary agent", ErrNoAgentConfigured)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve agent: %w", err)
	}
	return def, nil
}

// resolveWorkDir returns projectPath when it is an existing directory.
func (r *Registry) resolveWorkDir(projectPath string) string {
	if projectPath == "" {
		return r.cfg.DefaultWorkDir
	}
	if fi, err := os.Stat(projectPath); err == nil && fi.IsDir() {
		return projectPath
	}
	r.logger.Warn("project path not found, using default working directory",
		zap.String("project_path", projectPath),
		zap.String("default", r.cfg.DefaultWorkDir))
	return r.cfg.DefaultWorkDir
}

func (r *Registry) typeCommand(id, command string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || s.exited {
		r.mu.Unlock()
		return
	}
	proc := s.process
	r.mu.Unlock()

	if err := proc.Write([]byte(command)); err != nil {
		r.logger.WithSessionID(id).Warn("failed to type agent command", zap.Error(err))
	}
}

func (r *Registry) onData(s *session, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = s.scrollback.Write(data)
	s.lastActivity = r.deps.Clock.Now()
	if s.removed {
		return
	}
	if text := s.decode(data); text != "" {
		sendIfOpen(s.transport, DataMessage(s.id, text))
	}
}

func (r *Registry) onExit(s *session, code int) {
	r.mu.Lock()
	s.exited = true
	s.exitCode = &code
	if s.startTimer != nil {
		s.startTimer.Stop()
	}
	if !s.registered {
		// createSession reports the exit once the session is inserted.
		r.mu.Unlock()
		return
	}
	removed := s.removed
	if !removed {
		if len(s.utf8Tail) > 0 {
			sendIfOpen(s.transport, DataMessage(s.id, string(s.utf8Tail)))
			s.utf8Tail = nil
		}
		sendIfOpen(s.transport, ExitMessage(s.id, code))
	}
	r.mu.Unlock()

	r.announceExit(s, code, removed)
}

func (r *Registry) announceExit(s *session, code int, removed bool) {
	if r.deps.Metrics != nil {
		r.deps.Metrics.SessionsExited.Inc()
	}
	r.publish(events.TerminalExited, map[string]interface{}{
		events.KeySessionID: s.id,
		events.KeyAgentID:   s.agentID,
		events.KeyExitCode:  code,
	})
	r.logger.WithSessionID(s.id).Info("terminal process exited",
		zap.Int("exit_code", code),
		zap.Bool("removed", removed))
}

// WriteToSession writes data to the session's process. Unknown ids are logged, not returned.
func (r *Registry) WriteToSession(id string, data []byte) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("write to unknown session", zap.String("session_id", id), zap.Error(ErrUnknownSession))
		return
	}
	if s.exited {
		r.mu.Unlock()
		r.logger.Debug("dropping write to exited session", zap.String("session_id", id))
		return
	}
	s.lastActivity = r.deps.Clock.Now()
	proc := s.process
	r.mu.Unlock()

	if err := proc.Write(data); err != nil {
		r.logger.WithSessionID(id).Warn("failed to write to terminal", zap.Error(err))
	}
}

// ResizeSession resizes the session's PTY. Unknown ids and zero sizes are logged and ignored.
func (r *Registry) ResizeSession(id string, cols, rows uint16) {
	if cols == 0 || rows == 0 {
		r.logger.Warn("ignoring resize with zero dimension",
			zap.String("session_id", id),
			zap.Uint16("cols", cols),
			zap.Uint16("rows", rows))
		return
	}

	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("resize of unknown session", zap.String("session_id", id), zap.Error(ErrUnknownSession))
		return
	}
	if s.exited {
		r.mu.Unlock()
		r.logger.Debug("dropping resize of exited session", zap.String("session_id", id))
		return
	}
	proc := s.process
	r.mu.Unlock()

	if err := proc.Resize(cols, rows); err != nil {
		r.logger.WithSessionID(id).Warn("failed to resize terminal", zap.Error(err))
	}
}

// KillSession kills the process and removes the session at once. It reports
// whether a session was removed.
func (r *Registry) KillSession(id string) bool {
	return r.kill(id, events.TerminalKilled, nil)
}

// kill removes the session and kills its process. When due is set it is
// re-evaluated under the lock and the session is left alone if it returns false.
func (r *Registry) kill(id, subject string, due func(*session) bool) bool {
	_, span := tracing.TraceSessionKill(context.Background(), id, subject)
	defer span.End()

	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || (due != nil && !due(s)) {
		r.mu.Unlock()
		return false
	}
	r.removeLocked(s)
	proc := s.process
	r.mu.Unlock()

	// Kill is idempotent and a no-op once the process has exited.
	if err := proc.Kill(); err != nil {
		r.logger.WithSessionID(id).Warn("failed to kill terminal process", zap.Error(err))
	}

	if r.deps.Metrics != nil && subject == events.TerminalKilled {
		r.deps.Metrics.SessionsKilled.Inc()
	}
	data := map[string]interface{}{
		events.KeySessionID: id,
		events.KeyAgentID:   s.agentID,
	}
	if subject == events.TerminalReaped {
		data[events.KeyReason] = "idle"
	}
	r.publish(subject, data)
	r.logger.WithSessionID(id).Info("terminal session killed", zap.String("reason", subject))
	return true
}

func (r *Registry) removeLocked(s *session) {
	s.removed = true
	s.transport = nil
	if s.startTimer != nil {
		s.startTimer.Stop()
	}
	delete(r.sessions, s.id)
	r.setActiveGauge()
}

// KillSessionsForTransport handles a disconnect: exited sessions bound to t
// are deleted, running ones are unbound and keep running.
func (r *Registry) KillSessionsForTransport(t Transport) {
	r.mu.Lock()
	var removed, detached int
	for _, s := range r.sessions {
		if !sameTransport(s.transport, t) {
			continue
		}
		if s.exited {
			r.removeLocked(s)
			removed++
			continue
		}
		s.transport = nil
		detached++
	}
	r.mu.Unlock()

	if removed+detached > 0 {
		r.logger.Info("transport disconnected",
			zap.String("transport_id", t.ID()),
			zap.Int("removed", removed),
			zap.Int("detached", detached))
	}
}

// Reconnect binds every running session to t and replays its scrollback in a
// single terminal-reconnected frame. Exited sessions are reported once so the
// client sees the exit code, then deleted.
func (r *Registry) Reconnect(t Transport) []ReconnectInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]ReconnectInfo, 0, len(r.sessions))
	for _, s := range r.sortedLocked() {
		infos = append(infos, s.reconnectInfo())
		if s.exited {
			r.removeLocked(s)
			continue
		}
		s.transport = t
		s.utf8Tail = nil
	}
	if len(infos) > 0 {
		sendIfOpen(t, ReconnectedMessage(infos))
		r.logger.Info("transport reconnected",
			zap.String("transport_id", t.ID()),
			zap.Int("sessions", len(infos)))
	}
	return infos
}

// GetSessions returns every session ordered by creation time.
func (r *Registry) GetSessions() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sortedLocked() {
		out = append(out, s.info())
	}
	return out
}

func (r *Registry) GetSessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// GetSessionInfo returns false when the session or its agent definition no longer resolves.
func (r *Registry) GetSessionInfo(ctx context.Context, id string) (*SessionInfo, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	var info SessionInfo
	if ok {
		info = s.info()
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	def, err := r.deps.Agents.FindByID(ctx, info.AgentID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.WithSessionID(id).Warn("failed to resolve session agent", zap.Error(err))
		}
		return nil, false
	}
	info.AgentName = def.Name
	return &info, true
}

// Cleanup removes exited sessions idle longer than the grace window and
// kills running sessions idle longer than the idle timeout. Idle time is
// measured from the last activity.
func (r *Registry) Cleanup(now time.Time) CleanupResult {
	var (
		res   CleanupResult
		stale []string
	)
	idleTooLong := func(s *session) bool {
		return !s.exited && now.Sub(s.lastActivity) > r.cfg.IdleTimeout
	}

	r.mu.Lock()
	for _, s := range r.sortedLocked() {
		switch {
		case s.exited && now.Sub(s.lastActivity) > r.cfg.ExitedGrace:
			r.removeLocked(s)
			res.Removed = append(res.Removed, s.id)
		case idleTooLong(s):
			stale = append(stale, s.id)
		}
	}
	r.mu.Unlock()

	for _, id := range res.Removed {
		r.publish(events.TerminalReaped, map[string]interface{}{
			events.KeySessionID: id,
			events.KeyReason:    "exited",
		})
	}
	// Input may land between the scan and the kill, so each kill re-checks.
	for _, id := range stale {
		if r.kill(id, events.TerminalReaped, idleTooLong) {
			res.Killed = append(res.Killed, id)
		}
	}

	if r.deps.Metrics != nil {
		r.deps.Metrics.SessionsReaped.WithLabelValues("exited").Add(float64(len(res.Removed)))
		r.deps.Metrics.SessionsReaped.WithLabelValues("idle").Add(float64(len(res.Killed)))
	}
	if len(res.Removed)+len(res.Killed) > 0 {
		r.logger.Info("terminal cleanup",
			zap.Strings("removed", res.Removed),
			zap.Strings("killed", res.Killed))
	}
	return res
}

// Shutdown kills every session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.KillSession(id)
	}
	r.logger.Info("terminal registry shut down", zap.Int("killed", len(ids)))
}

func (r *Registry) sortedLocked() []*session {
	list := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].created.Equal(list[j].created) {
			return list[i].id < list[j].id
		}
		return list[i].created.Before(list[j].created)
	})
	return list
}

func (r *Registry) setActiveGauge() {
	if r.deps.Metrics != nil {
		r.deps.Metrics.SessionsActive.Set(float64(len(r.sessions)))
	}
}

func (r *Registry) countCreateFailure(reason string) {
	if r.deps.Metrics != nil {
		r.deps.Metrics.SessionsCreateFailed.WithLabelValues(reason).Inc()
	}
}

func (r *Registry) publish(subject string, data map[string]interface{}) {
	if err := events.PublishTerminal(context.Background(), r.deps.Bus, subject, data); err != nil {
		r.logger.Warn("failed to publish terminal event", zap.String("subject", subject), zap.Error(err))
	}
}
