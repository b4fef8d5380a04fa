// Package pty runs interactive shells attached to pseudo-terminals.
package pty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
)

const (
	DefaultCols = 80
	DefaultRows = 30

	readBufferSize = 4096

	// drainTimeout bounds how long the exit path waits for the reader once the
	// shell has exited. Grandchildren can keep the terminal open indefinitely.
	drainTimeout = 2 * time.Second
)

// SpawnOptions configures one shell process.
type SpawnOptions struct {
	Dir  string
	Env  []string // KEY=VALUE pairs layered over the host environment
	Cols uint16
	Rows uint16
}

// Handlers receive process events. OnData is called from a single goroutine
// in output order; OnExit is called exactly once, after the last OnData.
type Handlers struct {
	OnData func(data []byte)
	OnExit func(exitCode int)
}

// Process is a running PTY-backed shell.
type Process interface {
	Write(data []byte) error
	Resize(cols, rows uint16) error
	// Kill terminates the process tree. Calling it again is a no-op.
	Kill() error
	Pid() int
}

// Spawner starts PTY processes.
type Spawner interface {
	Spawn(opts SpawnOptions, h Handlers) (Process, error)
}

// Config selects the shell. Empty Shell means detect per platform.
type Config struct {
	Shell     string
	ShellArgs []string
}

// ShellSpawner launches the platform's interactive shell.
type ShellSpawner struct {
	shell  string
	args   []string
	logger *logger.Logger
}

var _ Spawner = (*ShellSpawner)(nil)

// NewSpawner resolves the shell once for every later Spawn.
func NewSpawner(cfg Config, log *logger.Logger) *ShellSpawner {
	shell, args := detectShell()
	if cfg.Shell != "" {
		shell, args = cfg.Shell, cfg.ShellArgs
	}
	return &ShellSpawner{
		shell:  shell,
		args:   args,
		logger: log.WithFields(zap.String("component", "pty")),
	}
}

// Shell returns the resolved shell command.
func (s *ShellSpawner) Shell() string {
	return s.shell
}

// Spawn starts the shell. It fails synchronously when the process cannot start.
func (s *ShellSpawner) Spawn(opts SpawnOptions, h Handlers) (Process, error) {
	cols, rows := opts.Cols, opts.Rows
	if cols == 0 {
		cols = DefaultCols
	}
	if rows == 0 {
		rows = DefaultRows
	}

	cmd := exec.Command(s.shell, s.args...)
	cmd.Dir = opts.Dir
	cmd.Env = BuildEnv(os.Environ(), append(platformEnv(opts.Dir), opts.Env...))

	handle, err := startHandle(cmd, cols, rows)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", s.shell, err)
	}

	p := &process{
		cmd:        cmd,
		handle:     handle,
		handlers:   h,
		readerDone: make(chan struct{}),
		logger:     s.logger.WithFields(zap.Int("pid", cmd.Process.Pid)),
	}
	p.logger.Debug("pty process started",
		zap.String("shell", s.shell),
		zap.String("cwd", opts.Dir))

	go p.readLoop()
	go p.waitLoop()
	return p, nil
}

type process struct {
	cmd      *exec.Cmd
	handle   Handle
	handlers Handlers
	logger   *logger.Logger

	readerDone chan struct{}
	killOnce   sync.Once
	closeOnce  sync.Once
	killErr    error

	mu     sync.Mutex
	exited bool
}

func (p *process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *process) Write(data []byte) error {
	p.mu.Lock()
	exited := p.exited
	p.mu.Unlock()
	if exited {
		return os.ErrClosed
	}
	_, err := p.handle.Write(data)
	return err
}

func (p *process) Resize(cols, rows uint16) error {
	p.mu.Lock()
	exited := p.exited
	p.mu.Unlock()
	if exited {
		return os.ErrClosed
	}
	return p.handle.Resize(cols, rows)
}

func (p *process) Kill() error {
	p.killOnce.Do(func() {
		p.mu.Lock()
		exited := p.exited
		p.mu.Unlock()
		if exited {
			return
		}
		p.killErr = killTree(p.cmd)
		p.logger.Debug("pty process killed", zap.Error(p.killErr))
	})
	return p.killErr
}

func (p *process) readLoop() {
	defer close(p.readerDone)
	buf := make([]byte, readBufferSize)
	for {
		n, err := p.handle.Read(buf)
		if n > 0 && p.handlers.OnData != nil {
			data := make([]byte, n)
			copy(data, buf[:n])
			p.handlers.OnData(data)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				// EIO is the normal end of a Linux PTY once the child exits.
				p.logger.Debug("pty read ended", zap.Error(err))
			}
			return
		}
	}
}

func (p *process) waitLoop() {
	code := waitExit(p.cmd)

	select {
	case <-p.readerDone:
	case <-time.After(drainTimeout):
		p.closeHandle()
		<-p.readerDone
	}

	p.mu.Lock()
	p.exited = true
	p.mu.Unlock()
	p.closeHandle()

	p.logger.Debug("pty process exited", zap.Int("exit_code", code))
	if p.handlers.OnExit != nil {
		p.handlers.OnExit(code)
	}
}

func (p *process) closeHandle() {
	p.closeOnce.Do(func() {
		_ = p.handle.Close()
	})
}

// BuildEnv layers overrides on base. Later keys win, and TERM is always xterm-256color.
func BuildEnv(base, overrides []string) []string {
	index := make(map[string]int, len(base)+len(overrides)+1)
	env := make([]string, 0, len(base)+len(overrides)+1)
	set := func(kv string) {
		key, _, _ := strings.Cut(kv, "=")
		if i, ok := index[key]; ok {
			env[i] = kv
			return
		}
		index[key] = len(env)
		env = append(env, kv)
	}
	for _, kv := range base {
		set(kv)
	}
	for _, kv := range overrides {
		set(kv)
	}
	set("TERM=xterm-256color")
	return env
}
