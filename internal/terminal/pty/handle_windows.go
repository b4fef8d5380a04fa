//go:build windows

package pty

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/UserExistsError/conpty"
)

type windowsHandle struct {
	cpty *conpty.ConPty
}

func (h *windowsHandle) Read(b []byte) (int, error)  { return h.cpty.Read(b) }
func (h *windowsHandle) Write(b []byte) (int, error) { return h.cpty.Write(b) }
func (h *windowsHandle) Close() error                { return h.cpty.Close() }

func (h *windowsHandle) Resize(cols, rows uint16) error {
	return h.cpty.Resize(int(cols), int(rows))
}

// startHandle starts cmd inside a ConPTY. ConPTY creates the process itself,
// so cmd.Process is filled in afterwards for Wait and Kill.
func startHandle(cmd *exec.Cmd, cols, rows uint16) (Handle, error) {
	opts := []conpty.ConPtyOption{conpty.ConPtyDimensions(int(cols), int(rows))}
	if cmd.Dir != "" {
		opts = append(opts, conpty.ConPtyWorkDir(cmd.Dir))
	}
	if cmd.Env != nil {
		opts = append(opts, conpty.ConPtyEnv(cmd.Env))
	}

	cpty, err := conpty.Start(commandLine(cmd.Args), opts...)
	if err != nil {
		return nil, err
	}

	pid := cpty.Pid()
	proc, err := os.FindProcess(int(pid))
	if err != nil {
		_ = cpty.Close()
		return nil, fmt.Errorf("find conpty process %d: %w", pid, err)
	}
	cmd.Process = proc
	return &windowsHandle{cpty: cpty}, nil
}

// commandLine joins args using CommandLineToArgvW quoting.
func commandLine(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = syscall.EscapeArg(a)
	}
	return strings.Join(quoted, " ")
}
