//go:build !windows

package pty

import (
	"os"
	"os/exec"

	creackpty "github.com/creack/pty"
)

type unixHandle struct {
	f *os.File
}

func (h *unixHandle) Read(b []byte) (int, error)  { return h.f.Read(b) }
func (h *unixHandle) Write(b []byte) (int, error) { return h.f.Write(b) }
func (h *unixHandle) Close() error                { return h.f.Close() }

func (h *unixHandle) Resize(cols, rows uint16) error {
	return creackpty.Setsize(h.f, &creackpty.Winsize{Cols: cols, Rows: rows})
}

// startHandle starts cmd attached to a new PTY. creack/pty puts the child
// in a new session, so its pid is also its process group id.
func startHandle(cmd *exec.Cmd, cols, rows uint16) (Handle, error) {
	f, err := creackpty.StartWithSize(cmd, &creackpty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, err
	}
	return &unixHandle{f: f}, nil
}
