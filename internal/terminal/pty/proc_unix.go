//go:build !windows

package pty

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// killTree sends SIGKILL to the child's process group so grandchildren die too.
func killTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return cmd.Process.Kill()
	}
	return nil
}

// waitExit waits for cmd and returns its exit code, 128+signal when signaled.
func waitExit(cmd *exec.Cmd) int {
	err := cmd.Wait()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return exitErr.ExitCode()
}

// detectShell returns $SHELL as a login shell, or the first of bash, zsh, sh found.
func detectShell() (string, []string) {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, []string{"-l"}
	}
	for _, sh := range []string{"/bin/bash", "/bin/zsh", "/bin/sh"} {
		if _, err := os.Stat(sh); err == nil {
			return sh, []string{"-l"}
		}
	}
	return "/bin/sh", nil
}

func platformEnv(dir string) []string {
	return []string{"PWD=" + dir}
}
