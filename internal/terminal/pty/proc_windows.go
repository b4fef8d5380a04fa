//go:build windows

package pty

import (
	"os/exec"
	"strconv"
)

// killTree kills the process tree with taskkill, falling back to Process.Kill.
func killTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(cmd.Process.Pid)).Run(); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}

// waitExit waits on the process directly since ConPTY, not cmd.Start, created it.
func waitExit(cmd *exec.Cmd) int {
	state, err := cmd.Process.Wait()
	if err != nil {
		return 1
	}
	return state.ExitCode()
}

// detectShell prefers PowerShell 7, then Windows PowerShell.
func detectShell() (string, []string) {
	for _, sh := range []string{"pwsh.exe", "powershell.exe"} {
		if _, err := exec.LookPath(sh); err == nil {
			return sh, []string{"-NoLogo"}
		}
	}
	return "powershell.exe", []string{"-NoLogo"}
}

func platformEnv(string) []string {
	return nil
}
