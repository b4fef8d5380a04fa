package pty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEnv(t *testing.T) {
	env := BuildEnv(
		[]string{"PATH=/usr/bin", "TERM=dumb", "HOME=/home/op"},
		[]string{"HOME=/tmp", "EXTRA=1"},
	)
	assert.Equal(t, []string{"PATH=/usr/bin", "TERM=xterm-256color", "HOME=/tmp", "EXTRA=1"}, env)
}

func TestNewSpawner_ShellOverride(t *testing.T) {
	s := NewSpawner(Config{Shell: "/bin/dash", ShellArgs: []string{"-i"}}, nopLogger())
	assert.Equal(t, "/bin/dash", s.Shell())
	assert.Equal(t, []string{"-i"}, s.args)
}

func TestNewSpawner_Detects(t *testing.T) {
	s := NewSpawner(Config{}, nopLogger())
	assert.NotEmpty(t, s.Shell())
}
