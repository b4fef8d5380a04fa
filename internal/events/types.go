// Package events defines the terminal lifecycle subjects published on the event bus.
package events

import (
	"context"
	"fmt"

	"github.com/TechnicallyShaun/camelot-sub000/internal/events/bus"
)

// Subjects for terminal sessions
const (
	TerminalCreated = "terminal.created"
	TerminalExited  = "terminal.exited"
	TerminalKilled  = "terminal.killed"
	TerminalReaped  = "terminal.reaped"

	// TerminalAll matches every terminal subject.
	TerminalAll = "terminal.>"
)

// Event data keys
const (
	KeySessionID   = "session_id"
	KeyAgentID     = "agent_id"
	KeyProjectPath = "project_path"
	KeyExitCode    = "exit_code"
	KeyReason      = "reason"
)

// Source is the event source name used by camelot components.
const Source = "terminal-broker"

// PublishTerminal publishes a terminal lifecycle event on subject.
// A nil bus is a no-op so components can run without one.
func PublishTerminal(ctx context.Context, eb bus.EventBus, subject string, data map[string]interface{}) error {
	if eb == nil {
		return nil
	}
	if err := eb.Publish(ctx, subject, bus.NewEvent(subject, Source, data)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
