package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAgentConfigured means neither the requested nor a primary agent resolved.
	ErrNoAgentConfigured = errors.New("no agent configured")
	// ErrSessionCreateFailed matches any *SessionCreateError.
	ErrSessionCreateFailed = errors.New("session create failed")
	// ErrUnknownSession is reported in logs and HTTP 404s, never returned by writes.
	ErrUnknownSession = errors.New("unknown session")
	// ErrSessionExists rejects a caller-supplied id that is already registered.
	ErrSessionExists = errors.New("session already exists")
)

// SessionCreateError wraps the spawn failure for a session.
type SessionCreateError struct {
	SessionID string
	Cause     error
}

func (e *SessionCreateError) Error() string {
	return fmt.Sprintf("create session %s: %v", e.SessionID, e.Cause)
}

func (e *SessionCreateError) Unwrap() error { return e.Cause }

func (e *SessionCreateError) Is(target error) bool {
	return target == ErrSessionCreateFailed
}
