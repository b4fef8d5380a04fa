package terminal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Frame types, client to broker.
const (
	TypeCreate = "terminal-create"
	TypeInput  = "terminal-input"
	TypeResize = "terminal-resize"
	TypeKill   = "terminal-kill"
)

// Frame types, broker to client.
const (
	TypeCreated     = "terminal-created"
	TypeData        = "terminal-data"
	TypeExit        = "terminal-exit"
	TypeError       = "terminal-error"
	TypeReconnected = "terminal-reconnected"
)

// InboundFrame is any client frame. Fields unused by a type are ignored.
type InboundFrame struct {
	Type        string `json:"type"`
	SessionID   string `json:"sessionId,omitempty"`
	AgentID     string `json:"agentId,omitempty"`
	ProjectPath string `json:"projectPath,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	Data        string `json:"data,omitempty"`
	Cols        int    `json:"cols,omitempty"`
	Rows        int    `json:"rows,omitempty"`
}

// ParseFrame decodes and validates one client frame.
func ParseFrame(raw []byte) (*InboundFrame, error) {
	var f InboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the required fields for the frame type.
func (f *InboundFrame) Validate() error {
	switch f.Type {
	case TypeCreate:
		return nil
	case TypeInput, TypeKill:
		if f.SessionID == "" {
			return fmt.Errorf("%s: sessionId is required", f.Type)
		}
	case TypeResize:
		if f.SessionID == "" {
			return fmt.Errorf("%s: sessionId is required", f.Type)
		}
		if f.Cols < 0 || f.Rows < 0 || f.Cols > 0xffff || f.Rows > 0xffff {
			return fmt.Errorf("%s: cols and rows out of range", f.Type)
		}
	case "":
		return errors.New("frame type is required")
	default:
		return fmt.Errorf("unknown frame type %q", f.Type)
	}
	return nil
}

// OutboundMessage is any broker frame. Empty fields are omitted on the wire.
type OutboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Agent     string          `json:"agent,omitempty"`
	Data      string          `json:"data,omitempty"`
	ExitCode  *int            `json:"exitCode,omitempty"`
	Error     string          `json:"error,omitempty"`
	Sessions  []ReconnectInfo `json:"sessions,omitempty"`
}

// ReconnectInfo describes one session handed to a reconnecting transport.
type ReconnectInfo struct {
	ID         string `json:"id"`
	AgentID    string `json:"agentId"`
	Scrollback string `json:"scrollback"`
	Exited     bool   `json:"exited"`
	ExitCode   *int   `json:"exitCode"`
}

// SessionInfo is the read-only view of a session.
type SessionInfo struct {
	ID           string    `json:"id"`
	AgentID      string    `json:"agentId"`
	AgentName    string    `json:"agentName,omitempty"`
	ProjectPath  string    `json:"projectPath"`
	Created      time.Time `json:"created"`
	LastActivity time.Time `json:"lastActivity"`
	Exited       bool      `json:"exited"`
	ExitCode     *int      `json:"exitCode,omitempty"`
	Attached     bool      `json:"attached"`
	Pid          int       `json:"pid"`
}

func CreatedMessage(sessionID, agentName string) OutboundMessage {
	return OutboundMessage{Type: TypeCreated, SessionID: sessionID, Agent: agentName}
}

func DataMessage(sessionID, data string) OutboundMessage {
	return OutboundMessage{Type: TypeData, SessionID: sessionID, Data: data}
}

func ExitMessage(sessionID string, code int) OutboundMessage {
	return OutboundMessage{Type: TypeExit, SessionID: sessionID, ExitCode: &code}
}

func ErrorMessage(msg string) OutboundMessage {
	return OutboundMessage{Type: TypeError, Error: msg}
}

func ReconnectedMessage(sessions []ReconnectInfo) OutboundMessage {
	return OutboundMessage{Type: TypeReconnected, Sessions: sessions}
}
