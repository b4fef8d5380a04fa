package terminal

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/stringutil"
)

// maxLoggedFrame caps how much of a rejected frame is logged.
const maxLoggedFrame = 256

// HandleFrame decodes one client frame from t and applies it. Malformed
// frames and create failures are answered with a terminal-error frame.
func (r *Registry) HandleFrame(ctx context.Context, t Transport, raw []byte) {
	frame, err := ParseFrame(raw)
	if err != nil {
		r.logger.Warn("rejecting client frame",
			zap.String("transport_id", t.ID()),
			zap.String("frame", stringutil.TruncateWithEllipsis(string(raw), maxLoggedFrame)),
			zap.Error(err))
		sendIfOpen(t, ErrorMessage(err.Error()))
		return
	}

	switch frame.Type {
	case TypeCreate:
		_, err := r.CreateSession(ctx, t, CreateRequest{
			SessionID:   frame.SessionID,
			AgentID:     frame.AgentID,
			ProjectPath: frame.ProjectPath,
			Prompt:      frame.Prompt,
		})
		if err != nil {
			msg := ErrorMessage(createErrorText(err))
			msg.SessionID = frame.SessionID
			sendIfOpen(t, msg)
		}
	case TypeInput:
		r.WriteToSession(frame.SessionID, []byte(frame.Data))
	case TypeResize:
		r.ResizeSession(frame.SessionID, uint16(frame.Cols), uint16(frame.Rows))
	case TypeKill:
		if !r.KillSession(frame.SessionID) {
			r.logger.Debug("kill of unknown session", zap.String("session_id", frame.SessionID))
		}
	}
}

func createErrorText(err error) string {
	switch {
	case errors.Is(err, ErrNoAgentConfigured):
		return ErrNoAgentConfigured.Error()
	case errors.Is(err, ErrSessionExists):
		return ErrSessionExists.Error()
	case errors.Is(err, ErrSessionCreateFailed):
		return err.Error()
	default:
		return ErrSessionCreateFailed.Error()
	}
}
