// Package handlers exposes terminal sessions over HTTP.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal"
)

// Sessions is the part of *terminal.Registry the HTTP API needs.
type Sessions interface {
	GetSessions() []terminal.SessionInfo
	GetSessionInfo(ctx context.Context, id string) (*terminal.SessionInfo, bool)
	KillSession(id string) bool
}

type Handlers struct {
	sessions Sessions
	logger   *logger.Logger
}

func NewHandlers(s Sessions, log *logger.Logger) *Handlers {
	return &Handlers{
		sessions: s,
		logger:   log.WithFields(zap.String("component", "terminal-handlers")),
	}
}

func RegisterRoutes(router gin.IRouter, s Sessions, log *logger.Logger) {
	h := NewHandlers(s, log)
	api := router.Group("/api/terminals")
	api.GET("", h.httpListSessions)
	api.GET("/:id", h.httpGetSession)
	api.DELETE("/:id", h.httpKillSession)
}

func (h *Handlers) httpListSessions(c *gin.Context) {
	sessions := h.sessions.GetSessions()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (h *Handlers) httpGetSession(c *gin.Context) {
	info, ok := h.sessions.GetSessionInfo(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": terminal.ErrUnknownSession.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handlers) httpKillSession(c *gin.Context) {
	id := c.Param("id")
	if !h.sessions.KillSession(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": terminal.ErrUnknownSession.Error()})
		return
	}
	h.logger.Info("terminal session killed over HTTP", zap.String("session_id", id))
	c.Status(http.StatusNoContent)
}
