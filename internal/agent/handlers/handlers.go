// Package handlers exposes agent definitions over HTTP.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent"
	"github.com/TechnicallyShaun/camelot-sub000/internal/agent/store"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
)

type Handlers struct {
	store  store.Store
	logger *logger.Logger
}

func NewHandlers(s store.Store, log *logger.Logger) *Handlers {
	return &Handlers{
		store:  s,
		logger: log.WithFields(zap.String("component", "agent-handlers")),
	}
}

func RegisterRoutes(router gin.IRouter, s store.Store, log *logger.Logger) {
	h := NewHandlers(s, log)
	api := router.Group("/api/agents")
	api.GET("", h.httpListAgents)
	api.GET("/:id", h.httpGetAgent)
	api.PUT("/:id", h.httpPutAgent)
	api.DELETE("/:id", h.httpDeleteAgent)
	api.POST("/:id/primary", h.httpSetPrimary)
}

func (h *Handlers) httpListAgents(c *gin.Context) {
	defs, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list agents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list agents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": defs})
}

func (h *Handlers) httpGetAgent(c *gin.Context) {
	def, err := h.store.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, def)
}

type putAgentRequest struct {
	Name        string   `json:"name"`
	Command     string   `json:"command"`
	DefaultArgs []string `json:"defaultArgs"`
	Model       string   `json:"model"`
	IsPrimary   bool     `json:"isPrimary"`
}

func (h *Handlers) httpPutAgent(c *gin.Context) {
	var body putAgentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	def := &agent.Definition{
		ID:          c.Param("id"),
		Name:        body.Name,
		Command:     body.Command,
		DefaultArgs: body.DefaultArgs,
		Model:       body.Model,
		IsPrimary:   body.IsPrimary,
	}
	if err := def.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.store.Upsert(ctx, def); err != nil {
		h.writeStoreError(c, "upsert", err)
		return
	}
	saved, err := h.store.FindByID(ctx, def.ID)
	if err != nil {
		h.writeStoreError(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handlers) httpDeleteAgent(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeStoreError(c, "delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) httpSetPrimary(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.store.SetPrimary(ctx, id); err != nil {
		h.writeStoreError(c, "set primary", err)
		return
	}
	def, err := h.store.FindByID(ctx, id)
	if err != nil {
		h.writeStoreError(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (h *Handlers) writeStoreError(c *gin.Context, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	}
	h.logger.Error("agent store "+op+" failed", zap.String("agent_id", c.Param("id")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + op + " agent"})
}
