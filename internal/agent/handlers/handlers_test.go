package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent"
	"github.com/TechnicallyShaun/camelot-sub000/internal/agent/store"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/config"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/db"
)

func setupRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool, err := db.Open(config.DatabaseConfig{Driver: "sqlite3", Path: filepath.Join(t.TempDir(), "agents.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	s, err := store.Provide(pool)
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(router, s, logger.NewNop())
	return router, s
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAgentHandlers(t *testing.T) {
	router, s := setupRouter(t)
	ctx := context.Background()

	t.Run("put creates definition", func(t *testing.T) {
		w := do(router, http.MethodPut, "/api/agents/claude", `{"name":"Claude","command":"claude","defaultArgs":["--verbose"],"isPrimary":true}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var def agent.Definition
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
		assert.Equal(t, "claude", def.ID)
		assert.Equal(t, []string{"--verbose"}, def.DefaultArgs)
		assert.True(t, def.IsPrimary)
	})

	t.Run("put validates", func(t *testing.T) {
		w := do(router, http.MethodPut, "/api/agents/bad", `{"name":"Bad"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(router, http.MethodPut, "/api/agents/bad", `not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list and get", func(t *testing.T) {
		require.NoError(t, s.Upsert(ctx, &agent.Definition{ID: "copilot", Name: "Copilot", Command: "copilot"}))

		w := do(router, http.MethodGet, "/api/agents", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Agents []agent.Definition `json:"agents"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Agents, 2)

		w = do(router, http.MethodGet, "/api/agents/copilot", "")
		assert.Equal(t, http.StatusOK, w.Code)

		w = do(router, http.MethodGet, "/api/agents/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("set primary", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/agents/copilot/primary", "")
		require.Equal(t, http.StatusOK, w.Code)

		primary, err := s.FindPrimary(ctx)
		require.NoError(t, err)
		assert.Equal(t, "copilot", primary.ID)

		w = do(router, http.MethodPost, "/api/agents/missing/primary", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := do(router, http.MethodDelete, "/api/agents/claude", "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(router, http.MethodDelete, "/api/agents/claude", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
