package httpmw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
)

func newObservedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)

	router := gin.New()
	router.Use(OtelTracing("camelot-test"), RequestLogger(logger.FromZap(zap.New(core)), "camelot-test", "/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/terminals/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": c.Param("id")}) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return router, logs
}

func serve(router http.Handler, path string) int {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code
}

func TestRequestLogger(t *testing.T) {
	router, logs := newObservedRouter(t)

	assert.Equal(t, http.StatusOK, serve(router, "/health"))
	assert.Zero(t, logs.Len(), "quiet path is not logged")

	assert.Equal(t, http.StatusOK, serve(router, "/api/terminals/abc"))
	entries := logs.TakeAll()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zap.DebugLevel, entries[0].Level)
		assert.Equal(t, "/api/terminals/:id", entries[0].ContextMap()["path"])
	}

	assert.Equal(t, http.StatusInternalServerError, serve(router, "/boom"))
	entries = logs.TakeAll()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zap.ErrorLevel, entries[0].Level)
		assert.EqualValues(t, 500, entries[0].ContextMap()["status"])
	}
}
