package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/config"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{AllowedOrigins: []string{"https://app.example.org"}},
		Logging: config.LoggingConfig{Level: "info"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestRouter_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.SessionsCreated.Inc()
	router := newRouter(testConfig(), logger.NewNop(), m)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "camelot_terminal_sessions_created_total 1")
}

func TestCORSMiddleware(t *testing.T) {
	router := newRouter(testConfig(), logger.NewNop(), metrics.New(prometheus.NewRegistry()))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/terminals", nil)
		req.Header.Set("Origin", "https://app.example.org")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/terminals", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
