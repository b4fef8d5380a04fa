package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/config"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/httpmw"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/metrics"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/tracing"
)

const serverName = "camelot"

func newRouter(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if tracing.Enabled() {
		router.Use(httpmw.OtelTracing(serverName))
	}
	router.Use(httpmw.RequestLogger(log, serverName, "/health", cfg.Metrics.Path))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	if cfg.Metrics.Enabled {
		router.Use(m.GinMiddleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}
	return router
}

// corsMiddleware returns a CORS middleware for the HTTP API. Only
// allow-listed origins get CORS headers.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, Sec-WebSocket-Protocol")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
