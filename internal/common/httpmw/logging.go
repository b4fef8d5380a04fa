// Package httpmw holds the gin middleware shared by camelot's HTTP routes.
package httpmw

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
)

// RequestLogger logs HTTP request details after the handler completes.
// Paths in quiet are only logged when they fail.
func RequestLogger(log *logger.Logger, serverName string, quiet ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		skip[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := routePath(c)

		c.Next()

		status := c.Writer.Status()
		if skip[path] && status < 500 {
			return
		}
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}
		fields := []zap.Field{
			zap.String("server", serverName),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int("bytes", size),
		}

		switch {
		case status >= 500:
			log.Error("http", fields...)
		case isUpgrade(c):
			log.Info("http upgrade closed", fields...)
		default:
			log.Debug("http", fields...)
		}
	}
}

func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

func isUpgrade(c *gin.Context) bool {
	return c.GetHeader("Upgrade") != ""
}
