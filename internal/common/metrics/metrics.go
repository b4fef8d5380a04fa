// Package metrics holds the Prometheus collectors for the terminal broker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Terminal session metrics
	SessionsActive       prometheus.Gauge
	SessionsCreated      prometheus.Counter
	SessionsCreateFailed *prometheus.CounterVec
	SessionsExited       prometheus.Counter
	SessionsKilled       prometheus.Counter
	SessionsReaped       *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSFrames      *prometheus.CounterVec
	WSDropped     prometheus.Counter

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "camelot_terminal_sessions_active",
			Help: "Number of registered terminal sessions",
		}),
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "camelot_terminal_sessions_created_total",
			Help: "Total number of terminal sessions created",
		}),
		SessionsCreateFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "camelot_terminal_session_create_failures_total",
			Help: "Total number of failed terminal session creations",
		}, []string{"reason"}),
		SessionsExited: f.NewCounter(prometheus.CounterOpts{
			Name: "camelot_terminal_sessions_exited_total",
			Help: "Total number of terminal processes that exited",
		}),
		SessionsKilled: f.NewCounter(prometheus.CounterOpts{
			Name: "camelot_terminal_sessions_killed_total",
			Help: "Total number of terminal sessions killed",
		}),
		SessionsReaped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "camelot_terminal_sessions_reaped_total",
			Help: "Total number of terminal sessions removed by the reaper",
		}, []string{"kind"}),

		WSConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "camelot_ws_connections",
			Help: "Number of active WebSocket connections",
		}),
		WSFrames: f.NewCounterVec(prometheus.CounterOpts{
			Name: "camelot_ws_frames_total",
			Help: "Total number of WebSocket frames by direction and type",
		}, []string{"direction", "type"}),
		WSDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "camelot_ws_frames_dropped_total",
			Help: "Outbound frames dropped because a client send buffer was full",
		}),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "camelot_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "camelot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency by route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
