// Package constants provides application-wide constants and timeouts.
package constants

import "time"

// Terminal session timings.
const (
	// StartupDelay is how long a fresh shell gets to initialize before the
	// agent command is typed into it.
	StartupDelay = 500 * time.Millisecond

	// ExitedGrace is how long an exited session stays queryable, measured
	// from its last activity.
	ExitedGrace = 5 * time.Minute

	// IdleTimeout is the idle ceiling after which a running session is killed.
	IdleTimeout = 24 * time.Hour

	// ReapSchedule runs the reaper hourly.
	ReapSchedule = "@every 1h"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server, the
// reaper and the trace exporter.
const ShutdownTimeout = 10 * time.Second
