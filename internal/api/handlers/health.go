// Package handlers implements the status server's HTTP handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health states reported by /health.
const (
	HealthOK    = "healthy"
	HealthStale = "stale"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string     `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Version   string     `json:"version"`
	Uptime    string     `json:"uptime"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
}

// HealthOptions configure HandleHealth. With StaleAfter > 0 the check fails
// with 503 when no run has finished within that long, counting from
// StartTime until the first run.
type HealthOptions struct {
	Version    string
	StartTime  time.Time
	StaleAfter time.Duration
	Status     StatusProvider
}

// HandleHealth reports whether the sentinel loop is alive. It says nothing
// about the Ceph cluster; that is /status.
func HandleHealth(opts HealthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		response := HealthResponse{
			Status:    HealthOK,
			Timestamp: now,
			Version:   opts.Version,
			Uptime:    now.Sub(opts.StartTime).Round(time.Second).String(),
		}

		lastActivity := opts.StartTime
		if opts.Status != nil {
			if out, ok := opts.Status.LastOutcome(); ok {
				finished := out.FinishedAt
				response.LastRunAt = &finished
				lastActivity = finished
			}
		}

		code := http.StatusOK
		if opts.StaleAfter > 0 && now.Sub(lastActivity) > opts.StaleAfter {
			response.Status = HealthStale
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, response)
	}
}
