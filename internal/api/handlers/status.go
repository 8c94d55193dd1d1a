package handlers

import (
	"net/http"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/resources"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
	"github.com/gin-gonic/gin"
)

// StatusProvider exposes the most recent sentinel run.
type StatusProvider interface {
	LastOutcome() (sentinel.Outcome, bool)
}

// HostProvider returns a host snapshot.
type HostProvider interface {
	Get() *resources.HostSnapshot
}

// StatusResponse is the /status payload. Outcome is nil until the first run
// has finished.
type StatusResponse struct {
	Timestamp time.Time               `json:"timestamp"`
	HasRun    bool                    `json:"hasRun"`
	ExitCode  int                     `json:"exitCode,omitempty"`
	Outcome   *sentinel.Outcome       `json:"outcome,omitempty"`
	Host      *resources.HostSnapshot `json:"host,omitempty"`
}

// HandleStatus returns the last run outcome and, when host is non-nil, a
// snapshot of the sentinel host.
func HandleStatus(status StatusProvider, host HostProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := StatusResponse{Timestamp: time.Now()}

		if out, ok := status.LastOutcome(); ok {
			response.HasRun = true
			response.ExitCode = out.ExitCode()
			response.Outcome = &out
		}
		if host != nil {
			response.Host = host.Get()
		}

		c.JSON(http.StatusOK, response)
	}
}
