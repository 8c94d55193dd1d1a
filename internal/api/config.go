// Package api provides the sentinel's HTTP status server for serve mode.
//
// The server is read-only: it reports process health, the outcome of the
// most recent sentinel run together with a snapshot of the host, and the
// Prometheus metrics registry. Nothing in the API can trigger a restart or
// change the persisted state.
package api

import (
	"fmt"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/api/handlers"
	"github.com/concave-dev/ceph-sentinel/internal/metrics"
	"github.com/concave-dev/ceph-sentinel/internal/validate"
)

const (
	// DefaultAPIPort is the default port for the status server
	DefaultAPIPort = 9283
)

// Config holds the parameters required to run the status server.
type Config struct {
	BindAddr   string                  // HTTP server bind address (e.g. "127.0.0.1")
	BindPort   int                     // HTTP server bind port
	Version    string                  // Reported by /health
	StaleAfter time.Duration           // /health fails when no run finished this long; 0 disables
	Status     handlers.StatusProvider // Source of the last run outcome
	Host       handlers.HostProvider   // Optional host snapshot for /status
	Metrics    *metrics.Metrics        // Optional; /metrics serves the default registry when nil
}

// DefaultConfig returns a loopback-bound configuration. Status must be set
// by the caller.
func DefaultConfig() *Config {
	return &Config{
		BindAddr: "127.0.0.1",
		BindPort: DefaultAPIPort,
	}
}

// Validate checks that the server can start.
func (c *Config) Validate() error {
	if err := validate.ValidateRequiredString(c.BindAddr, "bind address"); err != nil {
		return err
	}
	if err := validate.ValidatePortRange(c.BindPort); err != nil {
		return fmt.Errorf("bind port validation failed: %w", err)
	}
	if c.StaleAfter < 0 {
		return fmt.Errorf("stale after cannot be negative, got %s", c.StaleAfter)
	}
	if c.Status == nil {
		return fmt.Errorf("status provider cannot be nil")
	}
	return nil
}
