// Package config provides default configuration values shared across the
// sentinel's components (sampler, decision policy, actuator, notifier and the
// serve-mode status API). Keeping them in one place lets the CLI flags, the
// YAML loader and each package's DefaultConfig agree on the same numbers.
package config

import "time"

const (
	// DefaultLogLevel is the default log level for all components
	DefaultLogLevel = "INFO"

	// DefaultStateFile holds the persisted hysteresis counter
	DefaultStateFile = "/var/lib/ceph-sentinel/sentinel_data.json"

	// DefaultLocation tags notification subjects
	DefaultLocation = "LAB"
)

// Sampling defaults
const (
	DefaultWindowSize     = 10
	DefaultSampleInterval = 2 * time.Second
	DefaultStatusCommand  = "ceph -s"
	DefaultCommandTimeout = 10 * time.Second
	DefaultIndicator      = "client io"
)

// Decision policy defaults
const (
	DefaultRebootThreshold      = 7
	DefaultFullIdleCount        = 9
	DefaultIdleConfirmThreshold = 3

	// DefaultMaxFailedSamples marks a window as dominated by query failures
	DefaultMaxFailedSamples = 5

	// DefaultMaxIdleCycles bounds resampling on inconclusive idle. Four cycles
	// are needed to walk the counter from 0 to confirmation.
	DefaultMaxIdleCycles = 5
)

// Actuator defaults
const (
	DefaultOSDMin         = 4
	DefaultOSDMax         = 9
	DefaultRestartCommand = "/etc/init.d/ceph restart osd.{id}"
	DefaultRestartTimeout = 60 * time.Second
)

// Notifier defaults
const (
	DefaultNotifyProvider = "mandrill"
	DefaultMandrillURL    = "https://mandrillapp.com/api/1.0"
	DefaultNotifyTimeout  = 15 * time.Second
	DefaultNotifyRetries  = 2
	DefaultSubjectSuffix  = "Ceph Sentinel"
	DefaultMandrillKeyEnv = "CEPH_SENTINEL_MANDRILL_KEY"
)

// Serve mode defaults
const (
	// DefaultAPIAddr binds to loopback; the status API has no authentication
	DefaultAPIAddr       = "127.0.0.1:9283"
	DefaultServeInterval = 5 * time.Minute
)
