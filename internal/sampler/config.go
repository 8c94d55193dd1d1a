package sampler

import (
	"fmt"
	"time"

	configDefaults "github.com/concave-dev/ceph-sentinel/internal/config"
	"github.com/concave-dev/ceph-sentinel/internal/validate"
)

// Config holds the sampling protocol parameters and the status query used
// by CommandSource.
type Config struct {
	WindowSize     int           `validate:"required,min=1,max=1000"` // Samples per window
	Interval       time.Duration `validate:"min=0"`                   // Delay between acquisitions
	StatusCommand  string        `validate:"required"`                // Cluster status query
	CommandTimeout time.Duration `validate:"required"`                // Per-query timeout
	Indicator      string        `validate:"required"`                // Substring marking the client I/O line
}

// DefaultConfig returns the reference sampling protocol: ten `ceph -s`
// queries two seconds apart.
func DefaultConfig() *Config {
	return &Config{
		WindowSize:     configDefaults.DefaultWindowSize,
		Interval:       configDefaults.DefaultSampleInterval,
		StatusCommand:  configDefaults.DefaultStatusCommand,
		CommandTimeout: configDefaults.DefaultCommandTimeout,
		Indicator:      configDefaults.DefaultIndicator,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.ValidateStruct(c); err != nil {
		return fmt.Errorf("sampler config validation failed: %w", err)
	}
	return validate.ValidatePositiveTimeout(c.CommandTimeout, "status command timeout")
}
