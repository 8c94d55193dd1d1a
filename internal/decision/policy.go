package decision

import (
	"fmt"

	configDefaults "github.com/concave-dev/ceph-sentinel/internal/config"
	"github.com/concave-dev/ceph-sentinel/internal/validate"
)

// Policy holds the decision thresholds. All counts are in samples except
// IdleConfirmThreshold, which counts consecutive ambiguous windows.
type Policy struct {
	WindowSize           int `validate:"required,min=1"`
	RebootThreshold      int `validate:"required,min=1"`
	FullIdleCount        int `validate:"required,min=1"`
	IdleConfirmThreshold int `validate:"min=0"`
	MaxFailedSamples     int `validate:"required,min=1"`
}

// DefaultPolicy returns the reference thresholds: reboot at 7 of 10 zero
// samples, treat exactly 9 as ambiguous idle, confirm after 3 such windows.
func DefaultPolicy() *Policy {
	return &Policy{
		WindowSize:           configDefaults.DefaultWindowSize,
		RebootThreshold:      configDefaults.DefaultRebootThreshold,
		FullIdleCount:        configDefaults.DefaultFullIdleCount,
		IdleConfirmThreshold: configDefaults.DefaultIdleConfirmThreshold,
		MaxFailedSamples:     configDefaults.DefaultMaxFailedSamples,
	}
}

// Validate checks field bounds and that every threshold fits the window.
func (p *Policy) Validate() error {
	if err := validate.ValidateStruct(p); err != nil {
		return fmt.Errorf("decision policy validation failed: %w", err)
	}

	checks := []struct {
		name  string
		value int
	}{
		{"reboot threshold", p.RebootThreshold},
		{"full idle count", p.FullIdleCount},
		{"max failed samples", p.MaxFailedSamples},
	}
	for _, c := range checks {
		if c.value > p.WindowSize {
			return fmt.Errorf("%s %d exceeds window size %d", c.name, c.value, p.WindowSize)
		}
	}
	return nil
}
