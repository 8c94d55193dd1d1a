package config

import (
	"strings"
	"testing"
)

// TestDefaultLogLevelIsValid validates that the default log level is a recognized level
func TestDefaultLogLevelIsValid(t *testing.T) {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}

	isValid := false
	for _, level := range validLevels {
		if DefaultLogLevel == level {
			isValid = true
			break
		}
	}

	if !isValid {
		t.Errorf("DefaultLogLevel %q is not a valid log level. Valid levels: %v",
			DefaultLogLevel, validLevels)
	}
}

// TestPolicyDefaultsConsistency validates the threshold ordering the decision
// engine relies on
func TestPolicyDefaultsConsistency(t *testing.T) {
	if DefaultRebootThreshold > DefaultWindowSize {
		t.Errorf("DefaultRebootThreshold %d exceeds DefaultWindowSize %d",
			DefaultRebootThreshold, DefaultWindowSize)
	}

	if DefaultFullIdleCount > DefaultWindowSize {
		t.Errorf("DefaultFullIdleCount %d exceeds DefaultWindowSize %d",
			DefaultFullIdleCount, DefaultWindowSize)
	}

	// The full-idle special case only matters when it would otherwise reboot
	if DefaultFullIdleCount < DefaultRebootThreshold {
		t.Errorf("DefaultFullIdleCount %d should be at least DefaultRebootThreshold %d",
			DefaultFullIdleCount, DefaultRebootThreshold)
	}

	// Confirmation needs IdleConfirmThreshold increments plus the confirming cycle
	if DefaultMaxIdleCycles < DefaultIdleConfirmThreshold+1 {
		t.Errorf("DefaultMaxIdleCycles %d cannot reach confirmation at threshold %d",
			DefaultMaxIdleCycles, DefaultIdleConfirmThreshold)
	}

	if DefaultMaxFailedSamples > DefaultWindowSize {
		t.Errorf("DefaultMaxFailedSamples %d exceeds DefaultWindowSize %d",
			DefaultMaxFailedSamples, DefaultWindowSize)
	}
}

// TestActuatorDefaults validates the OSD range and command template
func TestActuatorDefaults(t *testing.T) {
	if DefaultOSDMin > DefaultOSDMax {
		t.Errorf("DefaultOSDMin %d is greater than DefaultOSDMax %d", DefaultOSDMin, DefaultOSDMax)
	}

	if !strings.Contains(DefaultRestartCommand, "{id}") {
		t.Errorf("DefaultRestartCommand %q has no {id} placeholder", DefaultRestartCommand)
	}
}

// TestDurationsArePositive validates timing defaults
func TestDurationsArePositive(t *testing.T) {
	durations := map[string]int64{
		"DefaultSampleInterval": int64(DefaultSampleInterval),
		"DefaultCommandTimeout": int64(DefaultCommandTimeout),
		"DefaultRestartTimeout": int64(DefaultRestartTimeout),
		"DefaultNotifyTimeout":  int64(DefaultNotifyTimeout),
		"DefaultServeInterval":  int64(DefaultServeInterval),
	}

	for name, d := range durations {
		if d <= 0 {
			t.Errorf("%s should be positive, got %d", name, d)
		}
	}
}
