package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/validate"
)

// InitializeConfig applies environment overrides before validation runs.
func InitializeConfig() {
	if os.Getenv("DEBUG") == "true" {
		Global.LogLevel = "DEBUG"
		logging.Info("DEBUG environment variable detected, setting log level to DEBUG")
	}

	// Environment overrides flags and the config file
	if key := os.Getenv(DefaultMandrillKeyEnv); key != "" {
		if Global.MandrillKey != "" && Global.MandrillKey != key {
			logging.Debug("%s overrides the configured Mandrill API key", DefaultMandrillKeyEnv)
		}
		Global.MandrillKey = key
	}

	if Global.NotifyProvider == "mandrill" && Global.MandrillKey == "" &&
		!Global.IsExplicitlySet(NotifyProviderField) {
		logging.Info("No Mandrill API key configured, notifications will be written to the log")
		Global.NotifyProvider = "log"
	}
}

// ValidateConfig validates settings shared by every command: logging,
// output, the state file, sampling and the decision policy.
func ValidateConfig() error {
	if err := logging.ValidateLogLevel(Global.LogLevel); err != nil {
		return err
	}

	Global.Output = strings.ToLower(Global.Output)
	if err := validate.ValidateField(Global.Output, "oneof=table json"); err != nil {
		logging.Error("Invalid output format '%s'", Global.Output)
		return fmt.Errorf("output must be table or json, got: %s", Global.Output)
	}

	if err := validate.ValidateRequiredString(Global.StateFile, "state file"); err != nil {
		logging.Error("State file path cannot be empty")
		return err
	}

	if err := validate.LocationFormat(Global.Location); err != nil {
		logging.Error("Invalid location '%s': %v", Global.Location, err)
		return fmt.Errorf("invalid location: %w", err)
	}

	if err := Global.SamplerConfig().Validate(); err != nil {
		logging.Error("Invalid sampling settings: %v", err)
		return err
	}

	if err := Global.Policy().Validate(); err != nil {
		logging.Error("Invalid decision thresholds: %v", err)
		return err
	}

	return nil
}

// ValidateActionConfig validates the settings needed by commands that act
// on a decision: the actuator, the notifier and the run loop.
func ValidateActionConfig() error {
	if err := Global.ActuatorConfig().Validate(); err != nil {
		logging.Error("Invalid restart settings: %v", err)
		return err
	}

	if err := Global.NotifyConfig().Validate(); err != nil {
		logging.Error("Invalid notification settings: %v", err)
		return err
	}

	if err := Global.RunnerConfig().Validate(); err != nil {
		logging.Error("Invalid run settings: %v", err)
		return err
	}

	return nil
}

// ValidateServeConfig validates the serve loop and parses the status API
// address into APIAddr and APIPort.
func ValidateServeConfig() error {
	if err := validate.ValidatePositiveTimeout(Global.ServeInterval, "serve interval"); err != nil {
		logging.Error("Invalid serve interval: %v", Global.ServeInterval)
		return err
	}

	if Global.SnapshotTTL < 0 {
		return fmt.Errorf("snapshot TTL cannot be negative, got: %s", Global.SnapshotTTL)
	}

	if Global.NoAPI {
		return nil
	}

	apiNetAddr, err := validate.ParseBindAddress(Global.APIAddr)
	if err != nil {
		logging.Error("Invalid API address '%s': %v", Global.APIAddr, err)
		return fmt.Errorf("invalid API address: %w", err)
	}

	if apiNetAddr.Host != "127.0.0.1" && apiNetAddr.Host != "::1" {
		logging.Warn("Status API bound to %s has no authentication", apiNetAddr.Host)
	}

	Global.APIAddr = apiNetAddr.Host
	Global.APIPort = apiNetAddr.Port
	return nil
}
