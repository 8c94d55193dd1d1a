package actuator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/command"
	configDefaults "github.com/concave-dev/ceph-sentinel/internal/config"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/validate"
)

// idPlaceholder is replaced with the OSD id in the restart command.
const idPlaceholder = "{id}"

// NodeActuator restarts one OSD.
type NodeActuator interface {
	Restart(ctx context.Context, osdID int) error
}

// ActuationError reports a failed restart. The sentinel does not retry.
type ActuationError struct {
	OSD     int
	Command string
	Err     error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("failed to restart osd.%d (%s): %v", e.OSD, e.Command, e.Err)
}

func (e *ActuationError) Unwrap() error {
	return e.Err
}

// IsActuationError reports whether err wraps an *ActuationError.
func IsActuationError(err error) bool {
	var aerr *ActuationError
	return errors.As(err, &aerr)
}

// Config holds target selection and restart command settings.
type Config struct {
	OSDMin         int           `validate:"min=0"`
	OSDMax         int           `validate:"min=0"`
	RestartCommand string        `validate:"required"`
	Timeout        time.Duration `validate:"required"`
	DryRun         bool
}

// DefaultConfig returns the reference actuator settings.
func DefaultConfig() *Config {
	return &Config{
		OSDMin:         configDefaults.DefaultOSDMin,
		OSDMax:         configDefaults.DefaultOSDMax,
		RestartCommand: configDefaults.DefaultRestartCommand,
		Timeout:        configDefaults.DefaultRestartTimeout,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.ValidateStruct(c); err != nil {
		return fmt.Errorf("actuator config validation failed: %w", err)
	}
	if err := validate.ValidateRange(c.OSDMin, c.OSDMax, "osd id range"); err != nil {
		return err
	}
	if !strings.Contains(c.RestartCommand, idPlaceholder) {
		return fmt.Errorf("restart command %q has no %s placeholder", c.RestartCommand, idPlaceholder)
	}
	return validate.ValidatePositiveTimeout(c.Timeout, "restart timeout")
}

// CommandActuator runs the configured restart command for an OSD.
type CommandActuator struct {
	runner   command.Runner
	template string
	timeout  time.Duration
	dryRun   bool
}

// NewCommandActuator returns an actuator executing cfg.RestartCommand
// through runner.
func NewCommandActuator(runner command.Runner, cfg *Config) (*CommandActuator, error) {
	if runner == nil {
		return nil, fmt.Errorf("command runner cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("actuator config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CommandActuator{
		runner:   runner,
		template: cfg.RestartCommand,
		timeout:  cfg.Timeout,
		dryRun:   cfg.DryRun,
	}, nil
}

// CommandFor renders the restart command for osdID.
func (a *CommandActuator) CommandFor(osdID int) string {
	return strings.ReplaceAll(a.template, idPlaceholder, strconv.Itoa(osdID))
}

// Restart runs the restart command. In dry-run mode the command is only logged.
func (a *CommandActuator) Restart(ctx context.Context, osdID int) error {
	cmdLine := a.CommandFor(osdID)

	if a.dryRun {
		logging.Warn("Dry run: would restart osd.%d with: %s", osdID, cmdLine)
		return nil
	}

	logging.Info("Restarting osd.%d: %s", osdID, cmdLine)
	res, err := a.runner.Run(ctx, cmdLine, a.timeout)
	if err != nil {
		return &ActuationError{OSD: osdID, Command: cmdLine, Err: err}
	}

	if out := strings.TrimSpace(res.Stdout); out != "" {
		logging.Debug("Restart output for osd.%d: %s", osdID, out)
	}
	logging.Success("Restarted osd.%d in %s", osdID, res.Duration.Round(time.Millisecond))
	return nil
}
