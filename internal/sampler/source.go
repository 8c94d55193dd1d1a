package sampler

import (
	"context"
	"errors"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/command"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
)

// Source produces one client I/O sample per call. Implementations never
// return an error: failures are encoded in the sample's Status and Err.
type Source interface {
	Acquire(ctx context.Context) Sample
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) Sample

// Acquire calls f(ctx).
func (f SourceFunc) Acquire(ctx context.Context) Sample {
	return f(ctx)
}

// CommandSource samples client I/O by running the cluster status command
// and parsing its output.
type CommandSource struct {
	runner    command.Runner
	command   string
	timeout   time.Duration
	indicator string
	now       func() time.Time
}

// NewCommandSource creates a source running cfg.StatusCommand through runner.
func NewCommandSource(runner command.Runner, cfg *Config) *CommandSource {
	return &CommandSource{
		runner:    runner,
		command:   cfg.StatusCommand,
		timeout:   cfg.CommandTimeout,
		indicator: cfg.Indicator,
		now:       time.Now,
	}
}

// Acquire runs the status command once, without retries.
func (s *CommandSource) Acquire(ctx context.Context) Sample {
	sample := Sample{At: s.now()}

	logging.Debug("Executing command: %s", s.command)
	res, err := s.runner.Run(ctx, s.command, s.timeout)
	if ctxErr := ctx.Err(); ctxErr != nil {
		sample.Status = StatusCancelled
		sample.Err = ctxErr
		logging.Debug("Command %q interrupted: %v", s.command, ctxErr)
		return sample
	}
	if err != nil {
		sample.Err = err
		sample.Status = StatusFailed
		if errors.Is(err, command.ErrTimeout) {
			sample.Status = StatusTimedOut
		}
		logging.Warn("Error executing command %q: %v", s.command, err)
		return sample
	}

	ops, line, err := ParseClientIO(res.Stdout, s.indicator)
	switch {
	case errors.Is(err, ErrNoIndicator):
		sample.Status = StatusNoIndicator
		logging.Debug("No client io detected")
	case err != nil:
		sample.Status = StatusFailed
		sample.Err = err
		sample.Line = line
		logging.Warn("%v", err)
	default:
		sample.Status = StatusOK
		sample.Ops = ops
		sample.Line = line
		if lines := ClientIOLines(res.Stdout, s.indicator); len(lines) > 1 {
			sample.Lines = lines
		}
		logging.Debug("Detected client io: %s", line)
	}
	return sample
}
