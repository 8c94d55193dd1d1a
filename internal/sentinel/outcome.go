package sentinel

import (
	"errors"
	"fmt"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/decision"
)

// OutcomeStatus is the final result of one sentinel run.
type OutcomeStatus string

const (
	OutcomeHealthy           OutcomeStatus = "healthy"
	OutcomeRebootRequired    OutcomeStatus = "reboot_required"
	OutcomeIdleConfirmed     OutcomeStatus = "idle_confirmed"
	OutcomeIdleUnresolved    OutcomeStatus = "idle_unresolved"
	OutcomeSourceUnavailable OutcomeStatus = "source_unavailable"
	OutcomePersistenceError  OutcomeStatus = "persistence_error"
)

// Process exit codes.
const (
	ExitHealthy           = 0
	ExitUsage             = 1
	ExitRebootRequired    = 2
	ExitIdle              = 3
	ExitPersistenceError  = 4
	ExitSourceUnavailable = 5
)

// ExitCode maps the status to the process exit code.
func (s OutcomeStatus) ExitCode() int {
	switch s {
	case OutcomeHealthy:
		return ExitHealthy
	case OutcomeRebootRequired:
		return ExitRebootRequired
	case OutcomeIdleConfirmed, OutcomeIdleUnresolved:
		return ExitIdle
	case OutcomePersistenceError:
		return ExitPersistenceError
	case OutcomeSourceUnavailable:
		return ExitSourceUnavailable
	default:
		return ExitUsage
	}
}

// Outcome summarises one top-level run. Every field is JSON-serializable so
// the status API can publish the last outcome as is.
type Outcome struct {
	RunID      string          `json:"runId"`
	Status     OutcomeStatus   `json:"status"`
	Cycles     int             `json:"cycles"`
	Last       decision.Result `json:"lastDecision"`
	Target     *int            `json:"target,omitempty"`
	DryRun     bool            `json:"dryRun,omitempty"`
	RestartErr string          `json:"restartError,omitempty"`
	Notified   bool            `json:"notified"`
	NotifyErr  string          `json:"notificationError,omitempty"`
	Error      string          `json:"error,omitempty"`
	Lines      []string        `json:"sessionLog"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}

// ExitCode returns the process exit code for the outcome.
func (o Outcome) ExitCode() int {
	return o.Status.ExitCode()
}

// Duration returns the wall time of the run.
func (o Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// ExitError carries a process exit code out of a command. Err may be nil
// when the outcome has already been reported and only the code matters.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeFor returns the exit code carried by err: 0 for nil, the
// ExitError code when present, ExitUsage otherwise.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitHealthy
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}
