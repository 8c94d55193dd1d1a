package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/config"
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/daemon"
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/display"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
	"github.com/concave-dev/ceph-sentinel/internal/state"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the persisted idle counter",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the idle counter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := daemon.NewStore()
		if err != nil {
			return err
		}

		ctx, cancel := daemon.SignalContext()
		defer cancel()

		st, err := store.Load(ctx)
		if err != nil {
			return persistenceExit(err)
		}

		report := display.StateReport{Path: store.Path(), State: st}
		info, err := os.Stat(store.Path())
		switch {
		case err == nil:
			report.Exists = true
			modified := info.ModTime()
			report.Modified = &modified
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("failed to stat state file: %w", err)
		}

		display.DisplayState(os.Stdout, report, config.Global.IdleConfirmThreshold)
		return nil
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the idle counter to zero",
	Long: `Reset sets the idle counter to zero under the state file lock, so the
next near-silent window starts a fresh confirmation sequence. A corrupt
state file is replaced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := daemon.NewStore()
		if err != nil {
			return err
		}

		ctx, cancel := daemon.SignalContext()
		defer cancel()

		previous, err := store.Reset(ctx)
		if err != nil {
			return persistenceExit(err)
		}

		logging.Success("Idle counter reset from %d in %s at %s",
			previous.NoClientIOCount, store.Path(), time.Now().Format(time.RFC3339))
		return nil
	},
}

func persistenceExit(err error) error {
	if state.IsPersistenceError(err) {
		return &sentinel.ExitError{Code: sentinel.ExitPersistenceError, Err: err}
	}
	return err
}
