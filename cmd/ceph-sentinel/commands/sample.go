package commands

import (
	"fmt"
	"os"

	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/daemon"
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/display"
	"github.com/concave-dev/ceph-sentinel/internal/command"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/sampler"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
	"github.com/concave-dev/ceph-sentinel/internal/state"
	"github.com/spf13/cobra"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Collect one window and show the decision it would produce",
	Long: `Sample collects one window of client IO samples and prints them with the
decision the current idle counter would lead to. Nothing is persisted, no
OSD is restarted and no notification is sent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := daemon.NewSampler(command.NewShellRunner())
		if err != nil {
			return err
		}
		engine, err := daemon.NewEngine()
		if err != nil {
			return err
		}
		store, err := daemon.NewStore()
		if err != nil {
			return err
		}

		ctx, cancel := daemon.SignalContext()
		defer cancel()

		session := sampler.NewSessionLog()
		window, err := ws.Sample(ctx, session)
		if err != nil {
			return fmt.Errorf("sampling failed: %w", err)
		}

		st, err := store.Load(ctx)
		if err != nil {
			if state.IsPersistenceError(err) {
				return &sentinel.ExitError{Code: sentinel.ExitPersistenceError, Err: err}
			}
			return err
		}

		res := engine.Decide(window, st)
		logging.Debug("Sampled %d lines, decision %s", session.Len(), res.Decision)
		display.DisplayWindow(os.Stdout, window, res, engine.Policy())
		return nil
	},
}
