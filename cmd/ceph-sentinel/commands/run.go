package commands

import (
	"os"

	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/config"
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/daemon"
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/display"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
	"github.com/spf13/cobra"
)

var runQuiet bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample client IO, decide, act and notify once",
	Long: `Run samples client IO in windows, resampling while a near-silent window is
ambiguous, then acts on the decision: restarts a random OSD when IO has
stalled, and sends exactly one notification describing the outcome.

The exit code reflects the outcome, so run is suited to cron.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return config.ValidateActionConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := daemon.RunOnce()
		if out.Status != "" && !runQuiet {
			display.DisplayOutcome(os.Stdout, out)
		}
		if err != nil {
			return err
		}
		if code := out.ExitCode(); code != sentinel.ExitHealthy {
			return &sentinel.ExitError{Code: code}
		}
		return nil
	},
}
