package commands

import (
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/config"
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/daemon"
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/utils"
	"github.com/concave-dev/ceph-sentinel/internal/version"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sentinel on an interval and serve its status",
	Long: `Serve performs a run immediately and then every --interval, never two at
once. The status API exposes /api/v1/health, /api/v1/status (last outcome)
and /metrics. An unusable state file stops serve with exit code 4.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		utils.DisplayLogo(version.SentinelVersion)
		if err := config.ValidateActionConfig(); err != nil {
			return err
		}
		return config.ValidateServeConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return daemon.Run()
	},
}
