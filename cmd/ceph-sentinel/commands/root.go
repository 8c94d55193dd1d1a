// Package commands defines the ceph-sentinel command tree.
//
// The root command owns configuration loading, log setup and shared
// validation; subcommands add their own flags and validation:
//   - run: one sentinel run, exit code reflects the outcome (cron mode)
//   - serve: runs on an interval with the status API
//   - sample: one window and the decision it would produce, nothing persisted
//   - state show / state reset: inspect or clear the idle counter
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/config"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/version"
	"github.com/spf13/cobra"
)

// Global variable to track log file handle for cleanup
var logFileHandle *os.File

// CleanupLogFile closes the log file handle if it exists
func CleanupLogFile() {
	if logFileHandle != nil {
		if err := logFileHandle.Close(); err != nil {
			// Log to stderr since we're cleaning up the log file
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		logFileHandle = nil
	}
}

// Root command for ceph-sentinel
var RootCmd = &cobra.Command{
	Use:   "ceph-sentinel",
	Short: "Ceph client IO watchdog that restarts a stuck OSD",
	Long: `ceph-sentinel samples the client IO reported by 'ceph -s', decides whether
the cluster is healthy, idle, or stalled, restarts a random OSD when it is
stalled, and emails operators the outcome.

Exit codes: 0 healthy, 1 usage or configuration error, 2 OSD restart
required, 3 cluster idle, 4 state file unusable, 5 cluster status unavailable.`,
	Version:       version.SentinelVersion,
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // main prints errors and picks the exit code
	Example: `  # One run from cron, restarts are logged but not executed
  ceph-sentinel run --dry-run --location=DC1

  # Run with a config file and Mandrill notifications
  CEPH_SENTINEL_MANDRILL_KEY=... ceph-sentinel run --config=/etc/ceph-sentinel.yaml

  # Long running mode with status API on 127.0.0.1:9283
  ceph-sentinel serve --interval=5m

  # Look at one window without touching state
  ceph-sentinel sample -o json

  # Inspect or clear the idle counter
  ceph-sentinel state show
  ceph-sentinel state reset`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check which flags were explicitly set by user
		CheckExplicitFlags(cmd)

		if config.Global.ConfigFile != "" {
			if err := config.Global.LoadFile(config.Global.ConfigFile, cmd.Flags()); err != nil {
				return err
			}
		}

		// Setup log file redirection if --log-file (or log_file) was given
		if config.Global.IsExplicitlySet(config.LogFileField) && config.Global.LogFile != "" {
			logDir := filepath.Dir(config.Global.LogFile)
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
			}

			var err error
			logFileHandle, err = os.OpenFile(config.Global.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", config.Global.LogFile, err)
			}

			logging.SetOutput(logFileHandle)
		}

		// Configure logging level immediately so config initialization honours it
		logging.SetLevel(config.Global.LogLevel)
		config.InitializeConfig()
		// Re-apply in case DEBUG=true changed it
		logging.SetLevel(config.Global.LogLevel)

		if err := config.ValidateConfig(); err != nil {
			return err
		}

		// JSON documents go to stdout, so only errors may join them there
		if config.Global.Output == "json" && logFileHandle == nil && cmd.Name() != "serve" {
			logging.SuppressOutput()
		}
		return nil
	},
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	SetupGlobalFlags(RootCmd.PersistentFlags())

	SetupSamplingFlags(runCmd.Flags())
	SetupActionFlags(runCmd.Flags())
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false,
		"Do not print the outcome summary (logs and exit code only)")
	RootCmd.AddCommand(runCmd)

	SetupSamplingFlags(serveCmd.Flags())
	SetupActionFlags(serveCmd.Flags())
	SetupServeFlags(serveCmd.Flags())
	RootCmd.AddCommand(serveCmd)

	SetupSamplingFlags(sampleCmd.Flags())
	RootCmd.AddCommand(sampleCmd)

	SetupPolicyFlags(stateCmd.PersistentFlags())
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	RootCmd.AddCommand(stateCmd)
}
