package commands

import (
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// SetupGlobalFlags configures flags shared by every command
func SetupGlobalFlags(fs *pflag.FlagSet) {
	d := config.Default()

	fs.StringVar(&config.Global.ConfigFile, "config", "",
		"YAML config file; keys match flag names with underscores (e.g. reboot_threshold)")
	fs.StringVar(&config.Global.LogLevel, "log-level", d.LogLevel,
		"Log level: DEBUG, INFO, WARN, ERROR")
	fs.StringVar(&config.Global.LogFile, "log-file", "",
		"Append logs to this file instead of stderr (e.g. /var/log/ceph-sentinel.log)")
	fs.StringVarP(&config.Global.Output, "output", "o", d.Output,
		"Output format: table, json")
	fs.StringVar(&config.Global.StateFile, "state-file", d.StateFile,
		"JSON file holding the no client IO counter")
	fs.StringVar(&config.Global.Location, "location", d.Location,
		"Cluster location tag used in notification subjects")
}

// SetupSamplingFlags configures the sampling protocol and decision thresholds
func SetupSamplingFlags(fs *pflag.FlagSet) {
	d := config.Default()

	fs.IntVar(&config.Global.WindowSize, "window-size", d.WindowSize,
		"Samples per decision window")
	fs.DurationVar(&config.Global.SampleInterval, "sample-interval", d.SampleInterval,
		"Delay between samples")
	fs.StringVar(&config.Global.StatusCommand, "status-command", d.StatusCommand,
		"Command printing cluster status with a client IO line")
	fs.DurationVar(&config.Global.CommandTimeout, "command-timeout", d.CommandTimeout,
		"Timeout for each status command")
	fs.StringVar(&config.Global.Indicator, "indicator", d.Indicator,
		"Substring identifying the client IO line")

	SetupPolicyFlags(fs)
}

// SetupPolicyFlags configures the decision thresholds
func SetupPolicyFlags(fs *pflag.FlagSet) {
	d := config.Default()

	fs.IntVar(&config.Global.RebootThreshold, "reboot-threshold", d.RebootThreshold,
		"Zero samples per window that require an OSD restart")
	fs.IntVar(&config.Global.FullIdleCount, "full-idle-count", d.FullIdleCount,
		"Zero samples per window treated as possible idle")
	fs.IntVar(&config.Global.IdleConfirmThreshold, "idle-confirm-threshold", d.IdleConfirmThreshold,
		"Consecutive possible idle windows before idle is confirmed")
	fs.IntVar(&config.Global.MaxFailedSamples, "max-failed-samples", d.MaxFailedSamples,
		"Failed status queries per window that make the source unavailable")
}

// SetupActionFlags configures restart, notification and run loop settings
func SetupActionFlags(fs *pflag.FlagSet) {
	d := config.Default()

	fs.IntVar(&config.Global.MaxIdleCycles, "max-idle-cycles", d.MaxIdleCycles,
		"Resampling cycles allowed before an idle run gives up")
	fs.BoolVar(&config.Global.DryRun, "dry-run", false,
		"Log the OSD restart command instead of running it")
	fs.StringVar(&config.Global.MetricsTextfile, "metrics-textfile", "",
		"Write Prometheus metrics here after each run (node_exporter textfile collector)")

	fs.IntVar(&config.Global.OSDMin, "osd-min", d.OSDMin,
		"Lowest OSD id eligible for restart")
	fs.IntVar(&config.Global.OSDMax, "osd-max", d.OSDMax,
		"Highest OSD id eligible for restart")
	fs.StringVar(&config.Global.RestartCommand, "restart-command", d.RestartCommand,
		"OSD restart command; {id} is replaced by the OSD id")
	fs.DurationVar(&config.Global.RestartTimeout, "restart-timeout", d.RestartTimeout,
		"Timeout for the restart command")

	fs.StringVar(&config.Global.NotifyProvider, "notify-provider", d.NotifyProvider,
		"Notification provider: mandrill, log (mandrill falls back to log without an API key)")
	fs.StringVar(&config.Global.MandrillURL, "mandrill-url", d.MandrillURL,
		"Mandrill API base URL")
	fs.StringVar(&config.Global.MandrillKey, "mandrill-key", "",
		"Mandrill API key (prefer the "+config.DefaultMandrillKeyEnv+" environment variable)")
	fs.StringVar(&config.Global.NotifyFrom, "notify-from", "",
		"Sender email address")
	fs.StringVar(&config.Global.NotifyFromName, "notify-from-name", d.NotifyFromName,
		"Sender display name")
	fs.StringSliceVar(&config.Global.NotifyTo, "notify-to", nil,
		"Comma-separated recipient email addresses")
	fs.DurationVar(&config.Global.NotifyTimeout, "notify-timeout", d.NotifyTimeout,
		"Timeout for each notification request")
	fs.IntVar(&config.Global.NotifyRetries, "notify-retries", d.NotifyRetries,
		"Retries on notification transport errors")
	fs.StringVar(&config.Global.SubjectSuffix, "subject-suffix", d.SubjectSuffix,
		"Text after the location in notification subjects")
}

// SetupServeFlags configures serve mode
func SetupServeFlags(fs *pflag.FlagSet) {
	d := config.Default()

	fs.StringVar(&config.Global.APIAddr, "api", d.APIAddr,
		"Address and port for the status API (e.g. "+config.DefaultAPI+")")
	fs.BoolVar(&config.Global.NoAPI, "no-api", false,
		"Do not start the status API")
	fs.DurationVar(&config.Global.ServeInterval, "interval", d.ServeInterval,
		"Time between runs")
	fs.DurationVar(&config.Global.SnapshotTTL, "snapshot-ttl", d.SnapshotTTL,
		"How long a host load/memory snapshot is reused (0 disables caching)")
}

// CheckExplicitFlags checks if flags were explicitly set by the user
func CheckExplicitFlags(cmd *cobra.Command) {
	config.Global.SetExplicitlySet(config.ConfigFileField, cmd.Flags().Changed("config"))
	config.Global.SetExplicitlySet(config.LogFileField, cmd.Flags().Changed("log-file"))
	config.Global.SetExplicitlySet(config.APIAddrField, cmd.Flags().Changed("api"))
	config.Global.SetExplicitlySet(config.NotifyProviderField, cmd.Flags().Changed("notify-provider"))
}
