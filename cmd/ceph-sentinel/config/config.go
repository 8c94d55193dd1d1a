// Package config holds the ceph-sentinel CLI configuration.
//
// Values come from three layers, lowest precedence first: compiled defaults
// (internal/config), an optional YAML file given with --config, and command
// line flags the user set explicitly. Environment overrides (DEBUG and the
// Mandrill key variable) are applied afterwards by InitializeConfig.
//
// YAML keys mirror flag names with dashes replaced by underscores, so
// --reboot-threshold becomes reboot_threshold in the file.
package config

import (
	"time"

	configDefaults "github.com/concave-dev/ceph-sentinel/internal/config"
)

// ConfigField represents a configuration field that can be explicitly set
type ConfigField int

const (
	// Configuration field identifiers
	LogFileField ConfigField = iota
	APIAddrField
	NotifyProviderField
	ConfigFileField
)

const (
	DefaultLogLevel       = configDefaults.DefaultLogLevel
	DefaultStateFile      = configDefaults.DefaultStateFile
	DefaultLocation       = configDefaults.DefaultLocation
	DefaultAPI            = configDefaults.DefaultAPIAddr
	DefaultServeInterval  = configDefaults.DefaultServeInterval
	DefaultNotifyProvider = configDefaults.DefaultNotifyProvider
	DefaultMandrillKeyEnv = configDefaults.DefaultMandrillKeyEnv
	DefaultOutput         = "table"
	DefaultSnapshotTTL    = 30 * time.Second
)

// Config holds all CLI configuration values
type Config struct {
	ConfigFile      string `yaml:"-"`                // YAML file path (--config)
	LogLevel        string `yaml:"log_level"`        // DEBUG, INFO, WARN, ERROR
	LogFile         string `yaml:"log_file"`         // Append logs here instead of stderr
	Output          string `yaml:"output"`           // table or json
	StateFile       string `yaml:"state_file"`       // Hysteresis counter record
	Location        string `yaml:"location"`         // Cluster tag in notification subjects
	DryRun          bool   `yaml:"dry_run"`          // Log restarts instead of running them
	MetricsTextfile string `yaml:"metrics_textfile"` // node_exporter textfile written after each run

	// Sampling
	WindowSize     int           `yaml:"window_size"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	StatusCommand  string        `yaml:"status_command"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	Indicator      string        `yaml:"indicator"`

	// Decision policy
	RebootThreshold      int `yaml:"reboot_threshold"`
	FullIdleCount        int `yaml:"full_idle_count"`
	IdleConfirmThreshold int `yaml:"idle_confirm_threshold"`
	MaxFailedSamples     int `yaml:"max_failed_samples"`
	MaxIdleCycles        int `yaml:"max_idle_cycles"`

	// Actuator
	OSDMin         int           `yaml:"osd_min"`
	OSDMax         int           `yaml:"osd_max"`
	RestartCommand string        `yaml:"restart_command"`
	RestartTimeout time.Duration `yaml:"restart_timeout"`

	// Notifier
	NotifyProvider string        `yaml:"notify_provider"`
	MandrillURL    string        `yaml:"mandrill_url"`
	MandrillKey    string        `yaml:"mandrill_key"`
	NotifyFrom     string        `yaml:"notify_from"`
	NotifyFromName string        `yaml:"notify_from_name"`
	NotifyTo       []string      `yaml:"notify_to"`
	NotifyTimeout  time.Duration `yaml:"notify_timeout"`
	NotifyRetries  int           `yaml:"notify_retries"`
	SubjectSuffix  string        `yaml:"subject_suffix"`

	// Serve mode
	APIAddr       string        `yaml:"api"`
	APIPort       int           `yaml:"-"` // Derived from APIAddr
	ServeInterval time.Duration `yaml:"interval"`
	SnapshotTTL   time.Duration `yaml:"snapshot_ttl"`
	NoAPI         bool          `yaml:"no_api"`

	// Flags to track if values were explicitly set by user
	logFileExplicitlySet        bool
	apiAddrExplicitlySet        bool
	notifyProviderExplicitlySet bool
	configFileExplicitlySet     bool
}

// Global configuration instance
var Global Config

// SetExplicitlySet marks a configuration field as explicitly set by the user.
func (c *Config) SetExplicitlySet(field ConfigField, value bool) {
	switch field {
	case LogFileField:
		c.logFileExplicitlySet = value
	case APIAddrField:
		c.apiAddrExplicitlySet = value
	case NotifyProviderField:
		c.notifyProviderExplicitlySet = value
	case ConfigFileField:
		c.configFileExplicitlySet = value
	}
}

// IsExplicitlySet returns whether a configuration field was explicitly set by the user.
func (c *Config) IsExplicitlySet(field ConfigField) bool {
	switch field {
	case LogFileField:
		return c.logFileExplicitlySet
	case APIAddrField:
		return c.apiAddrExplicitlySet
	case NotifyProviderField:
		return c.notifyProviderExplicitlySet
	case ConfigFileField:
		return c.configFileExplicitlySet
	}
	return false
}
