package config

import (
	"github.com/concave-dev/ceph-sentinel/internal/actuator"
	"github.com/concave-dev/ceph-sentinel/internal/decision"
	"github.com/concave-dev/ceph-sentinel/internal/notify"
	"github.com/concave-dev/ceph-sentinel/internal/sampler"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
)

// Default returns a Config populated from each component's defaults. Flag
// definitions use it for their default values.
func Default() Config {
	s := sampler.DefaultConfig()
	p := decision.DefaultPolicy()
	a := actuator.DefaultConfig()
	n := notify.DefaultConfig()
	r := sentinel.DefaultConfig()

	return Config{
		LogLevel:  DefaultLogLevel,
		Output:    DefaultOutput,
		StateFile: DefaultStateFile,
		Location:  r.Location,

		WindowSize:     s.WindowSize,
		SampleInterval: s.Interval,
		StatusCommand:  s.StatusCommand,
		CommandTimeout: s.CommandTimeout,
		Indicator:      s.Indicator,

		RebootThreshold:      p.RebootThreshold,
		FullIdleCount:        p.FullIdleCount,
		IdleConfirmThreshold: p.IdleConfirmThreshold,
		MaxFailedSamples:     p.MaxFailedSamples,
		MaxIdleCycles:        r.MaxIdleCycles,

		OSDMin:         a.OSDMin,
		OSDMax:         a.OSDMax,
		RestartCommand: a.RestartCommand,
		RestartTimeout: a.Timeout,

		NotifyProvider: n.Provider,
		MandrillURL:    n.MandrillURL,
		NotifyFromName: n.FromName,
		NotifyTimeout:  n.Timeout,
		NotifyRetries:  n.Retries,
		SubjectSuffix:  r.SubjectSuffix,

		APIAddr:       DefaultAPI,
		ServeInterval: DefaultServeInterval,
		SnapshotTTL:   DefaultSnapshotTTL,
	}
}

// SamplerConfig returns the sampling protocol settings.
func (c *Config) SamplerConfig() *sampler.Config {
	return &sampler.Config{
		WindowSize:     c.WindowSize,
		Interval:       c.SampleInterval,
		StatusCommand:  c.StatusCommand,
		CommandTimeout: c.CommandTimeout,
		Indicator:      c.Indicator,
	}
}

// Policy returns the decision thresholds. The window size is shared with
// the sampler.
func (c *Config) Policy() *decision.Policy {
	return &decision.Policy{
		WindowSize:           c.WindowSize,
		RebootThreshold:      c.RebootThreshold,
		FullIdleCount:        c.FullIdleCount,
		IdleConfirmThreshold: c.IdleConfirmThreshold,
		MaxFailedSamples:     c.MaxFailedSamples,
	}
}

// ActuatorConfig returns the restart settings.
func (c *Config) ActuatorConfig() *actuator.Config {
	return &actuator.Config{
		OSDMin:         c.OSDMin,
		OSDMax:         c.OSDMax,
		RestartCommand: c.RestartCommand,
		Timeout:        c.RestartTimeout,
		DryRun:         c.DryRun,
	}
}

// NotifyConfig returns the notifier settings.
func (c *Config) NotifyConfig() *notify.Config {
	return &notify.Config{
		Provider:      c.NotifyProvider,
		Location:      c.Location,
		SubjectSuffix: c.SubjectSuffix,
		MandrillURL:   c.MandrillURL,
		APIKey:        c.MandrillKey,
		From:          c.NotifyFrom,
		FromName:      c.NotifyFromName,
		To:            c.NotifyTo,
		Timeout:       c.NotifyTimeout,
		Retries:       c.NotifyRetries,
	}
}

// RunnerConfig returns the run loop settings.
func (c *Config) RunnerConfig() *sentinel.Config {
	return &sentinel.Config{
		Location:      c.Location,
		SubjectSuffix: c.SubjectSuffix,
		MaxIdleCycles: c.MaxIdleCycles,
		DryRun:        c.DryRun,
	}
}
