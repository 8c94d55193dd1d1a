package daemon

import (
	"fmt"
	"time"

	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/config"
	"github.com/concave-dev/ceph-sentinel/internal/actuator"
	"github.com/concave-dev/ceph-sentinel/internal/api"
	"github.com/concave-dev/ceph-sentinel/internal/command"
	"github.com/concave-dev/ceph-sentinel/internal/decision"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/metrics"
	"github.com/concave-dev/ceph-sentinel/internal/notify"
	"github.com/concave-dev/ceph-sentinel/internal/resources"
	"github.com/concave-dev/ceph-sentinel/internal/sampler"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
	"github.com/concave-dev/ceph-sentinel/internal/state"
	"github.com/concave-dev/ceph-sentinel/internal/version"
)

// Components is one fully wired sentinel.
type Components struct {
	Runner    *sentinel.Runner
	Store     *state.FileStore
	Metrics   *metrics.Metrics
	Snapshots *resources.SnapshotCache
}

// NewSampler builds the window sampler around a `ceph -s` command source.
func NewSampler(runner command.Runner) (*sampler.Sampler, error) {
	cfg := config.Global.SamplerConfig()
	return sampler.New(sampler.NewCommandSource(runner, cfg), cfg)
}

// NewEngine builds the decision engine from the configured thresholds.
func NewEngine() (*decision.Engine, error) {
	return decision.NewEngine(config.Global.Policy())
}

// NewStore opens the state file store.
func NewStore() (*state.FileStore, error) {
	return state.NewFileStore(config.Global.StateFile)
}

// Build wires every component from config.Global. startTime feeds the
// host snapshot uptime.
func Build(startTime time.Time) (*Components, error) {
	shell := command.NewShellRunner()

	ws, err := NewSampler(shell)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	engine, err := NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create decision engine: %w", err)
	}

	store, err := NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	actCfg := config.Global.ActuatorConfig()
	act, err := actuator.NewCommandActuator(shell, actCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create actuator: %w", err)
	}

	notifier, err := notify.New(config.Global.NotifyConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	m := metrics.New()
	snapshots := resources.NewSnapshotCache(resources.NewCollector(startTime), config.Global.SnapshotTTL)

	runner, err := sentinel.NewRunner(config.Global.RunnerConfig(), ws, engine, store, act, notifier,
		sentinel.WithTargetRange(actCfg.OSDMin, actCfg.OSDMax),
		sentinel.WithMetrics(m),
		sentinel.WithHostSnapshot(snapshots.Get),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	logging.Debug("Wired sentinel: state=%s notifier=%s osd range=[%d,%d] dry-run=%t",
		store.Path(), notifier.Name(), actCfg.OSDMin, actCfg.OSDMax, actCfg.DryRun)

	return &Components{
		Runner:    runner,
		Store:     store,
		Metrics:   m,
		Snapshots: snapshots,
	}, nil
}

// buildAPIConfig converts CLI config to status API config
func buildAPIConfig(c *Components) *api.Config {
	apiConfig := api.DefaultConfig()

	apiConfig.BindAddr = config.Global.APIAddr
	apiConfig.BindPort = config.Global.APIPort
	apiConfig.Version = version.SentinelVersion
	apiConfig.StaleAfter = staleAfter()
	apiConfig.Status = c.Runner
	apiConfig.Host = c.Snapshots
	apiConfig.Metrics = c.Metrics

	return apiConfig
}

// staleAfter is how long /health tolerates no finished run: two intervals
// plus the longest a run can take with every command hitting its timeout.
func staleAfter() time.Duration {
	g := config.Global
	perSample := g.SampleInterval + g.CommandTimeout
	longestRun := time.Duration(g.MaxIdleCycles*g.WindowSize)*perSample +
		g.RestartTimeout + time.Duration(g.NotifyRetries+1)*g.NotifyTimeout
	return 2*g.ServeInterval + longestRun
}

// writeTextfile exports metrics for the node_exporter textfile collector
// when configured. Failures are logged only.
func writeTextfile(m *metrics.Metrics) {
	path := config.Global.MetricsTextfile
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logging.Warn("Failed to write metrics textfile %s: %v", path, err)
		return
	}
	logging.Debug("Wrote metrics textfile %s", path)
}
