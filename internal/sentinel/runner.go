// Package sentinel runs the sampling, decision and reaction cycle.
//
// One RunOnce call is one top-level invocation: it samples a window, asks
// the decision engine for a verdict, and resamples while the verdict is
// IdleInconclusive, up to MaxIdleCycles windows. The terminal verdict then
// drives at most one OSD restart and exactly one operator notification. A
// state file failure aborts the run before any action and sends nothing.
package sentinel

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/actuator"
	configDefaults "github.com/concave-dev/ceph-sentinel/internal/config"
	"github.com/concave-dev/ceph-sentinel/internal/decision"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/metrics"
	"github.com/concave-dev/ceph-sentinel/internal/notify"
	"github.com/concave-dev/ceph-sentinel/internal/resources"
	"github.com/concave-dev/ceph-sentinel/internal/sampler"
	"github.com/concave-dev/ceph-sentinel/internal/state"
	"github.com/google/uuid"
)

// WindowSampler collects one window of samples, appending to log.
type WindowSampler interface {
	Sample(ctx context.Context, log *sampler.SessionLog) (sampler.Window, error)
}

// Config holds runner settings that are not owned by a component.
type Config struct {
	Location      string
	SubjectSuffix string
	MaxIdleCycles int
	DryRun        bool
}

// DefaultConfig returns the default runner settings.
func DefaultConfig() *Config {
	return &Config{
		Location:      configDefaults.DefaultLocation,
		SubjectSuffix: configDefaults.DefaultSubjectSuffix,
		MaxIdleCycles: configDefaults.DefaultMaxIdleCycles,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxIdleCycles < 1 {
		return fmt.Errorf("max idle cycles must be at least 1, got %d", c.MaxIdleCycles)
	}
	if c.Location == "" {
		return fmt.Errorf("location cannot be empty")
	}
	return nil
}

// Runner executes sentinel runs. It is safe to call LastOutcome while a run
// is in progress; RunOnce itself must not be called concurrently.
type Runner struct {
	cfg      Config
	sampler  WindowSampler
	engine   *decision.Engine
	store    state.Store
	actuator actuator.NodeActuator
	notifier notify.Notifier

	selector *actuator.TargetSelector
	osdMin   int
	osdMax   int
	randSrc  rand.Source

	metrics *metrics.Metrics
	host    func() *resources.HostSnapshot
	newID   func() string
	now     func() time.Time

	mu   sync.RWMutex
	last *Outcome
}

// Option configures a Runner.
type Option func(*Runner)

// WithRandSource injects a deterministic random source for target selection.
func WithRandSource(src rand.Source) Option {
	return func(r *Runner) {
		r.randSrc = src
	}
}

// WithTargetRange sets the inclusive OSD id range restarts are drawn from.
func WithTargetRange(min, max int) Option {
	return func(r *Runner) {
		r.osdMin, r.osdMax = min, max
	}
}

// WithMetrics records run activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithHostSnapshot sets the function providing the report footer.
func WithHostSnapshot(fn func() *resources.HostSnapshot) Option {
	return func(r *Runner) {
		r.host = fn
	}
}

// WithIDFunc overrides run id generation.
func WithIDFunc(fn func() string) Option {
	return func(r *Runner) {
		r.newID = fn
	}
}

// NewRunner constructs a Runner with the provided dependencies.
func NewRunner(cfg *Config, ws WindowSampler, engine *decision.Engine, store state.Store,
	act actuator.NodeActuator, notifier notify.Notifier, opts ...Option) (*Runner, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("config must not be nil")
	case ws == nil:
		return nil, fmt.Errorf("sampler must not be nil")
	case engine == nil:
		return nil, fmt.Errorf("decision engine must not be nil")
	case store == nil:
		return nil, fmt.Errorf("state store must not be nil")
	case act == nil:
		return nil, fmt.Errorf("actuator must not be nil")
	case notifier == nil:
		return nil, fmt.Errorf("notifier must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:      *cfg,
		sampler:  ws,
		engine:   engine,
		store:    store,
		actuator: act,
		notifier: notifier,
		osdMin:   configDefaults.DefaultOSDMin,
		osdMax:   configDefaults.DefaultOSDMax,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	selector, err := actuator.NewTargetSelector(r.osdMin, r.osdMax, r.randSrc)
	if err != nil {
		return nil, err
	}
	r.selector = selector

	if r.newID == nil {
		r.newID = uuid.NewString
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// LastOutcome returns the most recent finished run.
func (r *Runner) LastOutcome() (Outcome, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return Outcome{}, false
	}
	return *r.last, true
}

// RunOnce performs one top-level run. A persistence failure returns the
// outcome together with an *ExitError carrying ExitPersistenceError.
// Context cancellation returns the context error and records nothing.
func (r *Runner) RunOnce(ctx context.Context) (Outcome, error) {
	out := Outcome{RunID: r.newID(), StartedAt: r.now()}
	session := sampler.NewSessionLog()
	logging.Info("Starting sentinel run %s", logging.FormatRunID(out.RunID))

	var res decision.Result
	for cycle := 1; cycle <= r.cfg.MaxIdleCycles; cycle++ {
		cycleStart := r.now()

		window, err := r.sampler.Sample(ctx, session)
		if err != nil {
			return out, fmt.Errorf("sampling cycle %d: %w", cycle, err)
		}
		for _, s := range window.Samples {
			r.metrics.ObserveSample(s.Status.String())
		}

		res, err = r.engine.Evaluate(ctx, window, r.store)
		out.Cycles = cycle
		if err != nil {
			if !state.IsPersistenceError(err) {
				return out, fmt.Errorf("decision cycle %d: %w", cycle, err)
			}
			logging.Error("Aborting run, state file unusable: %v", err)
			out.Status = OutcomePersistenceError
			out.Error = err.Error()
			r.finish(&out, session)
			return out, &ExitError{Code: ExitPersistenceError, Err: err}
		}

		out.Last = res
		r.metrics.ObserveCycle(res.Decision.String(), res.ZeroCount, r.now().Sub(cycleStart).Seconds())
		if res.Decision == decision.IdleInconclusive || res.Decision == decision.IdleConfirmed {
			r.metrics.SetIdleCounter(res.After.NoClientIOCount)
		}
		logging.Info("Cycle %d: %s (%d/%d zero samples, %d unavailable)",
			cycle, res.Decision, res.ZeroCount, window.Len(), res.Unavailable)

		if res.Decision.Terminal() {
			break
		}
		if cycle < r.cfg.MaxIdleCycles {
			logging.Warn("Near-silent window is inconclusive, resampling (cycle %d of %d)",
				cycle+1, r.cfg.MaxIdleCycles)
		}
	}

	report := notify.Report{
		Location:    r.cfg.Location,
		RunID:       out.RunID,
		Cycles:      out.Cycles,
		WindowSize:  r.engine.Policy().WindowSize,
		ZeroCount:   res.ZeroCount,
		Unavailable: res.Unavailable,
	}

	switch res.Decision {
	case decision.Healthy:
		out.Status = OutcomeHealthy
		report.Kind = notify.KindHealthy
		logging.Success("Ceph cluster is healthy, no OSD reboot required")
	case decision.RebootRequired:
		out.Status = OutcomeRebootRequired
		report.Kind = notify.KindReboot
		report.Restart = r.restart(ctx, &out)
	case decision.IdleConfirmed:
		out.Status = OutcomeIdleConfirmed
		report.Kind = notify.KindIdleConfirmed
		logging.Info("No client IO detected across %d consecutive near-silent windows", r.engine.Policy().IdleConfirmThreshold+1)
	case decision.SourceUnavailable:
		out.Status = OutcomeSourceUnavailable
		report.Kind = notify.KindSourceUnavailable
		logging.Error("Unable to sample client IO: %d of %d samples unavailable", res.Unavailable, report.WindowSize)
	default:
		out.Status = OutcomeIdleUnresolved
		report.Kind = notify.KindIdleUnresolved
		logging.Warn("Idle state unresolved after %d cycles, escalating", out.Cycles)
	}

	report.Lines = session.Lines()
	if r.host != nil {
		report.Host = r.host()
	}
	r.notify(ctx, &out, report.Message(r.cfg.SubjectSuffix))

	r.finish(&out, session)
	return out, nil
}

// restart picks a target and runs the actuator. Failures are reported, not
// retried.
func (r *Runner) restart(ctx context.Context, out *Outcome) *notify.Restart {
	target := r.selector.Select()
	out.Target = &target
	out.DryRun = r.cfg.DryRun

	logging.Warn("Ceph cluster is UNHEALTHY, restarting osd.%d", target)
	err := r.actuator.Restart(ctx, target)
	r.metrics.ObserveRestart(err == nil)
	if err != nil {
		logging.Error("Failed to reboot OSD %d: %v", target, err)
		out.RestartErr = err.Error()
	}
	return &notify.Restart{OSD: target, Err: err, DryRun: r.cfg.DryRun}
}

// notify sends msg once. Delivery failures are logged and counted only.
func (r *Runner) notify(ctx context.Context, out *Outcome, msg notify.Message) {
	err := r.notifier.Send(ctx, msg)
	r.metrics.ObserveNotification(err == nil)
	if err != nil {
		logging.Error("Failed to send notification via %s: %v", r.notifier.Name(), err)
		out.NotifyErr = err.Error()
		return
	}
	out.Notified = true
}

func (r *Runner) finish(out *Outcome, session *sampler.SessionLog) {
	out.Lines = session.Lines()
	out.FinishedAt = r.now()
	r.metrics.ObserveOutcome(string(out.Status), float64(out.FinishedAt.Unix()))

	r.mu.Lock()
	saved := *out
	r.last = &saved
	r.mu.Unlock()

	logging.Info("Run %s finished: %s after %d cycle(s) in %s",
		logging.FormatRunID(out.RunID), out.Status, out.Cycles, out.Duration().Round(time.Millisecond))
}
