package sentinel

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/decision"
	"github.com/concave-dev/ceph-sentinel/internal/metrics"
	"github.com/concave-dev/ceph-sentinel/internal/notify"
	"github.com/concave-dev/ceph-sentinel/internal/resources"
	"github.com/concave-dev/ceph-sentinel/internal/sampler"
	"github.com/concave-dev/ceph-sentinel/internal/sampler/samplertest"
	"github.com/concave-dev/ceph-sentinel/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSampler replays windows in order, repeating the last one.
type scriptedSampler struct {
	windows []sampler.Window
	calls   int
	err     error
}

func (s *scriptedSampler) Sample(ctx context.Context, log *sampler.SessionLog) (sampler.Window, error) {
	if s.err != nil {
		return sampler.Window{}, s.err
	}
	i := s.calls
	if i >= len(s.windows) {
		i = len(s.windows) - 1
	}
	s.calls++
	w := s.windows[i]
	for _, smp := range w.Samples {
		for _, line := range smp.LogLines() {
			log.Add(line)
		}
	}
	return w, nil
}

type memStore struct {
	st  state.State
	err error
}

func (m *memStore) Load(ctx context.Context) (state.State, error) { return m.st, m.err }

func (m *memStore) Save(ctx context.Context, st state.State) error {
	if m.err != nil {
		return m.err
	}
	m.st = st
	return nil
}

func (m *memStore) Update(ctx context.Context, fn func(state.State) (state.State, error)) (state.State, error) {
	if m.err != nil {
		return state.State{}, m.err
	}
	next, err := fn(m.st)
	if err != nil {
		return m.st, err
	}
	m.st = next
	return next, nil
}

type recordingActuator struct {
	restarted []int
	err       error
}

func (a *recordingActuator) Restart(ctx context.Context, id int) error {
	a.restarted = append(a.restarted, id)
	return a.err
}

type recordingNotifier struct {
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Send(ctx context.Context, msg notify.Message) error {
	n.sent = append(n.sent, msg)
	return n.err
}

// zeros returns a 10-sample window with z zero samples.
func zeros(z int) sampler.Window {
	ops := make([]int64, 10)
	for i := z; i < 10; i++ {
		ops[i] = 5
	}
	return samplertest.WindowFromOps(ops...)
}

// metricValue returns the value of the series of name whose single label
// equals label, or of the unlabelled series when label is empty.
func metricValue(t *testing.T, m *metrics.Metrics, name, label string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := metric.GetLabel()
			matched := (label == "" && len(labels) == 0) ||
				(len(labels) == 1 && labels[0].GetValue() == label)
			if matched {
				if c := metric.GetCounter(); c != nil {
					return c.GetValue()
				}
				return metric.GetGauge().GetValue()
			}
		}
	}
	return 0
}

type fixture struct {
	sampler  *scriptedSampler
	store    *memStore
	actuator *recordingActuator
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	runner   *Runner
}

func newFixture(t *testing.T, counter int, maxIdle int, windows ...sampler.Window) *fixture {
	t.Helper()

	engine, err := decision.NewEngine(nil)
	require.NoError(t, err)

	f := &fixture{
		sampler:  &scriptedSampler{windows: windows},
		store:    &memStore{st: state.State{NoClientIOCount: counter}},
		actuator: &recordingActuator{},
		notifier: &recordingNotifier{},
		metrics:  metrics.New(),
	}

	cfg := DefaultConfig()
	if maxIdle > 0 {
		cfg.MaxIdleCycles = maxIdle
	}

	f.runner, err = NewRunner(cfg, f.sampler, engine, f.store, f.actuator, f.notifier,
		WithRandSource(rand.NewSource(1)),
		WithMetrics(f.metrics),
		WithIDFunc(func() string { return "run-0001" }),
		WithHostSnapshot(func() *resources.HostSnapshot {
			return &resources.HostSnapshot{Hostname: "mon-a", CPUCores: 2}
		}),
	)
	require.NoError(t, err)
	return f
}

func (f *fixture) onlyMessage(t *testing.T) notify.Message {
	t.Helper()
	require.Len(t, f.notifier.sent, 1, "exactly one notification per run")
	return f.notifier.sent[0]
}

func TestRunOnce_Healthy(t *testing.T) {
	f := newFixture(t, 2, 0, samplertest.WindowFromOps(5, 0, 3, 0, 0, 12, 0, 0, 7, 0))

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeHealthy, out.Status)
	assert.Equal(t, ExitHealthy, out.ExitCode())
	assert.Equal(t, 1, out.Cycles)
	assert.Nil(t, out.Target)
	assert.Empty(t, f.actuator.restarted)
	assert.Equal(t, 2, f.store.st.NoClientIOCount)

	msg := f.onlyMessage(t)
	assert.Equal(t, "HEALTHY - LAB Ceph Sentinel", msg.Subject)
	assert.Contains(t, msg.Body, "Ceph cluster is healthy, no OSD reboot required")
	assert.Contains(t, msg.Body, "No client io detected")
	assert.Contains(t, msg.Body, "Host: mon-a")
	assert.Contains(t, msg.Body, "Run ID: run-0001")
	assert.True(t, out.Notified)
	assert.Len(t, out.Lines, 10)
}

func TestRunOnce_RebootRequired(t *testing.T) {
	f := newFixture(t, 3, 0, zeros(8))

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeRebootRequired, out.Status)
	assert.Equal(t, ExitRebootRequired, out.ExitCode())
	require.Len(t, f.actuator.restarted, 1)
	require.NotNil(t, out.Target)
	assert.Equal(t, *out.Target, f.actuator.restarted[0])
	assert.GreaterOrEqual(t, *out.Target, 4)
	assert.LessOrEqual(t, *out.Target, 9)
	assert.Equal(t, 3, f.store.st.NoClientIOCount, "reboot path never touches the counter")

	msg := f.onlyMessage(t)
	assert.Equal(t, "WARNING - LAB Ceph Sentinel", msg.Subject)
	assert.Contains(t, msg.Body, fmt.Sprintf("Successfully restarted OSD: %d", *out.Target))
	assert.Equal(t, 1.0, metricValue(t, f.metrics, "ceph_sentinel_osd_restarts_total", "success"))
}

func TestRunOnce_RestartFailure(t *testing.T) {
	f := newFixture(t, 0, 0, zeros(10))
	f.actuator.err = errors.New("exit status 1: osd not found")

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeRebootRequired, out.Status)
	assert.Contains(t, out.RestartErr, "osd not found")
	require.Len(t, f.actuator.restarted, 1, "restart is not retried")

	msg := f.onlyMessage(t)
	assert.Equal(t, "WARNING - LAB Ceph Sentinel", msg.Subject)
	assert.Contains(t, msg.Body, fmt.Sprintf("Failed to reboot OSD: %d", *out.Target))
	assert.Equal(t, 1.0, metricValue(t, f.metrics, "ceph_sentinel_osd_restarts_total", "failure"))
}

func TestRunOnce_IdleConfirmedImmediately(t *testing.T) {
	f := newFixture(t, 3, 0, zeros(9))

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeIdleConfirmed, out.Status)
	assert.Equal(t, ExitIdle, out.ExitCode())
	assert.Equal(t, 1, out.Cycles)
	assert.Equal(t, 1, f.sampler.calls, "confirmed idle does not resample")
	assert.Equal(t, 0, f.store.st.NoClientIOCount)
	assert.Empty(t, f.actuator.restarted)
	assert.Equal(t, "INFO NO Client IO - LAB Ceph Sentinel", f.onlyMessage(t).Subject)
}

func TestRunOnce_InconclusiveResamples(t *testing.T) {
	f := newFixture(t, 1, 0, zeros(9), zeros(2))

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeHealthy, out.Status)
	assert.Equal(t, 2, out.Cycles)
	assert.Equal(t, 2, f.store.st.NoClientIOCount, "counter keeps the increment from the first cycle")
	assert.Len(t, out.Lines, 20, "session log spans every cycle of the run")

	msg := f.onlyMessage(t)
	assert.Equal(t, 20, strings.Count(msg.Body, "\n "), "every sample line appears in the body")
}

func TestRunOnce_ConfirmsAfterConsecutiveIdleWindows(t *testing.T) {
	f := newFixture(t, 0, 5, zeros(9))

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeIdleConfirmed, out.Status)
	assert.Equal(t, 4, out.Cycles)
	assert.Equal(t, 0, f.store.st.NoClientIOCount)
	assert.Equal(t, 0.0, metricValue(t, f.metrics, "ceph_sentinel_no_client_io_count", ""))
	f.onlyMessage(t)
}

func TestRunOnce_IdleUnresolvedIsBounded(t *testing.T) {
	f := newFixture(t, 0, 2, zeros(9))

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeIdleUnresolved, out.Status)
	assert.Equal(t, ExitIdle, out.ExitCode())
	assert.Equal(t, 2, out.Cycles)
	assert.Equal(t, 2, f.sampler.calls)
	assert.Equal(t, 2, f.store.st.NoClientIOCount)
	assert.Empty(t, f.actuator.restarted)

	msg := f.onlyMessage(t)
	assert.Equal(t, "WARNING - LAB Ceph Sentinel", msg.Subject)
	assert.Contains(t, msg.Body, "after 2 sampling cycles")
}

func TestRunOnce_SourceUnavailable(t *testing.T) {
	w := zeros(0)
	for i := 0; i < 6; i++ {
		w.Samples[i] = sampler.Sample{Status: sampler.StatusTimedOut, Err: errors.New("command timed out")}
	}
	f := newFixture(t, 1, 0, w)

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSourceUnavailable, out.Status)
	assert.Equal(t, ExitSourceUnavailable, out.ExitCode())
	assert.Empty(t, f.actuator.restarted)
	assert.Equal(t, 1, f.store.st.NoClientIOCount)

	msg := f.onlyMessage(t)
	assert.Equal(t, "CRITICAL - LAB Ceph Sentinel", msg.Subject)
	assert.Contains(t, msg.Body, "Sample unavailable (timed_out)")
	assert.Equal(t, 6.0, metricValue(t, f.metrics, "ceph_sentinel_samples_total", "timed_out"))
}

func TestRunOnce_PersistenceErrorAborts(t *testing.T) {
	f := newFixture(t, 0, 0, zeros(9))
	f.store.err = &state.PersistenceError{Op: "decode", Path: "/var/lib/x.json", Err: errors.New("unexpected EOF")}

	out, err := f.runner.RunOnce(context.Background())
	require.Error(t, err)

	assert.Equal(t, ExitPersistenceError, ExitCodeFor(err))
	assert.True(t, state.IsPersistenceError(err))
	assert.Equal(t, OutcomePersistenceError, out.Status)
	assert.Empty(t, f.notifier.sent, "persistence failures send no notification")
	assert.Empty(t, f.actuator.restarted)

	last, ok := f.runner.LastOutcome()
	require.True(t, ok)
	assert.Equal(t, OutcomePersistenceError, last.Status)
}

func TestRunOnce_PersistenceErrorIgnoredOutsideIdleBranch(t *testing.T) {
	f := newFixture(t, 0, 0, zeros(8))
	f.store.err = &state.PersistenceError{Op: "decode", Path: "/var/lib/x.json", Err: errors.New("unexpected EOF")}

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRebootRequired, out.Status)
}

func TestRunOnce_NotificationFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, 0, 0, zeros(0))
	f.notifier.err = &notify.NotificationError{Provider: "recording", Err: errors.New("connection refused")}

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeHealthy, out.Status)
	assert.False(t, out.Notified)
	assert.Contains(t, out.NotifyErr, "connection refused")
	assert.Equal(t, 1.0, metricValue(t, f.metrics, "ceph_sentinel_notifications_total", "failure"))
}

func TestRunOnce_SamplingCancelled(t *testing.T) {
	f := newFixture(t, 0, 0, zeros(0))
	f.sampler.err = context.Canceled

	_, err := f.runner.RunOnce(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.notifier.sent)

	_, ok := f.runner.LastOutcome()
	assert.False(t, ok)
}

func TestRunOnce_CancelledDuringLastSample(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	src := sampler.SourceFunc(func(context.Context) sampler.Sample {
		calls++
		switch {
		case calls <= 6:
			return sampler.Sample{Status: sampler.StatusNoIndicator}
		case calls < 10:
			return sampler.Sample{Ops: 5, Status: sampler.StatusOK, Line: "client io 1 kB/s wr, 5 op/s"}
		default:
			cancel()
			return sampler.Sample{Status: sampler.StatusFailed, Err: errors.New("signal: terminated")}
		}
	})
	ws, err := sampler.New(src, sampler.DefaultConfig(),
		sampler.WithSleepFunc(func(context.Context, time.Duration) error { return nil }))
	require.NoError(t, err)

	f := newFixture(t, 0, 0, zeros(0))
	engine, err := decision.NewEngine(nil)
	require.NoError(t, err)
	runner, err := NewRunner(DefaultConfig(), ws, engine, f.store, f.actuator, f.notifier,
		WithRandSource(rand.NewSource(1)), WithMetrics(f.metrics))
	require.NoError(t, err)

	_, err = runner.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, calls)
	assert.Empty(t, f.actuator.restarted)
	assert.Empty(t, f.notifier.sent)

	_, ok := runner.LastOutcome()
	assert.False(t, ok)
}

func TestRunOnce_RecordsLastOutcome(t *testing.T) {
	f := newFixture(t, 0, 0, zeros(3))
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := start
	f.runner.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	out, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)

	last, ok := f.runner.LastOutcome()
	require.True(t, ok)
	assert.Equal(t, out.RunID, last.RunID)
	assert.Equal(t, OutcomeHealthy, last.Status)
	assert.True(t, last.FinishedAt.After(last.StartedAt))
}

func TestNewRunner_Validation(t *testing.T) {
	engine, err := decision.NewEngine(nil)
	require.NoError(t, err)
	ws := &scriptedSampler{windows: []sampler.Window{zeros(0)}}
	store := &memStore{}
	act := &recordingActuator{}
	n := &recordingNotifier{}

	_, err = NewRunner(nil, ws, engine, store, act, n)
	assert.Error(t, err)

	_, err = NewRunner(DefaultConfig(), nil, engine, store, act, n)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.MaxIdleCycles = 0
	_, err = NewRunner(cfg, ws, engine, store, act, n)
	assert.Error(t, err)

	_, err = NewRunner(DefaultConfig(), ws, engine, store, act, n, WithTargetRange(9, 4))
	assert.Error(t, err)
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitHealthy},
		{"plain error", errors.New("bad flag"), ExitUsage},
		{"exit error", &ExitError{Code: ExitSourceUnavailable}, ExitSourceUnavailable},
		{"wrapped exit error", fmt.Errorf("run: %w", &ExitError{Code: ExitPersistenceError}), ExitPersistenceError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

func TestOutcomeStatusExitCodes(t *testing.T) {
	assert.Equal(t, 0, OutcomeHealthy.ExitCode())
	assert.Equal(t, 2, OutcomeRebootRequired.ExitCode())
	assert.Equal(t, 3, OutcomeIdleConfirmed.ExitCode())
	assert.Equal(t, 3, OutcomeIdleUnresolved.ExitCode())
	assert.Equal(t, 4, OutcomePersistenceError.ExitCode())
	assert.Equal(t, 5, OutcomeSourceUnavailable.ExitCode())
}
