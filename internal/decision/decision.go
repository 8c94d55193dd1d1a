// Package decision turns a window of client I/O samples into a verdict.
//
// The engine is a pure function of the window, the policy and the persisted
// hysteresis counter. A window where exactly FullIdleCount samples are zero
// is ambiguous: a quiet cluster and a hung one look the same for a single
// window. The counter tracks how many of those ambiguous windows have been
// seen in a row; only after IdleConfirmThreshold of them is the idleness
// accepted as real. Any other window leaves the counter alone.
package decision

import (
	"fmt"

	"github.com/concave-dev/ceph-sentinel/internal/sampler"
	"github.com/concave-dev/ceph-sentinel/internal/state"
)

// Decision is the engine's verdict for one window.
type Decision int

const (
	// Healthy means client I/O is flowing.
	Healthy Decision = iota
	// RebootRequired means I/O has stalled and an OSD should be restarted.
	RebootRequired
	// IdleConfirmed means repeated near-silent windows confirm a quiet cluster.
	IdleConfirmed
	// IdleInconclusive means the window was near-silent but not yet confirmed;
	// the caller should sample again.
	IdleInconclusive
	// SourceUnavailable means too many samples failed to be measured.
	SourceUnavailable
)

// String returns the lowercase decision name used in logs, metrics and JSON.
func (d Decision) String() string {
	switch d {
	case Healthy:
		return "healthy"
	case RebootRequired:
		return "reboot_required"
	case IdleConfirmed:
		return "idle_confirmed"
	case IdleInconclusive:
		return "idle_inconclusive"
	case SourceUnavailable:
		return "source_unavailable"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Decision) UnmarshalText(text []byte) error {
	for _, candidate := range []Decision{Healthy, RebootRequired, IdleConfirmed, IdleInconclusive, SourceUnavailable} {
		if candidate.String() == string(text) {
			*d = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown decision %q", text)
}

// Terminal reports whether the decision ends the sampling loop.
func (d Decision) Terminal() bool {
	return d != IdleInconclusive
}

// Result is the outcome of evaluating one window.
type Result struct {
	Decision    Decision    `json:"decision"`
	ZeroCount   int         `json:"zero_count"`
	Unavailable int         `json:"unavailable"`
	Before      state.State `json:"state_before"`
	After       state.State `json:"state_after"`
}

// StateChanged reports whether the decision mutated the counter.
func (r Result) StateChanged() bool {
	return r.Before != r.After
}

// Engine applies a Policy to sample windows.
type Engine struct {
	policy Policy
}

// NewEngine validates policy and returns an engine for it. A nil policy
// selects DefaultPolicy.
func NewEngine(policy *Policy) (*Engine, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: *policy}, nil
}

// Policy returns a copy of the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Decide classifies w against the counter in st and returns the verdict
// with the counter value that must be persisted. Rules, first match wins:
//
//  1. unavailable samples >= MaxFailedSamples: SourceUnavailable
//  2. zero samples == FullIdleCount: IdleConfirmed if the counter has reached
//     IdleConfirmThreshold (counter resets to 0), else IdleInconclusive
//     (counter incremented)
//  3. zero samples >= RebootThreshold: RebootRequired
//  4. otherwise Healthy
func (e *Engine) Decide(w sampler.Window, st state.State) Result {
	res := Result{
		ZeroCount:   w.ZeroCount(),
		Unavailable: w.UnavailableCount(),
		Before:      st,
		After:       st,
	}

	switch {
	case res.Unavailable >= e.policy.MaxFailedSamples:
		res.Decision = SourceUnavailable
	case res.ZeroCount == e.policy.FullIdleCount:
		// a counter above the threshold confirms too
		if st.NoClientIOCount >= e.policy.IdleConfirmThreshold {
			res.Decision = IdleConfirmed
			res.After = state.State{}
		} else {
			res.Decision = IdleInconclusive
			res.After = state.State{NoClientIOCount: st.NoClientIOCount + 1}
		}
	case res.ZeroCount >= e.policy.RebootThreshold:
		res.Decision = RebootRequired
	default:
		res.Decision = Healthy
	}

	return res
}

// needsState reports whether w falls in the ambiguous idle branch, the only
// branch that reads or writes the counter.
func (e *Engine) needsState(w sampler.Window) bool {
	return w.UnavailableCount() < e.policy.MaxFailedSamples &&
		w.ZeroCount() == e.policy.FullIdleCount
}
