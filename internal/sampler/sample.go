// Package sampler collects windows of Ceph client I/O samples.
//
// A Source produces one Sample per call, normally by running `ceph -s` and
// parsing the client I/O line. The Sampler drives a Source a fixed number of
// times with a fixed delay between acquisitions and returns the resulting
// Window. Every acquisition also appends a human-readable line to the
// caller's SessionLog, which ends up verbatim in the operator notification.
//
// Acquisition failures never abort a window. They produce a zero-valued
// sample with a Failed or TimedOut status so the decision engine can tell a
// broken query apart from a silent cluster. Only context cancellation
// abandons a window.
package sampler

import (
	"fmt"
	"time"
)

// Status classifies how a single sample was obtained.
type Status int

const (
	// StatusOK means an indicator line was found and parsed.
	StatusOK Status = iota
	// StatusNoIndicator means the query succeeded but reported no client I/O.
	StatusNoIndicator
	// StatusFailed means the query failed or its indicator line was unparsable.
	StatusFailed
	// StatusTimedOut means the query did not finish within its timeout.
	StatusTimedOut
	// StatusCancelled means the caller's context ended during the query.
	// Such samples are discarded, never counted.
	StatusCancelled
)

// String returns the lowercase status name used in logs, metrics and JSON.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoIndicator:
		return "no_indicator"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed_out"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusOK, StatusNoIndicator, StatusFailed, StatusTimedOut, StatusCancelled} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown sample status %q", text)
}

// Unavailable reports whether the sample could not be measured at all.
func (s Status) Unavailable() bool {
	return s == StatusFailed || s == StatusTimedOut
}

// Sample is one measurement of client operations per second. Unavailable
// samples always carry Ops == 0.
type Sample struct {
	Ops    int64  `json:"ops"`
	Status Status `json:"status"`
	Line   string `json:"line,omitempty"`
	// Lines holds every indicator line of the query when there was more
	// than one; Line is the last of them.
	Lines []string  `json:"lines,omitempty"`
	Err   error     `json:"-"`
	At    time.Time `json:"at"`
}

// IsZero reports whether the sample counts toward the zero-I/O tally.
func (s Sample) IsZero() bool {
	return s.Ops == 0
}

// LogLine returns the session log entry for this sample.
func (s Sample) LogLine() string {
	switch s.Status {
	case StatusOK:
		return s.Line
	case StatusNoIndicator:
		return "No client io detected"
	default:
		if s.Err != nil {
			return fmt.Sprintf("Sample unavailable (%s): %v", s.Status, s.Err)
		}
		return fmt.Sprintf("Sample unavailable (%s)", s.Status)
	}
}

// LogLines returns the session log entries for this sample: every indicator
// line the query printed, or the single LogLine.
func (s Sample) LogLines() []string {
	if s.Status == StatusOK && len(s.Lines) > 0 {
		return s.Lines
	}
	return []string{s.LogLine()}
}

// Window is the ordered set of samples collected in one decision cycle.
type Window struct {
	Samples []Sample `json:"samples"`
}

// Len returns the number of samples in the window.
func (w Window) Len() int {
	return len(w.Samples)
}

// ZeroCount returns how many samples reported zero operations, unavailable
// samples included.
func (w Window) ZeroCount() int {
	n := 0
	for _, s := range w.Samples {
		if s.IsZero() {
			n++
		}
	}
	return n
}

// UnavailableCount returns how many samples failed or timed out.
func (w Window) UnavailableCount() int {
	n := 0
	for _, s := range w.Samples {
		if s.Status.Unavailable() {
			n++
		}
	}
	return n
}

// CountByStatus tallies samples per status.
func (w Window) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, s := range w.Samples {
		counts[s.Status]++
	}
	return counts
}

// Ops returns the op counts in acquisition order.
func (w Window) Ops() []int64 {
	ops := make([]int64, len(w.Samples))
	for i, s := range w.Samples {
		ops[i] = s.Ops
	}
	return ops
}

// SessionLog accumulates the human-readable sample lines of one top-level
// sentinel invocation, across every resampling cycle it performs. It is owned
// by the caller and passed explicitly; it is not safe for concurrent use.
type SessionLog struct {
	lines []string
}

// NewSessionLog returns an empty log.
func NewSessionLog() *SessionLog {
	return &SessionLog{}
}

// Add appends a line.
func (l *SessionLog) Add(line string) {
	l.lines = append(l.lines, line)
}

// Lines returns a copy of the accumulated lines.
func (l *SessionLog) Lines() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of lines.
func (l *SessionLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.lines)
}
