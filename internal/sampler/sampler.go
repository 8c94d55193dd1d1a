package sampler

import (
	"context"
	"errors"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
)

// Sampler collects fixed-size windows from a Source.
type Sampler struct {
	source   Source
	size     int
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithSleepFunc overrides the inter-sample delay (useful for tests).
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Sampler) {
		s.sleep = fn
	}
}

// New constructs a Sampler for the given source.
func New(source Source, cfg *Config, opts ...Option) (*Sampler, error) {
	if source == nil {
		return nil, errors.New("sample source must not be nil")
	}
	if cfg == nil {
		return nil, errors.New("sampler config must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Sampler{
		source:   source,
		size:     cfg.WindowSize,
		interval: cfg.Interval,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	return s, nil
}

// WindowSize returns the number of samples per window.
func (s *Sampler) WindowSize() int {
	return s.size
}

// Sample acquires a full window, appending one line per sample to log. The
// delay separates acquisitions; none follows the last one. A cancelled
// context aborts the window and returns the context error.
func (s *Sampler) Sample(ctx context.Context, log *SessionLog) (Window, error) {
	w := Window{Samples: make([]Sample, 0, s.size)}

	for i := 0; i < s.size; i++ {
		if err := ctx.Err(); err != nil {
			return w, err
		}

		sample := s.source.Acquire(ctx)
		if err := ctx.Err(); err != nil {
			// an interrupted acquisition never joins the window
			return w, err
		}
		if sample.Status.Unavailable() {
			sample.Ops = 0
		}
		w.Samples = append(w.Samples, sample)
		if log != nil {
			for _, line := range sample.LogLines() {
				log.Add(line)
			}
		}
		logging.Debug("Sample %d/%d: ops=%d status=%s", i+1, s.size, sample.Ops, sample.Status)

		if i < s.size-1 && s.interval > 0 {
			if err := s.sleep(ctx, s.interval); err != nil {
				return w, err
			}
		}
	}

	return w, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
