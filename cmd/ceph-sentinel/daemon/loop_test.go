package daemon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
	"github.com/concave-dev/ceph-sentinel/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeLoop_RunsImmediatelyAndOnTicks(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var afterCalls int
	loop := &serveLoop{
		interval: 10 * time.Millisecond,
		cycle: func(ctx context.Context) (sentinel.Outcome, error) {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return sentinel.Outcome{Status: sentinel.OutcomeHealthy}, nil
		},
		after: func(sentinel.Outcome, error) {
			mu.Lock()
			afterCalls++
			mu.Unlock()
		},
	}

	require.NoError(t, loop.run(ctx))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
	assert.Equal(t, int(calls.Load()), loop.runs)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, afterCalls, 2)
}

func TestServeLoop_SkipsTicksWhileRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var calls atomic.Int32
	loop := &serveLoop{
		interval: 5 * time.Millisecond,
		cycle: func(ctx context.Context) (sentinel.Outcome, error) {
			calls.Add(1)
			select {
			case <-release:
			case <-ctx.Done():
				return sentinel.Outcome{}, ctx.Err()
			}
			return sentinel.Outcome{}, nil
		},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- loop.run(ctx) }()

	time.Sleep(60 * time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, int32(1), calls.Load(), "a slow run must not overlap with the next")
	assert.Positive(t, loop.skipped)
}

func TestServeLoop_StopsOnPersistenceError(t *testing.T) {
	perr := &state.PersistenceError{Op: "load", Path: "/x", Err: errors.New("bad json")}
	var calls atomic.Int32
	loop := &serveLoop{
		interval: 5 * time.Millisecond,
		cycle: func(ctx context.Context) (sentinel.Outcome, error) {
			calls.Add(1)
			return sentinel.Outcome{Status: sentinel.OutcomePersistenceError},
				&sentinel.ExitError{Code: sentinel.ExitPersistenceError, Err: perr}
		},
	}

	err := loop.run(context.Background())
	require.Error(t, err)
	assert.Equal(t, sentinel.ExitPersistenceError, sentinel.ExitCodeFor(err))
	assert.True(t, state.IsPersistenceError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestServeLoop_ContinuesAfterOtherErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	loop := &serveLoop{
		interval: 5 * time.Millisecond,
		cycle: func(ctx context.Context) (sentinel.Outcome, error) {
			if calls.Add(1) >= 2 {
				cancel()
			}
			return sentinel.Outcome{}, errors.New("sampling cycle 1: boom")
		},
	}

	require.NoError(t, loop.run(ctx))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}
