package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
)

type cycleFunc func(ctx context.Context) (sentinel.Outcome, error)

type cycleResult struct {
	out sentinel.Outcome
	err error
}

// serveLoop runs cycle immediately and then on every tick. A tick that
// arrives while a run is in flight is skipped. Only the run goroutine
// touches the counters.
type serveLoop struct {
	interval time.Duration
	cycle    cycleFunc
	after    func(sentinel.Outcome, error)

	runs    int
	skipped int
}

func (l *serveLoop) run(ctx context.Context) error {
	done := make(chan cycleResult, 1)
	running := false

	start := func() {
		running = true
		l.runs++
		go func() {
			out, err := l.cycle(ctx)
			done <- cycleResult{out: out, err: err}
		}()
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	start()

	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			return nil

		case <-ticker.C:
			if running {
				l.skipped++
				logging.Warn("Previous run still in progress, skipping tick")
				continue
			}
			start()

		case res := <-done:
			running = false
			if l.after != nil {
				l.after(res.out, res.err)
			}
			if res.err == nil || errors.Is(res.err, context.Canceled) {
				continue
			}
			if sentinel.ExitCodeFor(res.err) == sentinel.ExitPersistenceError {
				logging.Error("Stopping: state file needs operator attention")
				return res.err
			}
			logging.Error("Run failed: %v", res.err)
		}
	}
}
