package decision

import (
	"context"
	"fmt"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/sampler"
	"github.com/concave-dev/ceph-sentinel/internal/state"
)

// Evaluate decides w and persists any counter change through store. The
// store is only consulted for ambiguous idle windows, so a healthy or
// stalled cluster is never blocked by the state file. Store errors are
// returned wrapped and leave the verdict unset.
func (e *Engine) Evaluate(ctx context.Context, w sampler.Window, store state.Store) (Result, error) {
	if !e.needsState(w) {
		res := e.Decide(w, state.State{})
		logging.Debug("Window decided without state: %s (zero=%d unavailable=%d)",
			res.Decision, res.ZeroCount, res.Unavailable)
		return res, nil
	}

	var res Result
	_, err := store.Update(ctx, func(current state.State) (state.State, error) {
		res = e.Decide(w, current)
		return res.After, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to update idle counter: %w", err)
	}

	logging.Info("Near-silent window (%d/%d zero samples): no_client_io_count %d -> %d, %s",
		res.ZeroCount, w.Len(), res.Before.NoClientIOCount, res.After.NoClientIOCount, res.Decision)
	return res, nil
}
