// Package samplertest provides window builders for tests of packages that
// consume sampler windows.
package samplertest

import (
	"fmt"

	"github.com/concave-dev/ceph-sentinel/internal/sampler"
)

// WindowFromOps builds a window with the given op counts. Non-zero counts are
// StatusOK samples with a `ceph -s` style line; zero counts are recorded as
// StatusNoIndicator.
func WindowFromOps(ops ...int64) sampler.Window {
	w := sampler.Window{Samples: make([]sampler.Sample, 0, len(ops))}
	for _, n := range ops {
		s := sampler.Sample{Ops: n, Status: sampler.StatusOK, Line: fmt.Sprintf("client io 0 B/s wr, %d op/s", n)}
		if n == 0 {
			s.Status = sampler.StatusNoIndicator
			s.Line = ""
		}
		w.Samples = append(w.Samples, s)
	}
	return w
}
