package samplertest

import (
	"testing"

	"github.com/concave-dev/ceph-sentinel/internal/sampler"
	"github.com/stretchr/testify/assert"
)

func TestWindowFromOps(t *testing.T) {
	w := WindowFromOps(5, 0, 3, 0, 0, 12, 0, 0, 7, 0)
	assert.Equal(t, 10, w.Len())
	assert.Equal(t, 5, w.ZeroCount())
	assert.Equal(t, 0, w.UnavailableCount())
	assert.Equal(t, sampler.StatusNoIndicator, w.Samples[1].Status)
	assert.Equal(t, "client io 0 B/s wr, 12 op/s", w.Samples[5].Line)
}
