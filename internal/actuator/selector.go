// Package actuator restarts Ceph OSD daemons.
//
// The sentinel cannot tell which OSD is responsible for stalled client I/O,
// so a restart target is drawn uniformly at random from a configured id
// range. The restart itself is an operator-supplied command template.
package actuator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// TargetSelector draws OSD ids uniformly from an inclusive range.
type TargetSelector struct {
	min, max int

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewTargetSelector returns a selector for [min, max]. A nil src seeds from
// the clock.
func NewTargetSelector(min, max int, src rand.Source) (*TargetSelector, error) {
	if min < 0 {
		return nil, fmt.Errorf("osd id range minimum must be non-negative, got %d", min)
	}
	if min > max {
		return nil, fmt.Errorf("osd id range minimum %d is greater than maximum %d", min, max)
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &TargetSelector{min: min, max: max, rnd: rand.New(src)}, nil
}

// Select returns the next target id.
func (s *TargetSelector) Select() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min + s.rnd.Intn(s.max-s.min+1)
}
