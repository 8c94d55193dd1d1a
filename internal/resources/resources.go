// Package resources captures a snapshot of the host the sentinel runs on.
//
// The snapshot is attached to every operator notification and served by the
// status API so a report carries enough context to tell a struggling
// monitor host apart from a struggling cluster: hostname, load averages,
// system memory and the sentinel's own Go runtime footprint.
//
// System figures come from gopsutil; when a probe fails the snapshot keeps
// the fields it could fill and records nothing for the rest, because a
// missing footer line must never block a notification.
package resources

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostSnapshot is a point-in-time view of the sentinel host.
type HostSnapshot struct {
	Hostname  string    `json:"hostname"`
	Timestamp time.Time `json:"timestamp"`

	CPUCores int     `json:"cpuCores"`
	Load1    float64 `json:"load1"`
	Load5    float64 `json:"load5"`
	Load15   float64 `json:"load15"`

	// System memory in bytes
	MemoryTotal     uint64  `json:"memoryTotal"`
	MemoryAvailable uint64  `json:"memoryAvailable"`
	MemoryUsage     float64 `json:"memoryUsage"` // percentage 0-100

	GoRoutines int    `json:"goRoutines"`
	GoMemAlloc uint64 `json:"goMemAlloc"`

	Uptime time.Duration `json:"uptime"` // sentinel process uptime
}

// probes are the system calls a Collector makes. Tests replace them.
type probes struct {
	hostname func() (string, error)
	loadAvg  func() (*load.AvgStat, error)
	memory   func() (*mem.VirtualMemoryStat, error)
	now      func() time.Time
}

func defaultProbes() probes {
	return probes{
		hostname: os.Hostname,
		loadAvg:  load.Avg,
		memory:   mem.VirtualMemory,
		now:      time.Now,
	}
}

// Collector gathers host snapshots.
type Collector struct {
	startTime time.Time
	probes    probes
}

// NewCollector returns a collector that reports uptime relative to startTime.
func NewCollector(startTime time.Time) *Collector {
	return &Collector{startTime: startTime, probes: defaultProbes()}
}

// Gather takes a snapshot. Probe failures are logged at debug level and
// leave the corresponding fields zero.
func (c *Collector) Gather() *HostSnapshot {
	now := c.probes.now()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := &HostSnapshot{
		Timestamp:  now,
		CPUCores:   runtime.NumCPU(),
		GoRoutines: runtime.NumGoroutine(),
		GoMemAlloc: memStats.Alloc,
		Uptime:     now.Sub(c.startTime),
	}

	if name, err := c.probes.hostname(); err != nil {
		logging.Debug("Failed to read hostname: %v", err)
		snap.Hostname = "unknown"
	} else {
		snap.Hostname = name
	}

	if avg, err := c.probes.loadAvg(); err != nil {
		logging.Debug("Failed to read load average: %v", err)
	} else {
		snap.Load1, snap.Load5, snap.Load15 = avg.Load1, avg.Load5, avg.Load15
	}

	if vm, err := c.probes.memory(); err != nil {
		logging.Debug("Failed to read system memory: %v", err)
	} else {
		snap.MemoryTotal = vm.Total
		snap.MemoryAvailable = vm.Available
		snap.MemoryUsage = vm.UsedPercent
	}

	return snap
}

// Footer renders the snapshot as the plain-text lines appended to operator
// notifications.
func (s *HostSnapshot) Footer() []string {
	lines := []string{
		fmt.Sprintf("Host: %s (%d cores)", s.Hostname, s.CPUCores),
		fmt.Sprintf("Load average: %.2f %.2f %.2f", s.Load1, s.Load5, s.Load15),
	}
	if s.MemoryTotal > 0 {
		lines = append(lines, fmt.Sprintf("Memory: %s available of %s (%.1f%% used)",
			humanize.IBytes(s.MemoryAvailable), humanize.IBytes(s.MemoryTotal), s.MemoryUsage))
	}
	return lines
}

// String returns the footer joined on one line, for logs.
func (s *HostSnapshot) String() string {
	return strings.Join(s.Footer(), ", ")
}
