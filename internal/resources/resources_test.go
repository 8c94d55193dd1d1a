package resources

import (
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// fakeCollector returns a collector with deterministic probes and a
// controllable clock.
func fakeCollector(start time.Time, clock *time.Time) *Collector {
	return &Collector{
		startTime: start,
		probes: probes{
			hostname: func() (string, error) { return "mon-a", nil },
			loadAvg: func() (*load.AvgStat, error) {
				return &load.AvgStat{Load1: 0.5, Load5: 0.25, Load15: 0.125}, nil
			},
			memory: func() (*mem.VirtualMemoryStat, error) {
				return &mem.VirtualMemoryStat{Total: 8 << 30, Available: 2 << 30, UsedPercent: 75}, nil
			},
			now: func() time.Time { return *clock },
		},
	}
}

// TestGather tests snapshot population from the probes
func TestGather(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := start.Add(time.Hour)

	snap := fakeCollector(start, &clock).Gather()

	if snap.Hostname != "mon-a" {
		t.Errorf("Hostname = %q, want %q", snap.Hostname, "mon-a")
	}
	if snap.Uptime != time.Hour {
		t.Errorf("Uptime = %v, want %v", snap.Uptime, time.Hour)
	}
	if snap.CPUCores != runtime.NumCPU() {
		t.Errorf("CPUCores = %d, want %d", snap.CPUCores, runtime.NumCPU())
	}
	if snap.Load1 != 0.5 || snap.Load15 != 0.125 {
		t.Errorf("load = %v/%v, want 0.5/0.125", snap.Load1, snap.Load15)
	}
	if snap.MemoryTotal != 8<<30 || snap.MemoryUsage != 75 {
		t.Errorf("memory = %d (%.1f%%), want %d (75%%)", snap.MemoryTotal, snap.MemoryUsage, uint64(8<<30))
	}
	if snap.GoRoutines <= 0 {
		t.Errorf("GoRoutines = %d, should be positive", snap.GoRoutines)
	}
}

// TestGatherProbeFailures tests that failed probes leave fields empty
func TestGatherProbeFailures(t *testing.T) {
	clock := time.Now()
	c := fakeCollector(clock, &clock)
	c.probes.hostname = func() (string, error) { return "", errors.New("no uts") }
	c.probes.loadAvg = func() (*load.AvgStat, error) { return nil, errors.New("no proc") }
	c.probes.memory = func() (*mem.VirtualMemoryStat, error) { return nil, errors.New("no proc") }

	snap := c.Gather()

	if snap.Hostname != "unknown" {
		t.Errorf("Hostname = %q, want %q", snap.Hostname, "unknown")
	}
	if snap.Load1 != 0 || snap.MemoryTotal != 0 {
		t.Errorf("expected zero load and memory, got %v and %d", snap.Load1, snap.MemoryTotal)
	}

	footer := snap.Footer()
	if len(footer) != 2 {
		t.Errorf("Footer() without memory should have 2 lines, got %d: %v", len(footer), footer)
	}
}

// TestFooter tests the notification footer text
func TestFooter(t *testing.T) {
	clock := time.Now()
	footer := fakeCollector(clock, &clock).Gather().Footer()

	if len(footer) != 3 {
		t.Fatalf("Footer() lines = %d, want 3: %v", len(footer), footer)
	}
	if !strings.HasPrefix(footer[0], "Host: mon-a (") {
		t.Errorf("footer[0] = %q", footer[0])
	}
	if footer[1] != "Load average: 0.50 0.25 0.12" && footer[1] != "Load average: 0.50 0.25 0.13" {
		t.Errorf("footer[1] = %q", footer[1])
	}
	if footer[2] != "Memory: 2.0 GiB available of 8.0 GiB (75.0% used)" {
		t.Errorf("footer[2] = %q", footer[2])
	}
}

// TestSnapshotCache tests TTL based reuse and invalidation
func TestSnapshotCache(t *testing.T) {
	clock := time.Now()
	collector := fakeCollector(clock, &clock)
	cache := NewSnapshotCache(collector, 30*time.Second)

	first := cache.Get()
	clock = clock.Add(10 * time.Second)
	if second := cache.Get(); second != first {
		t.Error("Get() within TTL should return the cached snapshot")
	}

	clock = clock.Add(30 * time.Second)
	if third := cache.Get(); third == first {
		t.Error("Get() after TTL should gather a new snapshot")
	}

	cache.Invalidate()
	cache.Get()

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 3 {
		t.Errorf("Stats() = %+v, want 1 hit and 3 misses", stats)
	}
}

// TestSnapshotCacheDisabled tests that a zero TTL always gathers
func TestSnapshotCacheDisabled(t *testing.T) {
	clock := time.Now()
	cache := NewSnapshotCache(fakeCollector(clock, &clock), 0)

	if cache.Get() == cache.Get() {
		t.Error("Get() with caching disabled should not reuse snapshots")
	}
}
