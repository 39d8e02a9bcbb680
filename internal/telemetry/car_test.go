package telemetry

import (
	"testing"
	"time"
)

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("DE:AD:BE:EF:12:34")
	b := r.GetOrCreate("DE:AD:BE:EF:12:34")
	if a != b {
		t.Error("GetOrCreate returned a new record for a known UID")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}

	r.GetOrCreate("01:02:03:04:05:06")
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestRegistrySnapshotOrderAndIsolation(t *testing.T) {
	r := NewRegistry()
	first := r.GetOrCreate("AA:AA:AA:AA:AA:AA")
	first.Speeds = append(first.Speeds, 400)
	r.GetOrCreate("BB:BB:BB:BB:BB:BB")

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2", len(snap))
	}
	if snap[0].UID != "AA:AA:AA:AA:AA:AA" || snap[1].UID != "BB:BB:BB:BB:BB:BB" {
		t.Errorf("snapshot order = %s, %s", snap[0].UID, snap[1].UID)
	}

	// mutating the snapshot must not reach the registry
	snap[0].Speeds[0] = -1
	if first.Speeds[0] != 400 {
		t.Error("Snapshot shares slice storage with the registry")
	}
}

func TestCarStatsAverages(t *testing.T) {
	c := &CarStats{UID: "DE:AD:BE:EF:12:34"}

	if c.HasLap() {
		t.Error("HasLap = true with no laps")
	}
	if c.AvgSpeed() != 0 || c.AvgLap() != 0 {
		t.Error("averages nonzero with no history")
	}

	c.Speeds = []float64{400, 420, 440}
	c.LapTimes = []time.Duration{4 * time.Second, 6 * time.Second}

	if got := c.AvgSpeed(); got != 420 {
		t.Errorf("AvgSpeed = %v, want 420", got)
	}
	if got := c.AvgLap(); got != 5*time.Second {
		t.Errorf("AvgLap = %v, want 5s", got)
	}
	if !c.HasLap() {
		t.Error("HasLap = false with recorded laps")
	}
}
