package race

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewResultAggregates(t *testing.T) {
	laps := []time.Duration{4 * time.Second, 2 * time.Second, 6 * time.Second}
	recorded := time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC)

	r, err := NewResult("Player 1", "DE:AD:BE:EF:12:34", laps, recorded)
	if err != nil {
		t.Fatalf("NewResult: %v", err)
	}

	if r.ID == "" {
		t.Error("ID is empty")
	}
	if r.LapCount != 3 {
		t.Errorf("LapCount = %d, want 3", r.LapCount)
	}
	if r.TotalTime != 12*time.Second {
		t.Errorf("TotalTime = %v, want 12s", r.TotalTime)
	}
	if r.BestLap != 2*time.Second || r.BestLapNum != 2 {
		t.Errorf("BestLap = %v (lap %d), want 2s (lap 2)", r.BestLap, r.BestLapNum)
	}
	if r.WorstLap != 6*time.Second || r.WorstLapNum != 3 {
		t.Errorf("WorstLap = %v (lap %d), want 6s (lap 3)", r.WorstLap, r.WorstLapNum)
	}
	if r.AvgLap != 4*time.Second {
		t.Errorf("AvgLap = %v, want 4s", r.AvgLap)
	}
	if diff := cmp.Diff(laps, r.LapTimes); diff != "" {
		t.Errorf("LapTimes mismatch (-want +got):\n%s", diff)
	}

	// the input slice must not be aliased
	laps[0] = time.Hour
	if r.LapTimes[0] != 4*time.Second {
		t.Error("LapTimes aliases the caller's slice")
	}
}

func TestNewResultDuplicateExtremes(t *testing.T) {
	laps := []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}
	r, err := NewResult("Player 1", "Unknown", laps, time.Time{})
	if err != nil {
		t.Fatalf("NewResult: %v", err)
	}
	// first occurrence wins on ties
	if r.BestLapNum != 1 || r.WorstLapNum != 1 {
		t.Errorf("BestLapNum = %d, WorstLapNum = %d, want 1 and 1", r.BestLapNum, r.WorstLapNum)
	}
}

func TestNewResultNoLaps(t *testing.T) {
	_, err := NewResult("Player 1", "Unknown", nil, time.Time{})
	if !errors.Is(err, ErrNoLaps) {
		t.Errorf("err = %v, want ErrNoLaps", err)
	}
}
