package telemetry

import (
	"testing"
	"time"
)

func passTime(sec int) time.Time {
	return time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC).Add(time.Duration(sec) * time.Second)
}

func TestPassTrackerLapDerivation(t *testing.T) {
	tr := NewPassTracker(10)
	car := &CarStats{UID: "DE:AD:BE:EF:12:34"}

	// first pass has no previous timestamp and therefore no lap
	rec := tr.RecordPass(passTime(0), 420, car)
	if rec.HasLap {
		t.Error("first pass has HasLap = true")
	}

	rec = tr.RecordPass(passTime(5), 430, car)
	if !rec.HasLap || rec.Lap != 5*time.Second {
		t.Errorf("second pass lap = %v (has %v), want 5s", rec.Lap, rec.HasLap)
	}

	rec = tr.RecordPass(passTime(12), 410, car)
	if !rec.HasLap || rec.Lap != 7*time.Second {
		t.Errorf("third pass lap = %v, want 7s", rec.Lap)
	}

	if tr.TotalPasses() != 3 {
		t.Errorf("TotalPasses = %d, want 3", tr.TotalPasses())
	}
	if car.Laps != 3 {
		t.Errorf("car.Laps = %d, want 3", car.Laps)
	}
	if len(car.LapTimes) != 2 {
		t.Fatalf("car.LapTimes = %v, want 2 entries", car.LapTimes)
	}
	if car.BestLap != 5*time.Second {
		t.Errorf("BestLap = %v, want 5s", car.BestLap)
	}
	if car.BestSpeed != 430 {
		t.Errorf("BestSpeed = %v, want 430", car.BestSpeed)
	}
}

func TestPassTrackerUnknownCar(t *testing.T) {
	tr := NewPassTracker(10)

	rec := tr.RecordPass(passTime(0), 380, nil)
	if rec.CarUID != UnknownCar {
		t.Errorf("CarUID = %q, want %q", rec.CarUID, UnknownCar)
	}
	if tr.TotalPasses() != 1 {
		t.Errorf("TotalPasses = %d, want 1", tr.TotalPasses())
	}
}

func TestPassTrackerRingEviction(t *testing.T) {
	tr := NewPassTracker(10)

	for i := 0; i < 11; i++ {
		tr.RecordPass(passTime(i), float64(100+i), nil)
	}

	recent := tr.Recent()
	if len(recent) != 10 {
		t.Fatalf("len(Recent) = %d, want 10", len(recent))
	}
	// the very first pass has been evicted
	if recent[0].Speed != 101 {
		t.Errorf("oldest retained speed = %v, want 101", recent[0].Speed)
	}
	if recent[9].Speed != 110 {
		t.Errorf("newest retained speed = %v, want 110", recent[9].Speed)
	}
	if tr.TotalPasses() != 11 {
		t.Errorf("TotalPasses = %d, want 11", tr.TotalPasses())
	}
}

func TestPassTrackerRecentIsCopy(t *testing.T) {
	tr := NewPassTracker(5)
	tr.RecordPass(passTime(0), 100, nil)

	a := tr.Recent()
	a[0].Speed = -1
	if b := tr.Recent(); b[0].Speed != 100 {
		t.Error("Recent() exposes internal storage")
	}
}

func TestPassTrackerDefaultCapacity(t *testing.T) {
	tr := NewPassTracker(0)
	for i := 0; i < DefaultRecentPasses+3; i++ {
		tr.RecordPass(passTime(i), 1, nil)
	}
	if got := len(tr.Recent()); got != DefaultRecentPasses {
		t.Errorf("len(Recent) = %d, want %d", got, DefaultRecentPasses)
	}
}
