package telemetry

import "time"

// DefaultRecentPasses is the capacity of the recent-pass ring.
const DefaultRecentPasses = 10

// UnknownCar is recorded on a pass when no car is on the portal: the speed
// gate still fires, but the NFC reader has nothing to attribute it to.
const UnknownCar = "Unknown"

// PassRecord is one crossing of the track sensor. Immutable once created.
type PassRecord struct {
	Time   time.Time
	CarUID string
	Speed  float64
	// Lap is the time since the previous pass; HasLap is false on the
	// first pass of a session, when no previous timestamp exists.
	Lap    time.Duration
	HasLap bool
}

// PassTracker derives lap durations from consecutive speed samples and keeps
// a bounded FIFO of recent passes. It is independent of the race game, which
// keeps its own lap clock.
type PassTracker struct {
	lastPass    time.Time
	hasLastPass bool
	total       int

	recent   []PassRecord
	capacity int
}

// NewPassTracker creates a tracker whose recent-pass ring holds capacity
// records; non-positive values use DefaultRecentPasses.
func NewPassTracker(capacity int) *PassTracker {
	if capacity <= 0 {
		capacity = DefaultRecentPasses
	}
	return &PassTracker{capacity: capacity}
}

// RecordPass registers a sensor crossing at ts with the given scaled speed,
// attributing it to car when one is on the portal. The car's histories and
// running best values are updated in place; the returned record is also
// pushed onto the recent ring, evicting the oldest entry at capacity.
func (t *PassTracker) RecordPass(ts time.Time, speed float64, car *CarStats) PassRecord {
	rec := PassRecord{Time: ts, CarUID: UnknownCar, Speed: speed}
	if t.hasLastPass {
		rec.Lap = ts.Sub(t.lastPass)
		rec.HasLap = true
	}
	t.lastPass = ts
	t.hasLastPass = true
	t.total++

	if car != nil {
		rec.CarUID = car.UID
		car.Speeds = append(car.Speeds, speed)
		car.Laps++
		if speed > car.BestSpeed {
			car.BestSpeed = speed
		}
		if rec.HasLap {
			car.LapTimes = append(car.LapTimes, rec.Lap)
			if len(car.LapTimes) == 1 || rec.Lap < car.BestLap {
				car.BestLap = rec.Lap
			}
		}
	}

	t.recent = append(t.recent, rec)
	if len(t.recent) > t.capacity {
		t.recent = t.recent[len(t.recent)-t.capacity:]
	}
	return rec
}

// TotalPasses returns the monotonic pass counter.
func (t *PassTracker) TotalPasses() int { return t.total }

// Recent returns a copy of the recent passes, oldest first.
func (t *PassTracker) Recent() []PassRecord {
	return append([]PassRecord(nil), t.recent...)
}
