package race

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoLaps is returned when finalizing a race with an empty lap list.
var ErrNoLaps = errors.New("race has no recorded laps")

// Result is the immutable record of one finished race.
type Result struct {
	ID       string
	Player   string
	CarUID   string
	LapCount int
	LapTimes []time.Duration

	TotalTime time.Duration
	// BestLapNum/WorstLapNum are 1-based lap indices; on duplicate values
	// the first occurrence wins.
	BestLap     time.Duration
	BestLapNum  int
	WorstLap    time.Duration
	WorstLapNum int
	AvgLap      time.Duration

	Recorded time.Time
}

// NewResult computes the aggregates for a finished race. laps must be
// non-empty; the slice is copied, so the caller may reuse it.
func NewResult(player, carUID string, laps []time.Duration, recorded time.Time) (Result, error) {
	if len(laps) == 0 {
		return Result{}, ErrNoLaps
	}

	r := Result{
		ID:       uuid.NewString(),
		Player:   player,
		CarUID:   carUID,
		LapCount: len(laps),
		LapTimes: append([]time.Duration(nil), laps...),
		Recorded: recorded,
	}

	r.BestLap = laps[0]
	r.BestLapNum = 1
	r.WorstLap = laps[0]
	r.WorstLapNum = 1
	for i, lap := range laps {
		r.TotalTime += lap
		if lap < r.BestLap {
			r.BestLap = lap
			r.BestLapNum = i + 1
		}
		if lap > r.WorstLap {
			r.WorstLap = lap
			r.WorstLapNum = i + 1
		}
	}
	r.AvgLap = r.TotalTime / time.Duration(len(laps))
	return r, nil
}
