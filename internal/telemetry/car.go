// Package telemetry maintains the continuous per-car statistics derived from
// the decoded portal event stream: which cars have been seen, their speed and
// lap-time histories, and the recent pass log.
//
// All mutation happens on the single notification-handling goroutine through
// Engine.Handle; readers take snapshots rather than holding live references.
package telemetry

import "time"

// CarStats aggregates everything observed for one car. Identity is the
// canonical colon-hex NFC UID; lookups use exact string equality.
type CarStats struct {
	UID      string
	Serial   string
	DeviceID string

	Laps      int
	Speeds    []float64
	LapTimes  []time.Duration
	BestSpeed float64
	// BestLap is undefined until the first recorded lap; check HasLap.
	BestLap  time.Duration
	LastSeen time.Time
}

// HasLap reports whether at least one lap time has been recorded.
func (c *CarStats) HasLap() bool { return len(c.LapTimes) > 0 }

// AvgSpeed returns the mean of all recorded speeds, or 0 with no samples.
func (c *CarStats) AvgSpeed() float64 {
	if len(c.Speeds) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.Speeds {
		sum += s
	}
	return sum / float64(len(c.Speeds))
}

// AvgLap returns the mean lap time, or 0 with no recorded laps.
func (c *CarStats) AvgLap() time.Duration {
	if len(c.LapTimes) == 0 {
		return 0
	}
	var sum time.Duration
	for _, lt := range c.LapTimes {
		sum += lt
	}
	return sum / time.Duration(len(c.LapTimes))
}

// clone copies the stats including history slices.
func (c *CarStats) clone() CarStats {
	out := *c
	out.Speeds = append([]float64(nil), c.Speeds...)
	out.LapTimes = append([]time.Duration(nil), c.LapTimes...)
	return out
}

// Registry owns all CarStats for the session, keyed by UID. Cars are never
// deleted; they persist until the process exits. The registry itself is not
// synchronized: the engine is its single writer and guards snapshot reads.
type Registry struct {
	cars  map[string]*CarStats
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cars: make(map[string]*CarStats)}
}

// GetOrCreate returns the stats record for uid, creating a zero-valued one
// on first sight.
func (r *Registry) GetOrCreate(uid string) *CarStats {
	if c, ok := r.cars[uid]; ok {
		return c
	}
	c := &CarStats{UID: uid}
	r.cars[uid] = c
	r.order = append(r.order, uid)
	return c
}

// Len returns the number of distinct cars seen.
func (r *Registry) Len() int { return len(r.cars) }

// Snapshot returns deep copies of all cars in first-seen order.
func (r *Registry) Snapshot() []CarStats {
	out := make([]CarStats, 0, len(r.order))
	for _, uid := range r.order {
		out = append(out, r.cars[uid].clone())
	}
	return out
}
