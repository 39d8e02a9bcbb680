package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trackside-data/portal.report/internal/decode"
	"github.com/trackside-data/portal.report/internal/monitoring"
	"github.com/trackside-data/portal.report/internal/portal"
	"github.com/trackside-data/portal.report/internal/timeutil"
)

// Listener observes every notification together with its decoded event. A
// listener that returns an error is isolated: the failure is logged and
// counted, and dispatch continues to the remaining listeners.
type Listener func(portal.Notification, decode.Event) error

// Engine is the single writer for all telemetry state. It decodes each
// incoming notification, updates the car registry and pass tracker, tracks
// the car currently sitting on the portal, and fans the decoded event out to
// registered listeners.
type Engine struct {
	dec   *decode.Decoder
	clock timeutil.Clock

	mu            sync.Mutex
	registry      *Registry
	passes        *PassTracker
	current       *CarStats
	carPresent    bool
	lastSpeed     float64
	status        string
	sessionStart  time.Time
	channelCounts map[portal.Channel]int

	listenerMu    sync.Mutex
	listeners     map[string]Listener
	listenerOrder []string
	listenerErrs  int
}

// NewEngine creates an engine using the given decoder and recent-pass
// capacity. A nil decoder gets the default; a nil clock gets the real one.
func NewEngine(dec *decode.Decoder, clock timeutil.Clock, passCapacity int) *Engine {
	if dec == nil {
		dec = decode.New()
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Engine{
		dec:           dec,
		clock:         clock,
		registry:      NewRegistry(),
		passes:        NewPassTracker(passCapacity),
		status:        "Waiting for portal...",
		sessionStart:  clock.Now(),
		channelCounts: make(map[portal.Channel]int),
		listeners:     make(map[string]Listener),
	}
}

// AddListener registers a listener and returns its id for removal.
func (e *Engine) AddListener(fn Listener) string {
	id := uuid.NewString()
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	e.listeners[id] = fn
	e.listenerOrder = append(e.listenerOrder, id)
	return id
}

// RemoveListener unregisters a listener.
func (e *Engine) RemoveListener(id string) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	delete(e.listeners, id)
	for i, lid := range e.listenerOrder {
		if lid == id {
			e.listenerOrder = append(e.listenerOrder[:i], e.listenerOrder[i+1:]...)
			break
		}
	}
}

// Handle decodes one notification, applies it to the telemetry state, and
// dispatches it to all listeners. It returns the decoded event (nil for
// no-update payloads). Handle must only be called from a single goroutine.
func (e *Engine) Handle(n portal.Notification) decode.Event {
	ev := e.dec.Decode(n)

	e.mu.Lock()
	e.channelCounts[n.Channel]++
	e.apply(n.Time, ev)
	e.mu.Unlock()

	e.dispatch(n, ev)
	return ev
}

// apply mutates telemetry state for one event. Caller holds e.mu.
func (e *Engine) apply(ts time.Time, ev decode.Event) {
	switch ev := ev.(type) {
	case decode.CarDetected:
		e.current = e.registry.GetOrCreate(ev.UIDText)
		e.current.LastSeen = ts
		e.status = fmt.Sprintf("Car detected: %s", ev.UIDText)

	case decode.CarRemoved:
		e.current = nil
		e.status = "No car on portal"

	case decode.SerialNumber:
		if e.current != nil {
			e.current.Serial = ev.Text
		}

	case decode.NdefRecord:
		if e.current != nil && ev.DeviceID != "" {
			e.current.DeviceID = ev.DeviceID
		}

	case decode.SpeedSample:
		e.lastSpeed = ev.Scaled
		e.passes.RecordPass(ts, ev.Scaled, e.current)
		e.status = fmt.Sprintf("Pass #%d: %.1f mph", e.passes.TotalPasses(), ev.Scaled)

	case decode.ControlStatus:
		e.carPresent = ev.CarPresent
	}
}

// dispatch fans the event out to listeners outside the state lock so that a
// listener may safely take a snapshot.
func (e *Engine) dispatch(n portal.Notification, ev decode.Event) {
	e.listenerMu.Lock()
	fns := make([]Listener, 0, len(e.listenerOrder))
	for _, id := range e.listenerOrder {
		if fn, ok := e.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	e.listenerMu.Unlock()

	for _, fn := range fns {
		if err := fn(n, ev); err != nil {
			e.listenerMu.Lock()
			e.listenerErrs++
			e.listenerMu.Unlock()
			monitoring.Logf("telemetry: listener error on %s: %v", n.Channel.Name(), err)
		}
	}
}

// ListenerErrors returns the number of listener failures recorded so far.
func (e *Engine) ListenerErrors() int {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	return e.listenerErrs
}

// Snapshot is a point-in-time copy of all telemetry state, safe to hold
// across renders.
type Snapshot struct {
	SessionStart  time.Time
	TotalPasses   int
	CarsSeen      int
	CarPresent    bool
	CurrentCar    *CarStats
	LastSpeed     float64
	Status        string
	Cars          []CarStats
	RecentPasses  []PassRecord
	ChannelCounts map[string]int
}

// Snapshot copies the current state under the lock. The polling render path
// reads this instead of live aggregates so multi-field reads cannot tear.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		SessionStart:  e.sessionStart,
		TotalPasses:   e.passes.TotalPasses(),
		CarsSeen:      e.registry.Len(),
		CarPresent:    e.carPresent,
		LastSpeed:     e.lastSpeed,
		Status:        e.status,
		Cars:          e.registry.Snapshot(),
		RecentPasses:  e.passes.Recent(),
		ChannelCounts: make(map[string]int, len(e.channelCounts)),
	}
	if e.current != nil {
		c := e.current.clone()
		snap.CurrentCar = &c
	}
	for ch, count := range e.channelCounts {
		snap.ChannelCounts[ch.Name()] += count
	}
	return snap
}
