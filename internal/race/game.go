// Package race implements the lap-race game: a finite-state machine driven
// by decoded speed events and external input tokens, plus the leaderboard of
// finished races.
package race

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trackside-data/portal.report/internal/decode"
	"github.com/trackside-data/portal.report/internal/monitoring"
	"github.com/trackside-data/portal.report/internal/telemetry"
	"github.com/trackside-data/portal.report/internal/timeutil"
)

// State is the game screen currently in control.
type State int

const (
	StateMenu State = iota
	StateCountdown
	StateRacing
	StateFinished
	StateLeaderboard
)

func (s State) String() string {
	switch s {
	case StateMenu:
		return "menu"
	case StateCountdown:
		return "countdown"
	case StateRacing:
		return "racing"
	case StateFinished:
		return "finished"
	case StateLeaderboard:
		return "leaderboard"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Input is an external control token, typically mapped from a key press by
// the input collaborator. Tokens that are not valid for the current state
// are ignored without error.
type Input string

const (
	InputSelect5      Input = "select-5"
	InputSelect10     Input = "select-10"
	InputSelect15     Input = "select-15"
	InputSelect20     Input = "select-20"
	InputSelectCustom Input = "custom"
	InputLeaderboard  Input = "leaderboard"
	InputNextPlayer   Input = "next-player"
	InputRaceAgain    Input = "race-again"
	InputMenu         Input = "menu"
	InputClear        Input = "clear"
)

// ParseInput resolves a token string to an Input.
func ParseInput(token string) (Input, bool) {
	switch in := Input(token); in {
	case InputSelect5, InputSelect10, InputSelect15, InputSelect20,
		InputSelectCustom, InputLeaderboard, InputNextPlayer,
		InputRaceAgain, InputMenu, InputClear:
		return in, true
	}
	return "", false
}

const countdownStart = 3

// DefaultLaps is the lap target used when no configuration supplies one.
const DefaultLaps = 10

// Game is the race-mode controller. The notification path feeds it decoded
// events through HandleEvent; the input collaborator feeds it tokens through
// Apply; the render path polls Snapshot.
type Game struct {
	clock timeutil.Clock
	board *Leaderboard

	mu             sync.Mutex
	state          State
	defaultLaps    int
	targetLaps     int
	currentLap     int
	lapTimes       []time.Duration
	lastPass       time.Time
	hasLastPass    bool
	raceStart      time.Time
	countdownValue int
	countdownTick  time.Duration

	countdownSeq    uint64
	countdownCancel context.CancelFunc

	currentCarUID string
	currentSerial string
	lastSpeed     float64

	playerNum int
	player    string
}

// NewGame creates a game in the menu state. A nil clock gets the real one.
func NewGame(clock timeutil.Clock, board *Leaderboard) *Game {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if board == nil {
		board = NewLeaderboard()
	}
	return &Game{
		clock:         clock,
		board:         board,
		state:         StateMenu,
		defaultLaps:   DefaultLaps,
		targetLaps:    DefaultLaps,
		countdownTick: time.Second,
		playerNum:     1,
		player:        "Player 1",
	}
}

// SetDefaultLaps overrides the lap target used by the custom race selection.
// Values below 1 are ignored.
func (g *Game) SetDefaultLaps(n int) {
	if n < 1 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.defaultLaps = n
}

// Leaderboard returns the board this game records results to.
func (g *Game) Leaderboard() *Leaderboard { return g.board }

// State returns the current state.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// transition is one edge of the state machine: the state it leads to and the
// side effect applied while holding the lock.
type transition struct {
	next  State
	apply func(*Game)
}

func selectLaps(n int) transition {
	return transition{next: StateCountdown, apply: func(g *Game) {
		g.targetLaps = n
		g.beginCountdownLocked()
	}}
}

// transitions is the full (state, input) -> (next state, side effect) table.
// Pairs not present here are ignored: no state change, no error.
var transitions = map[State]map[Input]transition{
	StateMenu: {
		InputSelect5:      selectLaps(5),
		InputSelect10:     selectLaps(10),
		InputSelect15:     selectLaps(15),
		InputSelect20:     selectLaps(20),
		InputSelectCustom: {next: StateCountdown, apply: func(g *Game) {
			g.targetLaps = g.defaultLaps
			g.beginCountdownLocked()
		}},
		InputLeaderboard:  {next: StateLeaderboard},
	},
	StateFinished: {
		InputNextPlayer: {next: StateMenu, apply: func(g *Game) {
			g.playerNum++
			g.player = fmt.Sprintf("Player %d", g.playerNum)
		}},
		InputRaceAgain: {next: StateCountdown, apply: func(g *Game) {
			g.beginCountdownLocked()
		}},
		InputLeaderboard: {next: StateLeaderboard},
		InputMenu:        {next: StateMenu},
	},
	StateLeaderboard: {
		InputMenu: {next: StateMenu},
		InputClear: {next: StateLeaderboard, apply: func(g *Game) {
			g.board.Clear()
		}},
	},
}

// Apply feeds one input token to the state machine. It reports whether the
// token caused a transition; unrecognized (state, input) pairs are ignored.
func (g *Game) Apply(in Input) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := transitions[g.state][in]
	if !ok {
		return false
	}
	g.state = t.next
	if t.apply != nil {
		t.apply(g)
	}
	return true
}

// SelectLaps starts a race with a custom lap target. Valid only from the
// menu; targets below 1 are ignored.
func (g *Game) SelectLaps(n int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateMenu || n < 1 {
		return false
	}
	g.state = StateCountdown
	g.targetLaps = n
	g.beginCountdownLocked()
	return true
}

// beginCountdownLocked cancels any outstanding countdown and starts a fresh
// one. Two countdowns must never race to call startRace, so each run carries
// a sequence number checked before every mutation.
func (g *Game) beginCountdownLocked() {
	if g.countdownCancel != nil {
		g.countdownCancel()
	}
	g.countdownSeq++
	seq := g.countdownSeq

	ctx, cancel := context.WithCancel(context.Background())
	g.countdownCancel = cancel
	g.state = StateCountdown
	g.countdownValue = countdownStart

	go g.runCountdown(ctx, seq)
}

// runCountdown emits ticks 3,2,1,0 at the configured spacing and then starts
// the race, unless superseded or cancelled.
func (g *Game) runCountdown(ctx context.Context, seq uint64) {
	for i := countdownStart; i >= 0; i-- {
		g.mu.Lock()
		if seq != g.countdownSeq || g.state != StateCountdown {
			g.mu.Unlock()
			return
		}
		g.countdownValue = i
		tick := g.countdownTick
		g.mu.Unlock()

		timer := g.clock.NewTimer(tick)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C():
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.countdownSeq || g.state != StateCountdown {
		return
	}
	g.startRaceLocked()
}

// startRaceLocked resets the session and enters the racing state.
func (g *Game) startRaceLocked() {
	g.currentLap = 0
	g.lapTimes = nil
	g.hasLastPass = false
	g.raceStart = g.clock.Now()
	g.state = StateRacing
}

// HandleEvent consumes one decoded event from the notification path. Speed
// samples are lap boundaries while racing; outside the racing state they
// update only the displayed speed.
func (g *Game) HandleEvent(ts time.Time, ev decode.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch ev := ev.(type) {
	case decode.CarDetected:
		g.currentCarUID = ev.UIDText

	case decode.CarRemoved:
		g.currentCarUID = ""

	case decode.SerialNumber:
		g.currentSerial = ev.Text

	case decode.SpeedSample:
		g.lastSpeed = ev.Scaled
		if g.state != StateRacing {
			return
		}
		// The first pass after the start arms the lap clock; each pass
		// after that closes a lap.
		if g.hasLastPass {
			g.lapTimes = append(g.lapTimes, ts.Sub(g.lastPass))
			g.currentLap++
			if g.currentLap >= g.targetLaps {
				g.finishRaceLocked()
			}
		}
		g.lastPass = ts
		g.hasLastPass = true
	}
}

// finishRaceLocked finalizes the session into an immutable Result, records
// it on the leaderboard, and enters the finished state.
func (g *Game) finishRaceLocked() {
	carUID := g.currentCarUID
	if carUID == "" {
		carUID = telemetry.UnknownCar
	}
	result, err := NewResult(g.player, carUID, g.lapTimes, g.clock.Now())
	if err != nil {
		// unreachable: finishing requires currentLap == targetLaps >= 1
		monitoring.Logf("race: finalize failed: %v", err)
		return
	}
	g.board.Add(result)
	g.state = StateFinished
}

// Stop cancels any pending countdown. Called on shutdown so no timer fires
// into a torn-down session.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.countdownCancel != nil {
		g.countdownCancel()
		g.countdownCancel = nil
	}
	g.countdownSeq++
}

// Snapshot is a point-in-time copy of the game for the render path.
type Snapshot struct {
	State          State
	Player         string
	PlayerNum      int
	TargetLaps     int
	CurrentLap     int
	CountdownValue int
	LastSpeed      float64
	CarUID         string
	CarSerial      string
	RaceStart      time.Time

	LapTimes  []time.Duration
	LastLap   time.Duration
	BestLap   time.Duration
	TotalTime time.Duration
	AvgLap    time.Duration
}

// Snapshot copies the game state under the lock.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := Snapshot{
		State:          g.state,
		Player:         g.player,
		PlayerNum:      g.playerNum,
		TargetLaps:     g.targetLaps,
		CurrentLap:     g.currentLap,
		CountdownValue: g.countdownValue,
		LastSpeed:      g.lastSpeed,
		CarUID:         g.currentCarUID,
		CarSerial:      g.currentSerial,
		RaceStart:      g.raceStart,
		LapTimes:       append([]time.Duration(nil), g.lapTimes...),
	}
	if len(snap.LapTimes) > 0 {
		snap.LastLap = snap.LapTimes[len(snap.LapTimes)-1]
		snap.BestLap = snap.LapTimes[0]
		for _, lap := range snap.LapTimes {
			snap.TotalTime += lap
			if lap < snap.BestLap {
				snap.BestLap = lap
			}
		}
		snap.AvgLap = snap.TotalTime / time.Duration(len(snap.LapTimes))
	}
	return snap
}
