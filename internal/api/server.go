// Package api exposes the telemetry and race state as a JSON read surface
// for rendering collaborators, plus the race input endpoint used by input
// collaborators. No formatting or presentation logic lives here: handlers
// serialize snapshots as plain data.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/trackside-data/portal.report/internal/monitoring"
	"github.com/trackside-data/portal.report/internal/race"
	"github.com/trackside-data/portal.report/internal/telemetry"
	"github.com/trackside-data/portal.report/internal/units"
)

// Server serves the read surface for one portal session.
type Server struct {
	engine *telemetry.Engine
	game   *race.Game
}

// NewServer creates a server over the given engine and game.
func NewServer(engine *telemetry.Engine, game *race.Game) *Server {
	return &Server{engine: engine, game: game}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/session", s.getSession)
	mux.HandleFunc("/cars", s.getCars)
	mux.HandleFunc("/passes", s.getPasses)
	mux.HandleFunc("/race", s.getRace)
	mux.HandleFunc("/race/input", s.postRaceInput)
	mux.HandleFunc("/leaderboard", s.getLeaderboard)
	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("api: failed to encode response: %v", err)
	}
}

type sessionJSON struct {
	SessionStart  time.Time      `json:"session_start"`
	TotalPasses   int            `json:"total_passes"`
	CarsSeen      int            `json:"cars_seen"`
	CarPresent    bool           `json:"car_present"`
	LastSpeed     float64        `json:"last_speed"`
	Status        string         `json:"status"`
	ChannelCounts map[string]int `json:"channel_counts"`
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.engine.Snapshot()
	writeJSON(w, sessionJSON{
		SessionStart:  snap.SessionStart,
		TotalPasses:   snap.TotalPasses,
		CarsSeen:      snap.CarsSeen,
		CarPresent:    snap.CarPresent,
		LastSpeed:     snap.LastSpeed,
		Status:        snap.Status,
		ChannelCounts: snap.ChannelCounts,
	})
}

type carJSON struct {
	UID       string    `json:"uid"`
	Serial    string    `json:"serial,omitempty"`
	DeviceID  string    `json:"device_id,omitempty"`
	Laps      int       `json:"laps"`
	BestSpeed float64   `json:"best_speed"`
	AvgSpeed  float64   `json:"avg_speed"`
	BestLap   *float64  `json:"best_lap_seconds,omitempty"`
	AvgLap    *float64  `json:"avg_lap_seconds,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
}

func carToJSON(c telemetry.CarStats) carJSON {
	out := carJSON{
		UID:       c.UID,
		Serial:    c.Serial,
		DeviceID:  c.DeviceID,
		Laps:      c.Laps,
		BestSpeed: c.BestSpeed,
		AvgSpeed:  c.AvgSpeed(),
		LastSeen:  c.LastSeen,
	}
	if c.HasLap() {
		best := units.Seconds(c.BestLap)
		avg := units.Seconds(c.AvgLap())
		out.BestLap = &best
		out.AvgLap = &avg
	}
	return out
}

func (s *Server) getCars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.engine.Snapshot()
	cars := make([]carJSON, 0, len(snap.Cars))
	for _, c := range snap.Cars {
		cars = append(cars, carToJSON(c))
	}
	writeJSON(w, cars)
}

type passJSON struct {
	Time  time.Time `json:"time"`
	Car   string    `json:"car"`
	Speed float64   `json:"speed"`
	Lap   *float64  `json:"lap_seconds,omitempty"`
}

func (s *Server) getPasses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.engine.Snapshot()
	passes := make([]passJSON, 0, len(snap.RecentPasses))
	for _, p := range snap.RecentPasses {
		pj := passJSON{Time: p.Time, Car: p.CarUID, Speed: p.Speed}
		if p.HasLap {
			lap := units.Seconds(p.Lap)
			pj.Lap = &lap
		}
		passes = append(passes, pj)
	}
	writeJSON(w, passes)
}

type raceJSON struct {
	State      string    `json:"state"`
	Player     string    `json:"player"`
	TargetLaps int       `json:"target_laps"`
	CurrentLap int       `json:"current_lap"`
	Countdown  int       `json:"countdown"`
	LastSpeed  float64   `json:"last_speed"`
	CarUID     string    `json:"car_uid,omitempty"`
	CarSerial  string    `json:"car_serial,omitempty"`
	LapTimes   []float64 `json:"lap_times_seconds"`
	LastLap    float64   `json:"last_lap_seconds"`
	BestLap    float64   `json:"best_lap_seconds"`
	TotalTime  float64   `json:"total_seconds"`
	AvgLap     float64   `json:"avg_lap_seconds"`
}

func (s *Server) getRace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.game.Snapshot()
	laps := make([]float64, 0, len(snap.LapTimes))
	for _, lap := range snap.LapTimes {
		laps = append(laps, units.Seconds(lap))
	}
	writeJSON(w, raceJSON{
		State:      snap.State.String(),
		Player:     snap.Player,
		TargetLaps: snap.TargetLaps,
		CurrentLap: snap.CurrentLap,
		Countdown:  snap.CountdownValue,
		LastSpeed:  snap.LastSpeed,
		CarUID:     snap.CarUID,
		CarSerial:  snap.CarSerial,
		LapTimes:   laps,
		LastLap:    units.Seconds(snap.LastLap),
		BestLap:    units.Seconds(snap.BestLap),
		TotalTime:  units.Seconds(snap.TotalTime),
		AvgLap:     units.Seconds(snap.AvgLap),
	})
}

type inputResponse struct {
	Applied bool   `json:"applied"`
	State   string `json:"state"`
}

// postRaceInput feeds one input token to the game. Tokens invalid for the
// current state are not an error; the response just reports applied=false.
func (s *Server) postRaceInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := r.FormValue("input")
	in, ok := race.ParseInput(token)
	if !ok {
		http.Error(w, "Unknown input token", http.StatusBadRequest)
		return
	}

	var applied bool
	if in == race.InputSelectCustom {
		if lapsArg := r.FormValue("laps"); lapsArg != "" {
			laps, err := strconv.Atoi(lapsArg)
			if err != nil || laps < 1 {
				http.Error(w, "Invalid lap count", http.StatusBadRequest)
				return
			}
			applied = s.game.SelectLaps(laps)
		} else {
			applied = s.game.Apply(in)
		}
	} else {
		applied = s.game.Apply(in)
	}

	writeJSON(w, inputResponse{Applied: applied, State: s.game.State().String()})
}

type resultJSON struct {
	Rank        int       `json:"rank"`
	Player      string    `json:"player"`
	CarUID      string    `json:"car_uid"`
	Laps        int       `json:"laps"`
	TotalTime   float64   `json:"total_seconds"`
	BestLap     float64   `json:"best_lap_seconds"`
	BestLapNum  int       `json:"best_lap_num"`
	WorstLap    float64   `json:"worst_lap_seconds"`
	WorstLapNum int       `json:"worst_lap_num"`
	AvgLap      float64   `json:"avg_lap_seconds"`
	Recorded    time.Time `json:"recorded"`
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ranked := s.game.Leaderboard().Rank()
	if topArg := r.URL.Query().Get("top"); topArg != "" {
		top, err := strconv.Atoi(topArg)
		if err != nil || top < 0 {
			http.Error(w, "Invalid top value", http.StatusBadRequest)
			return
		}
		if top < len(ranked) {
			ranked = ranked[:top]
		}
	}

	out := make([]resultJSON, 0, len(ranked))
	for i, res := range ranked {
		out = append(out, resultJSON{
			Rank:        i + 1,
			Player:      res.Player,
			CarUID:      res.CarUID,
			Laps:        res.LapCount,
			TotalTime:   units.Seconds(res.TotalTime),
			BestLap:     units.Seconds(res.BestLap),
			BestLapNum:  res.BestLapNum,
			WorstLap:    units.Seconds(res.WorstLap),
			WorstLapNum: res.WorstLapNum,
			AvgLap:      units.Seconds(res.AvgLap),
			Recorded:    res.Recorded,
		})
	}
	writeJSON(w, out)
}
