// Command portal.report connects a toy race-track portal's notification
// stream to live telemetry: car identity, speed samples, lap timing, and the
// lap-race game, all exposed over an HTTP JSON read surface.
//
// The wireless transport itself is an external collaborator supplied through
// the portal.Source interface; this binary ships a capture replay source and
// a synthetic demo source.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/trackside-data/portal.report/internal/api"
	"github.com/trackside-data/portal.report/internal/config"
	"github.com/trackside-data/portal.report/internal/decode"
	"github.com/trackside-data/portal.report/internal/eventlog"
	"github.com/trackside-data/portal.report/internal/portal"
	"github.com/trackside-data/portal.report/internal/race"
	"github.com/trackside-data/portal.report/internal/telemetry"
	"github.com/trackside-data/portal.report/internal/timeutil"
)

var (
	replay = flag.String("replay", "", "Replay a capture log instead of a live portal")
	pace   = flag.Bool("pace", true, "Reproduce recorded timing when replaying")
	demo   = flag.Bool("demo", false, "Run against a synthetic demo portal")
	device = flag.String("device", "", "BLE address of the portal (empty scans for one)")
	listen = flag.String("listen", "", "Listen address (overrides PORTAL_LISTEN)")
)

// openSource selects the notification source for this run.
func openSource(clock timeutil.Clock) (portal.Source, error) {
	switch {
	case *replay != "":
		return eventlog.NewReplaySource(*replay, clock.Now(), clock, *pace)
	case *demo:
		return portal.NewDemoSource(clock), nil
	default:
		// Discovery, pairing, and GATT subscription live in an external
		// transport; until one is linked, -replay and -demo are the only
		// ways to feed the pipeline.
		if *device != "" {
			return nil, errors.New("no live transport is linked for -device; use -replay or -demo")
		}
		return nil, errors.New("no source selected; use -replay or -demo")
	}
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	clock := timeutil.RealClock{}

	src, err := openSource(clock)
	if err != nil {
		log.Fatalf("failed to open portal source: %v", err)
	}

	mux := portal.NewMux(src)
	defer mux.Close()

	dec := &decode.Decoder{SpeedScale: cfg.SpeedScale}
	engine := telemetry.NewEngine(dec, clock, cfg.PassHistory)
	game := race.NewGame(clock, race.NewLeaderboard())
	game.SetDefaultLaps(cfg.DefaultLaps)
	defer game.Stop()

	capture, err := eventlog.New(cfg.LogDir, clock.Now())
	if err != nil {
		log.Fatalf("failed to create capture log: %v", err)
	}
	defer capture.Close()
	log.Printf("capturing events to %s", capture.Path())

	engine.AddListener(func(n portal.Notification, _ decode.Event) error {
		return capture.Write(n)
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the notification source
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor portal: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// subscribe to the notification stream and feed the telemetry engine
	// and the race game from a single goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := mux.Subscribe()
		defer mux.Unsubscribe(id)
		for {
			select {
			case n, ok := <-c:
				if !ok {
					return
				}
				ev := engine.Handle(n)
				if ev != nil {
					game.HandleEvent(n.Time, ev)
				}
			case <-ctx.Done():
				log.Printf("subscribe routine terminated")
				return
			}
		}
	}()

	// periodic status poll standing in for a rendering collaborator; reads
	// snapshots only, never live state
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := clock.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		last := ""
		for {
			select {
			case <-ticker.C():
				snap := engine.Snapshot()
				if snap.Status != last {
					log.Printf("status: %s (passes=%d cars=%d race=%s)",
						snap.Status, snap.TotalPasses, snap.CarsSeen, game.State())
					last = snap.Status
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		root := http.NewServeMux()
		apiMux := api.NewServer(engine, game).ServeMux()
		root.Handle("/api/", http.StripPrefix("/api", apiMux))

		server := &http.Server{
			Addr:    cfg.Listen,
			Handler: root,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")
}
