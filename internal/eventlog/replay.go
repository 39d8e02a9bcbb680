package eventlog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/trackside-data/portal.report/internal/monitoring"
	"github.com/trackside-data/portal.report/internal/portal"
	"github.com/trackside-data/portal.report/internal/timeutil"
)

// ReplaySource plays a capture log back as a notification source. With
// pacing enabled it sleeps the recorded inter-line gaps, reproducing the
// original session timing; without it the whole file drains immediately.
type ReplaySource struct {
	clock timeutil.Clock
	pace  bool

	mu      sync.Mutex
	entries []portal.Notification
	idx     int
	closed  bool
}

// NewReplaySource loads a capture file. Lines that fail to parse (unknown
// channel names, damaged hex) are logged and skipped rather than aborting
// the replay. Timestamps are rebased onto day.
func NewReplaySource(path string, day time.Time, clock timeutil.Clock, pace bool) (*ReplaySource, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture log: %w", err)
	}
	defer f.Close()

	var entries []portal.Notification
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimRight(scan.Text(), "\r")
		if line == "" {
			continue
		}
		n, err := ParseLine(line, day)
		if err != nil {
			monitoring.Logf("eventlog: skipping replay line: %v", err)
			continue
		}
		entries = append(entries, n)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read capture log: %w", err)
	}

	return &ReplaySource{clock: clock, pace: pace, entries: entries}, nil
}

// Next returns the next recorded notification, or io.EOF when the capture is
// exhausted.
func (s *ReplaySource) Next(ctx context.Context) (portal.Notification, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return portal.Notification{}, io.EOF
	}
	if s.idx >= len(s.entries) {
		s.mu.Unlock()
		return portal.Notification{}, io.EOF
	}
	n := s.entries[s.idx]
	var gap time.Duration
	if s.pace && s.idx > 0 {
		gap = n.Time.Sub(s.entries[s.idx-1].Time)
	}
	s.idx++
	s.mu.Unlock()

	if gap > 0 {
		select {
		case <-ctx.Done():
			return portal.Notification{}, ctx.Err()
		case <-s.clock.After(gap):
		}
	}
	return n, nil
}

// Close stops the replay; subsequent Next calls return io.EOF.
func (s *ReplaySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of replayable entries loaded.
func (s *ReplaySource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
