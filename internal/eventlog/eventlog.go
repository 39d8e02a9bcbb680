// Package eventlog persists the session capture log: one line per
// notification in the format
//
//	<HH:MM:SS.mmm> | <channel-name> | <lowercase-hex-payload>
//
// The format is a compatibility contract shared with older capture tooling
// and must stay bit-exact. The same files can be read back as a replay
// Source for offline runs and tests.
package eventlog

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/trackside-data/portal.report/internal/portal"
)

// timeLayout formats the per-line timestamp.
const timeLayout = "15:04:05.000"

// Filename returns the capture file name for a session started at t.
func Filename(start time.Time) string {
	return fmt.Sprintf("events_%s.log", start.Format("20060102_150405"))
}

// FormatLine renders one notification as a capture log line, without the
// trailing newline.
func FormatLine(n portal.Notification) string {
	return n.String()
}

// Writer appends capture lines to a session file.
type Writer struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// New creates the capture file for a session started at start, inside dir.
func New(dir string, start time.Time) (*Writer, error) {
	path := filepath.Join(dir, Filename(start))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture log: %w", err)
	}
	return &Writer{f: f, path: path}, nil
}

// Path returns the capture file path.
func (w *Writer) Path() string { return w.path }

// Write appends one notification line.
func (w *Writer) Write(n portal.Notification) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return fmt.Errorf("capture log %s is closed", w.path)
	}
	if _, err := fmt.Fprintln(w.f, FormatLine(n)); err != nil {
		return fmt.Errorf("failed to append capture line: %w", err)
	}
	return nil
}

// Close flushes and closes the capture file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

// ParseLine parses one capture log line back into a notification. The date
// portion of the timestamp is taken from day, since lines carry only the
// time of day.
func ParseLine(line string, day time.Time) (portal.Notification, error) {
	var n portal.Notification

	stamp, rest, ok := strings.Cut(line, " | ")
	if !ok {
		return n, fmt.Errorf("malformed capture line %q", line)
	}
	name, payload, ok := strings.Cut(rest, " | ")
	if !ok {
		return n, fmt.Errorf("malformed capture line %q", line)
	}

	t, err := time.Parse(timeLayout, stamp)
	if err != nil {
		return n, fmt.Errorf("bad capture timestamp %q: %w", stamp, err)
	}
	n.Time = time.Date(day.Year(), day.Month(), day.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), day.Location())

	ch, ok := portal.ChannelByName(name)
	if !ok {
		return n, fmt.Errorf("unknown channel name %q", name)
	}
	n.Channel = ch

	if payload != "" {
		b, err := hex.DecodeString(payload)
		if err != nil {
			return n, fmt.Errorf("bad capture payload %q: %w", payload, err)
		}
		n.Payload = b
	}
	return n, nil
}
