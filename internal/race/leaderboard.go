package race

import (
	"sort"
	"sync"
)

// Leaderboard collects finished race results, ranked ascending by total
// time. It is written from the notification path and read from the input and
// render paths, so it carries its own lock.
type Leaderboard struct {
	mu      sync.Mutex
	results []Result
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{}
}

// Add appends a result. Insertion order is preserved for tie-breaking.
func (l *Leaderboard) Add(r Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
}

// Rank returns all results sorted ascending by total time. The sort is
// stable: equal totals keep their insertion order. The returned slice is a
// copy.
func (l *Leaderboard) Rank() []Result {
	l.mu.Lock()
	out := append([]Result(nil), l.results...)
	l.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalTime < out[j].TotalTime
	})
	return out
}

// Top returns the first n ranked results. A negative n returns none.
func (l *Leaderboard) Top(n int) []Result {
	if n < 0 {
		n = 0
	}
	ranked := l.Rank()
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Len returns the number of stored results.
func (l *Leaderboard) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}

// Clear empties the leaderboard.
func (l *Leaderboard) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = nil
}
