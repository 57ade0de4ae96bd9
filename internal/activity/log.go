package activity

import (
	"sync"
	"time"
)

// Entry is one recorded vault event.
type Entry struct {
	At      time.Time `json:"at"`
	Summary string    `json:"summary"`
}

// Log is a bounded in-memory activity feed. It implements vault.Notifier
// and keeps the most recent entries, oldest dropped first.
type Log struct {
	mu      sync.Mutex
	now     func() time.Time
	max     int
	entries []Entry
}

// NewLog creates a log that retains at most max entries.
func NewLog(max int) *Log {
	if max <= 0 {
		max = 1
	}
	return &Log{now: time.Now, max: max}
}

// Notify records a summary with the current time.
func (l *Log) Notify(summary string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{At: l.now(), Summary: summary})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything retained.
func (l *Log) Recent(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(l.entries) - 1; i >= len(l.entries)-limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}
