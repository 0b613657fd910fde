// Package ratelimit enforces the per-user search cooldown.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// DefaultWindow is the cooldown between two successful searches of one user.
const DefaultWindow = 24 * time.Hour

// Limiter tracks the last successful search of every user. Only successful
// searches are recorded, so a failed turn never costs the user a slot.
type Limiter struct {
	window time.Duration

	mu   sync.Mutex
	last map[int64]time.Time
}

// New returns a limiter with the given window. A non-positive window falls
// back to DefaultWindow.
func New(window time.Duration) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Limiter{
		window: window,
		last:   make(map[int64]time.Time),
	}
}

// CanSearch reports whether the user may search at now. When blocked, the
// remaining wait is returned.
func (l *Limiter) CanSearch(userID int64, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	last, ok := l.last[userID]
	l.mu.Unlock()

	if !ok {
		return true, 0
	}

	elapsed := now.Sub(last)
	if elapsed >= l.window {
		return true, 0
	}

	return false, l.window - elapsed
}

// RecordSearch overwrites the user's record with now.
func (l *Limiter) RecordSearch(userID int64, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last[userID] = now
}

// Window returns the configured cooldown.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Tracked returns how many users currently hold a record.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.last)
}

// FormatRemaining renders a wait as whole hours and minutes, e.g.
// "4 год. 0 хв.". Hours are omitted when zero.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)

	if hours > 0 {
		return fmt.Sprintf("%d год. %d хв.", hours, minutes)
	}

	return fmt.Sprintf("%d хв.", minutes)
}
