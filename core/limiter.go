package core

import "sync"

// RoundTripLimiter bounds how many completion round trips one conversation
// turn may make. Exhausting the bound truncates the turn rather than failing
// it, so the limiter answers with a verdict instead of an error.
type RoundTripLimiter struct {
	mu    sync.Mutex
	max   int
	trips int
}

// NewRoundTripLimiter creates a limiter allowing max round trips per turn.
// max <= 0 means unbounded.
func NewRoundTripLimiter(max int) *RoundTripLimiter {
	return &RoundTripLimiter{max: max}
}

// Begin claims the next round trip. It returns the 1-based trip number and
// whether the trip may proceed; false means the ceiling is spent and the
// loop must stop with whatever answer it has.
func (l *RoundTripLimiter) Begin() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.trips >= l.max {
		return l.trips, false
	}

	l.trips++

	return l.trips, true
}

// Trips returns how many round trips have been claimed so far.
func (l *RoundTripLimiter) Trips() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.trips
}
