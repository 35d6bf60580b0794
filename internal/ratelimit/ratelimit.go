package ratelimit

import (
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	DefaultMaxRequests = 2
	DefaultWindow      = time.Minute
)

// Limiter is a per-user sliding-window request counter. Timestamps are kept
// in insertion order, so the first one is always the next to expire.
type Limiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	now      func() time.Time
	requests map[int64][]time.Time
}

func New(maxRequests int, window time.Duration, now func() time.Time) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		max:      maxRequests,
		window:   window,
		now:      now,
		requests: make(map[int64][]time.Time),
	}
}

// IsLimited prunes stale timestamps for every user and reports whether userID
// already used up the window.
func (l *Limiter) IsLimited(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isLimitedLocked(userID, l.now())
}

// Record appends the current instant to userID's history without pruning.
func (l *Limiter) Record(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests[userID] = append(l.requests[userID], l.now())
}

// RetryAfter is how long userID must wait until the oldest request in the
// window expires. Zero when the user is not limited.
func (l *Limiter) RetryAfter(userID int64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if !l.isLimitedLocked(userID, now) {
		return 0
	}
	return l.retryAfterLocked(userID, now)
}

// Allow checks and records under a single lock. When the user is limited it
// returns false and the remaining wait.
func (l *Limiter) Allow(userID int64) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.isLimitedLocked(userID, now) {
		return false, l.retryAfterLocked(userID, now)
	}
	l.requests[userID] = append(l.requests[userID], now)
	return true, 0
}

// Users is the number of users with at least one request still tracked.
func (l *Limiter) Users() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

func (l *Limiter) isLimitedLocked(userID int64, now time.Time) bool {
	l.pruneLocked(now)
	return len(l.requests[userID]) >= l.max
}

func (l *Limiter) retryAfterLocked(userID int64, now time.Time) time.Duration {
	timestamps := l.requests[userID]
	if len(timestamps) == 0 {
		return 0
	}
	return max(l.window-now.Sub(timestamps[0]), 0)
}

func (l *Limiter) pruneLocked(now time.Time) {
	for userID, timestamps := range l.requests {
		recent := lo.Filter(timestamps, func(t time.Time, _ int) bool {
			return now.Sub(t) < l.window
		})
		if len(recent) == 0 {
			delete(l.requests, userID)
			continue
		}
		l.requests[userID] = recent
	}
}
