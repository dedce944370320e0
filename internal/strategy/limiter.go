package strategy

import (
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

const (
	// RateLimitWindow is how long the hourly counter runs before it resets.
	RateLimitWindow = time.Hour
	// HoldCooldown is the minimum time between a published signal and a published HOLD.
	HoldCooldown = 60 * time.Second
)

// Clock returns the current time. Tests and replays inject their own.
type Clock func() time.Time

// Suppression reasons reported by RateLimiter.Admit.
const (
	SuppressedHourlyLimit  = "hourly signal limit reached"
	SuppressedHoldCooldown = "HOLD within cooldown of the last published signal"
)

// RateLimiter enforces the emission policy: at most maxPerHour published signals
// per window measured from the last reset, and no HOLD within HoldCooldown of
// the previous published signal. It is not safe for concurrent use.
type RateLimiter struct {
	maxPerHour    int
	count         int
	windowStart   time.Time
	lastPublished time.Time
	clock         Clock
}

// NewRateLimiter creates a limiter. maxPerHour <= 0 disables the hourly limit.
func NewRateLimiter(maxPerHour int, clock Clock) *RateLimiter {
	if clock == nil {
		clock = time.Now
	}

	return &RateLimiter{
		maxPerHour:    maxPerHour,
		count:         0,
		windowStart:   time.Time{},
		lastPublished: time.Time{},
		clock:         clock,
	}
}

// Admit decides whether a signal may be published and records it when it may.
// The returned reason is empty for admitted signals.
func (l *RateLimiter) Admit(signalType types.SignalType) (bool, string) {
	now := l.clock()

	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= RateLimitWindow {
		l.windowStart = now
		l.count = 0
	}

	if l.maxPerHour > 0 && l.count >= l.maxPerHour {
		return false, SuppressedHourlyLimit
	}

	if signalType == types.SignalTypeHold && !l.lastPublished.IsZero() && now.Sub(l.lastPublished) < HoldCooldown {
		return false, SuppressedHoldCooldown
	}

	l.count++
	l.lastPublished = now

	return true, ""
}

// Count returns the number of signals published in the current window.
func (l *RateLimiter) Count() int {
	return l.count
}

// Reset clears the counter and the cooldown.
func (l *RateLimiter) Reset(maxPerHour int) {
	l.maxPerHour = maxPerHour
	l.count = 0
	l.windowStart = time.Time{}
	l.lastPublished = time.Time{}
}
