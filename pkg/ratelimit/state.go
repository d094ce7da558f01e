// Package ratelimit gates catalog requests on the rate limit the server
// advertises. It understands the common X-RateLimit-Remaining and
// X-RateLimit-Reset headers and Retry-After on 429 and 503 responses.
package ratelimit

import (
	"time"
)

// Redis keys for shared limiter state.
const (
	RedisKeyRemaining    = "catalog:rate_limit:remaining"
	RedisKeyResetAt      = "catalog:rate_limit:reset_at"
	RedisKeyBlockedUntil = "catalog:rate_limit:blocked_until"
	RedisKeyLastUpdate   = "catalog:rate_limit:last_update"
)

// Thresholds on the remaining request budget.
const (
	// ThresholdCritical blocks requests while fewer than this many remain.
	ThresholdCritical = 1

	// ThresholdWarning throttles requests while fewer than this many remain.
	ThresholdWarning = 5
)

// UnknownRemaining marks a budget the server never reported.
const UnknownRemaining = -1

// State is the limiter's view of the server's budget.
type State struct {
	// Remaining is the request budget left in the window, or UnknownRemaining.
	Remaining int `json:"remaining"`

	// ResetAt is when the budget window resets.
	ResetAt time.Time `json:"reset_at"`

	// BlockedUntil is set from Retry-After; no request is sent before it.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastUpdate is when the state was last written.
	LastUpdate time.Time `json:"last_update"`
}

// DefaultState is the state assumed before any response was seen.
func DefaultState() *State {
	return &State{Remaining: UnknownRemaining}
}

// IsStale reports whether the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsBlock reports whether requests must not be sent at now.
func (s *State) NeedsBlock(now time.Time) bool {
	if now.Before(s.BlockedUntil) {
		return true
	}
	return s.Remaining != UnknownRemaining && s.Remaining < ThresholdCritical && now.Before(s.ResetAt)
}

// NeedsThrottling reports whether requests should be slowed at now.
func (s *State) NeedsThrottling(now time.Time) bool {
	if s.NeedsBlock(now) || s.Remaining == UnknownRemaining {
		return false
	}
	return s.Remaining < ThresholdWarning && now.Before(s.ResetAt)
}

// WaitDuration returns how long a blocked caller has to wait at now.
func (s *State) WaitDuration(now time.Time) time.Duration {
	wait := time.Duration(0)
	if d := s.BlockedUntil.Sub(now); d > wait {
		wait = d
	}
	if s.Remaining != UnknownRemaining && s.Remaining < ThresholdCritical {
		if d := s.ResetAt.Sub(now); d > wait {
			wait = d
		}
	}
	return wait
}
