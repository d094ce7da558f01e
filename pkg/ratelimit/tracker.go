package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_rate_limit_remaining",
		Help: "Request budget remaining as reported by the catalog server",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_rate_limit_blocks_total",
		Help: "Total number of requests blocked by the rate limiter",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_rate_limit_throttles_total",
		Help: "Total number of requests delayed by the rate limiter",
	})
)

// DefaultThrottleDelay is the pause applied in the warning band.
const DefaultThrottleDelay = 250 * time.Millisecond

// epochCutoff separates reset values given as a delta in seconds from values
// given as a Unix timestamp.
const epochCutoff = 1_000_000_000

// Tracker reads rate limit headers and decides whether a request may go out.
type Tracker struct {
	store         stateStore
	logger        zerolog.Logger
	throttleDelay time.Duration
	now           func() time.Time
}

// NewTracker creates a tracker. With a Redis client the state is shared by
// every process using the same Redis; with nil it lives in memory.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	var store stateStore = &memoryStore{}
	if redisClient != nil {
		store = &redisStore{redis: redisClient}
	}
	return &Tracker{
		store:         store,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
		now:           time.Now,
	}
}

// SetThrottleDelay changes the pause applied in the warning band.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState returns the current limiter state.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	return t.store.load(ctx)
}

// UpdateFromResponse folds a response's status and headers into the state.
// Responses without rate limit information leave the state untouched.
func (t *Tracker) UpdateFromResponse(ctx context.Context, status int, headers http.Header) error {
	remainingRaw := headers.Get("X-RateLimit-Remaining")
	resetRaw := headers.Get("X-RateLimit-Reset")
	retryAfterRaw := headers.Get("Retry-After")
	limited := status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable

	if remainingRaw == "" && !(limited && retryAfterRaw != "") {
		return nil
	}

	state, err := t.store.load(ctx)
	if err != nil {
		return fmt.Errorf("get rate limit state: %w", err)
	}
	now := t.now()

	if remainingRaw != "" {
		remaining, err := strconv.Atoi(strings.TrimSpace(remainingRaw))
		if err != nil {
			return fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
		}
		state.Remaining = remaining
		rateLimitRemaining.Set(float64(remaining))

		if resetRaw != "" {
			reset, err := strconv.ParseInt(strings.TrimSpace(resetRaw), 10, 64)
			if err != nil {
				return fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
			}
			if reset >= epochCutoff {
				state.ResetAt = time.Unix(reset, 0)
			} else {
				state.ResetAt = now.Add(time.Duration(reset) * time.Second)
			}
		}
	}

	if limited && retryAfterRaw != "" {
		if wait, ok := ParseRetryAfter(retryAfterRaw, now); ok {
			state.BlockedUntil = now.Add(wait)
		}
	}

	state.LastUpdate = now
	if err := t.store.save(ctx, state); err != nil {
		return err
	}

	switch {
	case state.NeedsBlock(now):
		t.logger.Error().
			Int("remaining", state.Remaining).
			Time("blocked_until", state.BlockedUntil).
			Time("reset_at", state.ResetAt).
			Msg("Rate limit exhausted - requests will be blocked")
	case state.NeedsThrottling(now):
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Msg("Rate limit state updated")
	}
	return nil
}

// ShouldAllowRequest reports whether a request may be sent now. In the
// warning band it pauses first, returning early if ctx ends.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.store.load(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}
	now := t.now()

	if state.NeedsBlock(now) {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("wait", state.WaitDuration(now)).
			Msg("Rate limit blocking request")
		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling(now) && t.throttleDelay > 0 {
		rateLimitThrottlesTotal.Inc()
		t.logger.Debug().Int("remaining", state.Remaining).Msg("Throttling request")
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.throttleDelay):
		}
	}
	return true, nil
}

// ParseRetryAfter reads a Retry-After value in delta-seconds or HTTP-date form.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	when, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	if d := when.Sub(now); d > 0 {
		return d, true
	}
	return 0, true
}
