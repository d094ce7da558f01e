package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first one.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps every wait.
	MaxBackoff time.Duration

	// BackoffMultiplier grows the wait after each retry.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// ForErrorClass scales cfg for a failure class: rate limits wait longer,
// network errors a little longer than server errors.
func (cfg RetryConfig) ForErrorClass(class ErrorClass) RetryConfig {
	out := cfg
	switch class {
	case ErrorClassRateLimit:
		out.InitialBackoff = cfg.InitialBackoff * 4
	case ErrorClassNetwork:
		out.InitialBackoff = cfg.InitialBackoff * 2
	}
	if out.MaxBackoff > 0 && out.InitialBackoff > out.MaxBackoff {
		out.InitialBackoff = out.MaxBackoff
	}
	return out
}

// attemptFunc performs one attempt. A nil error ends the loop; otherwise
// class decides whether another attempt is made and hint, when positive,
// overrides the computed backoff.
type attemptFunc func(attempt int) (class ErrorClass, hint time.Duration, err error)

// retryWithBackoff runs fn until it succeeds, fails with a non-retriable
// class, or runs out of attempts. Waits are jittered by ±20% and end early
// when ctx is done.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn attemptFunc) error {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		lastErr   error
		lastClass ErrorClass
		backoff   time.Duration
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		class, hint, err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		if !shouldRetry(class) {
			return err
		}
		if attempt >= maxAttempts {
			lastClass = class
			break
		}

		classCfg := cfg.ForErrorClass(class)
		if class != lastClass || backoff == 0 {
			backoff = classCfg.InitialBackoff
		}
		lastClass = class

		wait := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		if hint > 0 {
			wait = hint
		}
		if classCfg.MaxBackoff > 0 && wait > classCfg.MaxBackoff {
			wait = classCfg.MaxBackoff
		}

		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())
		logger.Debug().
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(class)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}

		mult := classCfg.BackoffMultiplier
		if mult < 1 {
			mult = 1
		}
		backoff = time.Duration(float64(backoff) * mult)
		if classCfg.MaxBackoff > 0 && backoff > classCfg.MaxBackoff {
			backoff = classCfg.MaxBackoff
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	logger.Warn().
		Str("error_class", string(lastClass)).
		Int("max_attempts", maxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxAttempts, lastErr)
}
