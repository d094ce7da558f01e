package ratelimit

import (
	"testing"
	"time"
)

func TestState_NeedsBlock(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		state State
		block bool
		slow  bool
	}{
		{"unknown budget", State{Remaining: UnknownRemaining}, false, false},
		{"healthy", State{Remaining: 50, ResetAt: now.Add(time.Minute)}, false, false},
		{"warning band", State{Remaining: 3, ResetAt: now.Add(time.Minute)}, false, true},
		{"exhausted", State{Remaining: 0, ResetAt: now.Add(time.Minute)}, true, false},
		{"exhausted but reset passed", State{Remaining: 0, ResetAt: now.Add(-time.Second)}, false, false},
		{"retry-after pending", State{Remaining: UnknownRemaining, BlockedUntil: now.Add(time.Second)}, true, false},
		{"retry-after elapsed", State{Remaining: 50, BlockedUntil: now.Add(-time.Second)}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.NeedsBlock(now); got != tt.block {
				t.Errorf("NeedsBlock = %v, want %v", got, tt.block)
			}
			if got := tt.state.NeedsThrottling(now); got != tt.slow {
				t.Errorf("NeedsThrottling = %v, want %v", got, tt.slow)
			}
		})
	}
}

func TestState_WaitDuration(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	s := State{Remaining: 0, ResetAt: now.Add(30 * time.Second), BlockedUntil: now.Add(10 * time.Second)}
	if got := s.WaitDuration(now); got != 30*time.Second {
		t.Errorf("WaitDuration = %v, want 30s", got)
	}

	s = State{Remaining: 10, BlockedUntil: now.Add(5 * time.Second)}
	if got := s.WaitDuration(now); got != 5*time.Second {
		t.Errorf("WaitDuration = %v, want 5s", got)
	}

	if got := DefaultState().WaitDuration(now); got != 0 {
		t.Errorf("default WaitDuration = %v, want 0", got)
	}
}

func TestState_IsStale(t *testing.T) {
	if (&State{LastUpdate: time.Now()}).IsStale(time.Minute) {
		t.Error("fresh state reported stale")
	}
	if !(&State{LastUpdate: time.Now().Add(-2 * time.Minute)}).IsStale(time.Minute) {
		t.Error("old state not stale")
	}
}
