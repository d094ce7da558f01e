package cache

import (
	"testing"
	"time"
)

func TestEntry_TTL(t *testing.T) {
	fresh := &Entry{Expires: time.Now().Add(time.Minute)}
	if fresh.IsExpired() {
		t.Error("fresh entry reported expired")
	}
	if ttl := fresh.TTL(); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v", ttl)
	}

	stale := &Entry{Expires: time.Now().Add(-time.Second)}
	if !stale.IsExpired() {
		t.Error("stale entry not expired")
	}
	if stale.TTL() != 0 {
		t.Errorf("stale TTL = %v, want 0", stale.TTL())
	}
}
