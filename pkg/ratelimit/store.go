package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateStore persists limiter state.
type stateStore interface {
	load(ctx context.Context) (*State, error)
	save(ctx context.Context, s *State) error
}

// redisStore shares state between processes talking to the same server.
type redisStore struct {
	redis *redis.Client
}

func (r *redisStore) load(ctx context.Context) (*State, error) {
	values, err := r.redis.MGet(ctx, RedisKeyRemaining, RedisKeyResetAt, RedisKeyBlockedUntil, RedisKeyLastUpdate).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load rate limit state: %w", err)
	}

	state := DefaultState()
	if len(values) != 4 {
		return state, nil
	}
	raw, ok := values[0].(string)
	if !ok {
		return state, nil
	}

	remaining, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	state.Remaining = remaining
	state.ResetAt = unixMilliField(values[1])
	state.BlockedUntil = unixMilliField(values[2])
	state.LastUpdate = unixMilliField(values[3])
	return state, nil
}

func (r *redisStore) save(ctx context.Context, s *State) error {
	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, s.Remaining, 0)
	pipe.Set(ctx, RedisKeyResetAt, millis(s.ResetAt), 0)
	pipe.Set(ctx, RedisKeyBlockedUntil, millis(s.BlockedUntil), 0)
	pipe.Set(ctx, RedisKeyLastUpdate, millis(s.LastUpdate), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func unixMilliField(v any) time.Time {
	raw, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// memoryStore keeps state for a single process.
type memoryStore struct {
	mu    sync.Mutex
	state *State
}

func (m *memoryStore) load(context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return DefaultState(), nil
	}
	s := *m.state
	return &s, nil
}

func (m *memoryStore) save(_ context.Context, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.state = &copied
	return nil
}
