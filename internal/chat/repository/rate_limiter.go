package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	errprocess "realtime_chat_service/pkg/err"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RateLimiter decides whether a user may perform another rate limited action.
// Allow both checks the window and records the action when permitted, a
// denied call records nothing.
type RateLimiter interface {
	Allow(ctx context.Context, memberID string) (bool, error)
}

// slidingWindowScript prunes expired entries, checks the count and records
// the new action in one atomic step so concurrent sends cannot overshoot the
// limit.
var slidingWindowScript = redis.NewScript(`
local window_start = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, window_start)
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
redis.call('PEXPIRE', KEYS[1], tonumber(ARGV[2]) * 2)
return 1
`)

type redisRateLimiter struct {
	rdb    *redis.Client
	window time.Duration
	max    int
}

// NewRedisRateLimiter creates a sliding window RateLimiter backed by redis
// sorted sets, one key per user.
func NewRedisRateLimiter(rdb *redis.Client, window time.Duration, max int) RateLimiter {
	return &redisRateLimiter{rdb: rdb, window: window, max: max}
}

func (r *redisRateLimiter) Allow(ctx context.Context, memberID string) (bool, error) {
	key := fmt.Sprintf("rate_limit:send_message:%s", memberID)
	now := time.Now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, r.rdb,
		[]string{key},
		now, r.window.Milliseconds(), r.max, uuid.NewString(),
	).Int64()
	if err != nil {
		return false, errprocess.Set("rate limiter: " + err.Error())
	}
	return res == 1, nil
}

type userWindow struct {
	mu   sync.Mutex
	hits []time.Time
}

type memoryRateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	users   map[string]*userWindow
	nowFunc func() time.Time
}

// NewMemoryRateLimiter creates an in process sliding window RateLimiter.
// Each user has its own window and lock, users do not contend with each
// other.
func NewMemoryRateLimiter(window time.Duration, max int) RateLimiter {
	return &memoryRateLimiter{
		window:  window,
		max:     max,
		users:   make(map[string]*userWindow),
		nowFunc: time.Now,
	}
}

func (r *memoryRateLimiter) Allow(_ context.Context, memberID string) (bool, error) {
	r.mu.Lock()
	w, ok := r.users[memberID]
	if !ok {
		w = &userWindow{}
		r.users[memberID] = w
	}
	r.mu.Unlock()

	now := r.nowFunc()
	cutoff := now.Add(-r.window)

	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.hits[:0]
	for _, t := range w.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.hits = kept
	if len(w.hits) >= r.max {
		return false, nil
	}
	w.hits = append(w.hits, now)
	return true, nil
}
