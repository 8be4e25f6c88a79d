package apihttp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientLimiter decides whether a client identity may issue another request
// within the current window. Implementations must be safe for concurrent
// use; requests are handled in parallel.
type ClientLimiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
}

type clientWindow struct {
	start time.Time
	count int
}

// FixedWindowLimiter is the in-process default: a fixed 60s window counter
// per client identity, guarded by a single lock.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientWindow
	now     func() time.Time
}

func NewFixedWindowLimiter(window time.Duration, limit int) *FixedWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 20
	}
	return &FixedWindowLimiter{
		window:  window,
		limit:   limit,
		clients: make(map[string]*clientWindow),
		now:     time.Now,
	}
}

func (l *FixedWindowLimiter) Allow(_ context.Context, clientID string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.clients[clientID]
	if window == nil || now.Sub(window.start) >= l.window {
		l.sweepExpired(now)
		l.clients[clientID] = &clientWindow{start: now, count: 1}
		return true, nil
	}
	if window.count >= l.limit {
		return false, nil
	}
	window.count++
	return true, nil
}

// sweepExpired drops stale windows so the map does not grow with client
// churn. Called with the lock held, only on window rollover.
func (l *FixedWindowLimiter) sweepExpired(now time.Time) {
	if len(l.clients) < 1024 {
		return
	}
	for id, window := range l.clients {
		if now.Sub(window.start) >= l.window {
			delete(l.clients, id)
		}
	}
}

const redisLimiterPrefix = "licitasearch:ratelimit:"

// RedisWindowLimiter shares the per-client budget across replicas using
// INCR on a key scoped to the current window index.
type RedisWindowLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int
}

func NewRedisWindowLimiter(client *redis.Client, window time.Duration, limit int) *RedisWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 20
	}
	return &RedisWindowLimiter{client: client, window: window, limit: limit}
}

func (l *RedisWindowLimiter) Allow(ctx context.Context, clientID string) (bool, error) {
	bucket := time.Now().Unix() / int64(l.window.Seconds())
	key := fmt.Sprintf("%s%s:%d", redisLimiterPrefix, clientID, bucket)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		// Fail open: an unreachable Redis must not take search down.
		return true, err
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.window+time.Second)
	}
	return count <= int64(l.limit), nil
}
