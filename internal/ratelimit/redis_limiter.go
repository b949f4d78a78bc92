// Package ratelimit provides a Redis-backed request limiter. It is
// injected into the HTTP layer rather than living in process-global
// maps, so instances share counters and the core stays testable.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit is one route-class budget: Requests per Window.
type Limit struct {
	Name     string
	Requests int
	Window   time.Duration
}

// Route classes mirror the traffic shape: reads are cheap and frequent,
// writes are user actions, companion sync is a batch channel.
var (
	LimitRead          = Limit{Name: "read", Requests: 120, Window: time.Minute}
	LimitWrite         = Limit{Name: "write", Requests: 30, Window: time.Minute}
	LimitCompanionSync = Limit{Name: "companion", Requests: 60, Window: time.Minute}
)

// Result reports one admission decision plus the header values callers
// expose (X-RateLimit-Limit/Remaining/Reset).
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RedisLimiter counts requests in fixed windows keyed by route class and
// client. Window expiry is Redis TTL; there is no sweep to run.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(redisURL string) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisLimiterWithClient(client), nil
}

func NewRedisLimiterWithClient(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "rl:",
		now:    time.Now,
	}
}

func (l *RedisLimiter) key(limit Limit, clientID string, windowStart int64) string {
	return fmt.Sprintf("%s%s:%s:%d", l.prefix, limit.Name, clientID, windowStart)
}

// Allow admits or rejects one request from clientID under the given
// limit. On a Redis failure the caller decides; the HTTP layer fails
// open since availability beats enforcement for a progress tracker.
func (l *RedisLimiter) Allow(ctx context.Context, limit Limit, clientID string) (Result, error) {
	now := l.now()
	windowStart := now.Truncate(limit.Window).Unix()
	key := l.key(limit, clientID, windowStart)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("incr rate counter: %w", err)
	}
	if count == 1 {
		// First hit in the window owns setting the expiry.
		if err := l.client.Expire(ctx, key, limit.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("expire rate counter: %w", err)
		}
	}

	remaining := limit.Requests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   int(count) <= limit.Requests,
		Limit:     limit.Requests,
		Remaining: remaining,
		Reset:     time.Unix(windowStart, 0).Add(limit.Window),
	}, nil
}

func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
