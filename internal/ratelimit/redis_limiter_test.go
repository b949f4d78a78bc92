package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	limiter := NewRedisLimiterWithClient(client)
	return limiter, s
}

func TestAllowUnderLimit(t *testing.T) {
	limiter, _ := setupTestLimiter(t)
	defer limiter.Close()

	limit := Limit{Name: "test", Requests: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(ctx, limit, "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d denied under limit", i+1)
		}
		if result.Remaining != 3-(i+1) {
			t.Errorf("request %d remaining = %d, want %d", i+1, result.Remaining, 3-(i+1))
		}
	}
}

func TestAllowDeniesOverLimit(t *testing.T) {
	limiter, _ := setupTestLimiter(t)
	defer limiter.Close()

	limit := Limit{Name: "test", Requests: 2, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(ctx, limit, "1.2.3.4"); err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
	}

	result, err := limiter.Allow(ctx, limit, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if result.Allowed {
		t.Fatal("request over limit was allowed")
	}
	if result.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", result.Remaining)
	}
	if result.Reset.IsZero() {
		t.Error("Reset not populated")
	}
}

func TestAllowIsolatesClients(t *testing.T) {
	limiter, _ := setupTestLimiter(t)
	defer limiter.Close()

	limit := Limit{Name: "test", Requests: 1, Window: time.Minute}
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, limit, "1.2.3.4"); err != nil {
		t.Fatal(err)
	}
	result, err := limiter.Allow(ctx, limit, "5.6.7.8")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed {
		t.Fatal("second client denied by first client's counter")
	}
}

func TestWindowExpires(t *testing.T) {
	limiter, s := setupTestLimiter(t)
	defer limiter.Close()

	limit := Limit{Name: "test", Requests: 1, Window: time.Minute}
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, limit, "1.2.3.4"); err != nil {
		t.Fatal(err)
	}
	result, err := limiter.Allow(ctx, limit, "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatal("second request in window should be denied")
	}

	// Past the window the counter has expired and a fresh one starts.
	s.FastForward(2 * time.Minute)
	limiter.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	result, err = limiter.Allow(ctx, limit, "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed {
		t.Fatal("request after window expiry should be allowed")
	}
}
