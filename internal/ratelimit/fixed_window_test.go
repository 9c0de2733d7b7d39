package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestFixedWindowLimiter(t *testing.T) {
	_, client := newClient(t)
	limiter, err := New(client, "test:login", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	ctx := context.Background()
	if !limiter.Allow(ctx, "203.0.113.5") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow(ctx, "203.0.113.5") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow(ctx, "203.0.113.5") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow(ctx, "198.51.100.7") {
		t.Fatalf("other keys have their own quota")
	}
}

func TestFixedWindowLimiterResetsOnNextWindow(t *testing.T) {
	_, client := newClient(t)
	limiter, err := New(client, "test:assistant", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }
	ctx := context.Background()
	if !limiter.Allow(ctx, "sid") || limiter.Allow(ctx, "sid") {
		t.Fatalf("expected exactly one request in the first window")
	}
	limiter.now = func() time.Time { return base.Add(time.Minute) }
	if !limiter.Allow(ctx, "sid") {
		t.Fatalf("expected quota to reset in the next window")
	}
}

func TestFixedWindowLimiterFailClosed(t *testing.T) {
	srv, client := newClient(t)
	limiter, err := New(client, "test:login", 1, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	srv.Close()
	if limiter.Allow(context.Background(), "ip-1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestNewRequiresClientAndPositiveQuota(t *testing.T) {
	if _, err := New(nil, "p", 1, time.Second); err == nil {
		t.Fatalf("expected error without client")
	}
	_, client := newClient(t)
	if _, err := New(client, "p", 0, time.Second); err == nil {
		t.Fatalf("expected error for zero limit")
	}
}
