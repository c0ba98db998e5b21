package redis

import (
	"context"
	"testing"
	"time"

	"coupon-service/internal/config"
	"coupon-service/internal/logger"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/go-redis/redis/v8"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis, context.Context) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	return &Client{client: rdb, log: log}, mr, context.Background()
}

func TestConnectSuccess(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: mr.Port(), DB: 0}

	client, err := Connect(cfg, log)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestConnectFailure(t *testing.T) {
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: "0", DB: 0}
	if _, err := Connect(cfg, log); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestCloseNil(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Fatalf("expected nil error on nil client close, got %v", err)
	}
}

func TestGenerateKey(t *testing.T) {
	if key := GenerateKey("prefix", "123"); key != "prefix:123" {
		t.Fatalf("unexpected key: %s", key)
	}
	if key := GenerateKey(KeyPrefixRateLimit, "coupons", "::1"); key != "ratelimit:coupons:__1" {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestIncrWindow(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	count, ttl, err := client.IncrWindow(ctx, "rl:ip", time.Minute)
	if err != nil || count != 1 {
		t.Fatalf("expected first increment to be 1, got %d err=%v", count, err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl: %v", ttl)
	}

	count, _, err = client.IncrWindow(ctx, "rl:ip", time.Minute)
	if err != nil || count != 2 {
		t.Fatalf("expected second increment to be 2, got %d err=%v", count, err)
	}

	mr.FastForward(2 * time.Minute)
	count, _, err = client.IncrWindow(ctx, "rl:ip", time.Minute)
	if err != nil || count != 1 {
		t.Fatalf("expected counter reset after window, got %d err=%v", count, err)
	}
}

func TestPeek(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	count, _, found, err := client.Peek(ctx, "absent")
	if err != nil || found || count != 0 {
		t.Fatalf("expected missing key, got count=%d found=%v err=%v", count, found, err)
	}

	_ = mr.Set("counter", "5")
	mr.SetTTL("counter", 30*time.Second)

	count, ttl, found, err := client.Peek(ctx, "counter")
	if err != nil || !found || count != 5 {
		t.Fatalf("unexpected peek: count=%d found=%v err=%v", count, found, err)
	}
	if ttl <= 0 {
		t.Fatalf("expected positive ttl, got %v", ttl)
	}

	_ = mr.Set("text", "abc")
	if _, _, _, err := client.Peek(ctx, "text"); err == nil {
		t.Fatalf("expected parse error for non-integer value")
	}
}

func TestHealth(t *testing.T) {
	client, mr, ctx := newTestClient(t)
	if err := client.Health(ctx); err != nil {
		t.Fatalf("expected healthy redis, got %v", err)
	}

	mr.Close()
	if err := client.Health(ctx); err == nil {
		t.Fatalf("expected error after redis shutdown")
	}

	var nilClient *Client
	if err := nilClient.Health(ctx); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
