package config

import (
	"os"
	"testing"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "123")
	t.Setenv("TEST_BOOL_TRUE", "true")
	t.Setenv("TEST_BOOL_FALSE", "false")
	t.Setenv("TEST_SLICE", "a, b,,c")

	if v := getEnv("TEST_STR", ""); v != "value" {
		t.Fatalf("expected value, got %s", v)
	}
	if v := getEnvAsInt("TEST_INT", 0); v != 123 {
		t.Fatalf("expected 123, got %d", v)
	}
	if !getEnvAsBool("TEST_BOOL_TRUE", false) {
		t.Fatalf("expected true")
	}
	if getEnvAsBool("TEST_BOOL_FALSE", true) {
		t.Fatalf("expected false")
	}
	got := getEnvAsSlice("TEST_SLICE", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected slice: %v", got)
	}
}

func TestGetEnvHelpers_Defaults(t *testing.T) {
	_ = os.Unsetenv("TEST_MISSING")
	t.Setenv("TEST_BAD_INT", "abc")

	if v := getEnvAsInt("TEST_BAD_INT", 7); v != 7 {
		t.Fatalf("expected default 7, got %d", v)
	}
	if !getEnvAsBool("TEST_MISSING", true) {
		t.Fatalf("expected default true")
	}
	if v := getEnvAsSlice("TEST_MISSING", []string{"x"}); len(v) != 1 || v[0] != "x" {
		t.Fatalf("expected default slice, got %v", v)
	}
}

func TestLoadDefaults(t *testing.T) {
	_ = os.Unsetenv("SERVER_PORT")
	_ = os.Unsetenv("KAFKA_TOPIC_COUPONS")
	_ = os.Unsetenv("SERVER_TRUST_PROXY_HEADERS")
	cfg := Load()
	if cfg.Server.Port == "" {
		t.Fatalf("expected default server port set")
	}
	if cfg.Kafka.Topics.Coupons != "coupons" {
		t.Fatalf("expected default coupons topic, got %q", cfg.Kafka.Topics.Coupons)
	}
	if cfg.Metrics.Path == "" {
		t.Fatalf("expected metrics path default")
	}
	if cfg.Server.TrustProxyHeaders {
		t.Fatalf("proxy headers must not be trusted by default")
	}
}
