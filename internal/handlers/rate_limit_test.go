package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coupon-service/internal/config"
	"coupon-service/internal/logger"
	"coupon-service/internal/services"
)

type stubLimiter struct {
	allowSeq []bool
	idx      int
	limit    int64
	enabled  bool
	err      error
	usage    services.RateUsage
	usageErr error
	keys     []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (services.RateDecision, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return services.RateDecision{}, s.err
	}
	if s.idx >= len(s.allowSeq) {
		return services.RateDecision{Limit: s.limit, ResetAt: time.Now()}, nil
	}
	val := s.allowSeq[s.idx]
	s.idx++
	return services.RateDecision{
		Allowed:   val,
		Limit:     s.limit,
		Remaining: s.limit - int64(s.idx),
		ResetAt:   time.Now().Add(time.Minute),
	}, nil
}

func (s *stubLimiter) Enabled() bool         { return s.enabled }
func (s *stubLimiter) Limit() int64          { return s.limit }
func (s *stubLimiter) Window() time.Duration { return time.Minute }
func (s *stubLimiter) Usage(_ context.Context, _ string) (services.RateUsage, error) {
	return s.usage, s.usageErr
}

func newRateTestLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func TestRateLimitMiddleware_BlocksAfterLimit(t *testing.T) {
	limiter := &stubLimiter{allowSeq: []bool{true, false}, limit: 1, enabled: true}

	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	wrapped := RateLimitMiddleware(limiter, newRateTestLogger())(handler)
	req := httptest.NewRequest(http.MethodPost, "/coupon", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	rr1 := httptest.NewRecorder()
	wrapped.ServeHTTP(rr1, req)
	if rr1.Code != http.StatusOK || calls != 1 {
		t.Fatalf("first request expected 200, calls=1; got %d, calls=%d", rr1.Code, calls)
	}
	if rr1.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("expected rate limit headers, got %v", rr1.Header())
	}

	rr2 := httptest.NewRecorder()
	wrapped.ServeHTTP(rr2, req)
	if rr2.Code != http.StatusTooManyRequests || calls != 1 {
		t.Fatalf("second request expected 429, calls still 1; got %d, calls=%d", rr2.Code, calls)
	}
	if rr2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRateLimitMiddleware_DisabledSkips(t *testing.T) {
	limiter := &stubLimiter{enabled: false}
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	RateLimitMiddleware(limiter, newRateTestLogger())(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/coupon", nil))

	if calls != 1 || rr.Code != http.StatusOK {
		t.Fatalf("expected middleware to skip limiter, code=%d calls=%d", rr.Code, calls)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "" {
		t.Fatalf("disabled limiter must not set headers")
	}
}

func TestRateLimitMiddleware_ErrorFailsOpen(t *testing.T) {
	limiter := &stubLimiter{limit: 1, enabled: true, err: errors.New("redis down")}
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	rr := httptest.NewRecorder()
	RateLimitMiddleware(limiter, newRateTestLogger())(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/coupon", nil))

	if rr.Code != http.StatusCreated || calls != 1 {
		t.Fatalf("expected request to pass on limiter error, got %d calls=%d", rr.Code, calls)
	}
}

func TestRateLimitStatus_Disabled(t *testing.T) {
	handler := NewRateLimitHandler(nil, newRateTestLogger())
	rr := httptest.NewRecorder()

	handler.Status(rr, httptest.NewRequest(http.MethodGet, "/api/rate-limit/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["enabled"] != false {
		t.Fatalf("expected enabled=false, got %s", rr.Body.String())
	}
}

func TestRateLimitMiddleware_ForwardingHeadersDoNotChangeKey(t *testing.T) {
	limiter := &stubLimiter{allowSeq: []bool{true, true, true}, limit: 3, enabled: true}
	wrapped := RateLimitMiddleware(limiter, newRateTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, spoofed := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		req := httptest.NewRequest(http.MethodPost, "/coupon", nil)
		req.RemoteAddr = "1.2.3.4:5555"
		req.Header.Set("X-Forwarded-For", spoofed)
		req.Header.Set("X-Real-IP", spoofed)
		wrapped.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(limiter.keys) != 3 {
		t.Fatalf("expected 3 limiter calls, got %d", len(limiter.keys))
	}
	for _, key := range limiter.keys {
		if key != "1.2.3.4" {
			t.Fatalf("expected every request counted against remote addr, got keys %v", limiter.keys)
		}
	}
}

func TestRateLimitStatus_Enabled(t *testing.T) {
	reset := time.Now().Add(30 * time.Second)
	limiter := &stubLimiter{limit: 5, enabled: true, usage: services.RateUsage{Used: 2, Remaining: 3, ResetAt: &reset}}
	handler := NewRateLimitHandler(limiter, newRateTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/rate-limit/status", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	req.Header.Set("X-Real-IP", "172.16.0.1")
	rr := httptest.NewRecorder()
	handler.Status(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["used"] != float64(2) || body["remaining"] != float64(3) || body["key"] != "10.0.0.9" {
		t.Fatalf("unexpected status body: %v", body)
	}
	if _, ok := body["resetAt"]; !ok {
		t.Fatalf("expected resetAt in body")
	}
}

func TestRateLimitStatus_Error(t *testing.T) {
	limiter := &stubLimiter{limit: 5, enabled: true, usageErr: errors.New("usage error")}
	handler := NewRateLimitHandler(limiter, newRateTestLogger())

	rr := httptest.NewRecorder()
	handler.Status(rr, httptest.NewRequest(http.MethodGet, "/api/rate-limit/status", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
