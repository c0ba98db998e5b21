package services

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"coupon-service/internal/config"
	"coupon-service/internal/logger"
	"coupon-service/internal/redis"
)

// RateDecision результат проверки лимита для одного запроса.
type RateDecision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RateUsage текущее состояние окна клиента.
type RateUsage struct {
	Used      int64
	Remaining int64
	ResetAt   *time.Time
}

// RateLimiter ограничивает число запросов к купонам в
// фиксированном окне на клиента (IP).
type RateLimiter struct {
	store   windowStore
	log     *logger.Logger
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
	now     func() time.Time
}

type windowStore interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Peek(ctx context.Context, key string) (int64, time.Duration, bool, error)
}

// NewRateLimiter создаёт rate limiter. Без Redis или с выключенной
// конфигурацией лимитер пропускает всё.
func NewRateLimiter(redisClient *redis.Client, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if redisClient == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{enabled: false, now: time.Now}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = redis.KeyPrefixRateLimit
	}

	return &RateLimiter{
		store:   redisClient,
		log:     log,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:  prefix,
		now:     time.Now,
	}
}

// Allow учитывает запрос клиента и сообщает, укладывается ли он в лимит.
func (r *RateLimiter) Allow(ctx context.Context, client string) (RateDecision, error) {
	if !r.enabled {
		return RateDecision{Allowed: true, Limit: r.limit, Remaining: r.limit}, nil
	}

	key := r.key(client)
	count, ttl, err := r.store.IncrWindow(ctx, key, r.window)
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limiter incr failed: %w", err)
	}

	return RateDecision{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Remaining: remainingOf(r.limit, count),
		ResetAt:   r.now().Add(ttl),
	}, nil
}

// Usage возвращает состояние окна клиента, не расходуя лимит.
func (r *RateLimiter) Usage(ctx context.Context, client string) (RateUsage, error) {
	if !r.enabled {
		return RateUsage{Remaining: r.limit}, nil
	}

	count, ttl, found, err := r.store.Peek(ctx, r.key(client))
	if err != nil {
		return RateUsage{}, fmt.Errorf("rate limiter peek failed: %w", err)
	}

	usage := RateUsage{Used: count, Remaining: remainingOf(r.limit, count)}
	if found && ttl > 0 {
		resetAt := r.now().Add(ttl)
		usage.ResetAt = &resetAt
	}
	return usage, nil
}

// Limit возвращает лимит для текущего окна.
func (r *RateLimiter) Limit() int64 {
	return r.limit
}

// Window возвращает длительность окна.
func (r *RateLimiter) Window() time.Duration {
	return r.window
}

// Enabled сообщает, включён ли rate limiting.
func (r *RateLimiter) Enabled() bool {
	return r.enabled
}

func (r *RateLimiter) key(client string) string {
	return redis.GenerateKey(r.prefix, client)
}

func remainingOf(limit, used int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}

// ExtractClientIP получает IP клиента из RemoteAddr. Заголовки прокси
// учитываются только через middleware.RealIP, если оно включено конфигурацией.
func ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
