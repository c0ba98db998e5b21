package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coupon-service/internal/config"
	"coupon-service/internal/logger"

	"github.com/go-redis/redis/v8"
)

const connectTimeout = 5 * time.Second

// KeyPrefixRateLimit префикс ключей счётчиков rate limiting по умолчанию.
const KeyPrefixRateLimit = "ratelimit"

// Client представляет клиент Redis
type Client struct {
	client *redis.Client
	log    *logger.Logger
}

// Connect создает подключение к Redis
func Connect(cfg *config.RedisConfig, log *logger.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithField("addr", rdb.Options().Addr).Info("Successfully connected to Redis")

	return &Client{
		client: rdb,
		log:    log,
	}, nil
}

// Close закрывает подключение к Redis
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IncrWindow увеличивает счётчик окна и возвращает новое значение вместе с
// оставшимся временем жизни. TTL выставляется только у ключа без срока жизни,
// поэтому окно отсчитывается от первого запроса.
func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to incr window %s: %w", key, err)
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("failed to set window ttl")
		}
		remaining = window
	}
	return incr.Val(), remaining, nil
}

// Peek возвращает текущее значение счётчика без его изменения.
// Для отсутствующего ключа возвращается ноль и found=false.
func (c *Client) Peek(ctx context.Context, key string) (count int64, ttl time.Duration, found bool, err error) {
	count, err = c.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("failed to get counter %s: %w", key, err)
	}

	ttl, err = c.client.TTL(ctx, key).Result()
	if err != nil {
		return count, 0, true, fmt.Errorf("failed to get ttl for key %s: %w", key, err)
	}
	return count, ttl, true, nil
}

// Health проверяет состояние Redis
func (c *Client) Health(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("redis client is not initialized")
	}
	return c.client.Ping(ctx).Err()
}

// GenerateKey собирает ключ из префикса и частей; двоеточия внутри частей
// заменяются, чтобы не ломать пространство имён.
func GenerateKey(prefix string, parts ...string) string {
	safe := make([]string, 0, len(parts)+1)
	safe = append(safe, prefix)
	for _, p := range parts {
		safe = append(safe, strings.ReplaceAll(p, ":", "_"))
	}
	return strings.Join(safe, ":")
}
