package handlers

import (
	"context"
	"time"

	"coupon-service/internal/models"
	"coupon-service/internal/services"

	"github.com/google/uuid"
)

// ----- Coupons -----

type CouponService interface {
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.CouponResponse, error)
	GetCoupon(ctx context.Context, id uuid.UUID) (*models.CouponResponse, error)
	DeleteCoupon(ctx context.Context, id uuid.UUID) error
	ListCoupons(ctx context.Context, filter models.ListCouponsFilter) ([]*models.CouponResponse, error)
}

type EventProducer interface {
	PublishCouponCreated(coupon *models.CouponResponse) error
	PublishCouponDeleted(couponID uuid.UUID) error
}

// ----- Rate limit -----

// MiddlewareLimiter описывает контракт для rate limiter.
type MiddlewareLimiter interface {
	Allow(ctx context.Context, client string) (services.RateDecision, error)
	Enabled() bool
}

// RateLimitStatusProvider расширяет интерфейс для эндпоинта статуса.
type RateLimitStatusProvider interface {
	MiddlewareLimiter
	Usage(ctx context.Context, client string) (services.RateUsage, error)
	Limit() int64
	Window() time.Duration
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
