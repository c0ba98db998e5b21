package repository

import (
	"context"
	"errors"

	"coupon-service/internal/models"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

// CouponRepository хранит купоны. Реализации обязаны обеспечивать
// уникальность кода на уровне хранилища.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	// FindByIDForUpdate блокирует строку до конца транзакции WithinTx.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	UpdateStatus(ctx context.Context, coupon *models.Coupon) error
	List(ctx context.Context, filter models.ListCouponsFilter) ([]*models.Coupon, error)
	// WithinTx выполняет fn в одной транзакции; ошибка fn откатывает её.
	WithinTx(ctx context.Context, fn func(repo CouponRepository) error) error
}
