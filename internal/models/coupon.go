package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// discountValue отдаётся клиентам числом, а не строкой
	decimal.MarshalJSONWithoutQuotes = true
}

// CouponStatus описывает состояние купона.
type CouponStatus string

const (
	CouponStatusActive  CouponStatus = "ACTIVE"
	CouponStatusDeleted CouponStatus = "DELETED"
)

// ParseCouponStatus разбирает статус без учёта регистра.
func ParseCouponStatus(s string) (CouponStatus, bool) {
	switch CouponStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case CouponStatusActive:
		return CouponStatusActive, true
	case CouponStatusDeleted:
		return CouponStatusDeleted, true
	default:
		return "", false
	}
}

// ErrCouponAlreadyDeleted возвращается при повторном мягком удалении.
var ErrCouponAlreadyDeleted = errors.New("cannot delete an already-deleted coupon")

// Coupon представляет купон на скидку.
// Статус меняется только через MarkDeleted, физически запись не удаляется.
type Coupon struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Code           string          `json:"code" db:"code"`
	Description    string          `json:"description" db:"description"`
	DiscountValue  decimal.Decimal `json:"discount_value" db:"discount_value"`
	ExpirationDate time.Time       `json:"expiration_date" db:"expiration_date"`
	Published      bool            `json:"published" db:"published"`
	Redeemed       bool            `json:"redeemed" db:"redeemed"`
	Status         CouponStatus    `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// NewCouponParams содержит поля, задаваемые при создании купона.
// Code должен быть уже нормализован.
type NewCouponParams struct {
	Code           string
	Description    string
	DiscountValue  decimal.Decimal
	ExpirationDate time.Time
	Published      bool
}

// TimestampPrecision точность времени, которую хранит TIMESTAMPTZ.
const TimestampPrecision = time.Microsecond

// NewCoupon создаёт активный, не погашенный купон с новым идентификатором.
func NewCoupon(p NewCouponParams, now time.Time) *Coupon {
	return &Coupon{
		ID:             uuid.New(),
		Code:           p.Code,
		Description:    p.Description,
		DiscountValue:  p.DiscountValue,
		ExpirationDate: p.ExpirationDate.Truncate(TimestampPrecision),
		Published:      p.Published,
		Redeemed:       false,
		Status:         CouponStatusActive,
		CreatedAt:      now.Truncate(TimestampPrecision),
	}
}

// IsDeleted сообщает, удалён ли купон.
func (c *Coupon) IsDeleted() bool {
	return c.Status == CouponStatusDeleted
}

// MarkDeleted переводит купон ACTIVE -> DELETED и фиксирует время удаления.
// DELETED конечное состояние: повторный вызов возвращает ErrCouponAlreadyDeleted
// и не меняет купон.
func (c *Coupon) MarkDeleted(now time.Time) error {
	if c.IsDeleted() {
		return ErrCouponAlreadyDeleted
	}
	deletedAt := now.Truncate(TimestampPrecision)
	c.Status = CouponStatusDeleted
	c.DeletedAt = &deletedAt
	return nil
}

// CreateCouponRequest описывает запрос на создание купона.
// Указатели позволяют отличить отсутствующее поле от нулевого значения.
type CreateCouponRequest struct {
	Code           *string          `json:"code"`
	Description    string           `json:"description"`
	DiscountValue  *decimal.Decimal `json:"discountValue"`
	ExpirationDate *time.Time       `json:"expirationDate"`
	Published      *bool            `json:"published,omitempty"`
}

// CouponResponse представление купона для клиентов API.
type CouponResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Description    string          `json:"description"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	ExpirationDate time.Time       `json:"expirationDate"`
	Published      bool            `json:"published"`
	Redeemed       bool            `json:"redeemed"`
	Status         CouponStatus    `json:"status"`
}

// ListCouponsFilter задаёт выборку списка купонов.
type ListCouponsFilter struct {
	Status *CouponStatus
	Limit  int
	Offset int
}
