package services

import (
	"time"

	"coupon-service/internal/models"

	"github.com/shopspring/decimal"
)

// CouponMapper переводит запросы в сущности и сущности в ответы API.
type CouponMapper interface {
	ToEntity(req *models.CreateCouponRequest, code string, now time.Time) *models.Coupon
	ToResponse(coupon *models.Coupon) *models.CouponResponse
}

type couponMapper struct{}

// NewCouponMapper возвращает маппер по умолчанию.
func NewCouponMapper() CouponMapper {
	return couponMapper{}
}

// ToEntity собирает новый купон; published по умолчанию false.
func (couponMapper) ToEntity(req *models.CreateCouponRequest, code string, now time.Time) *models.Coupon {
	params := models.NewCouponParams{
		Code:        code,
		Description: req.Description,
	}
	if req.DiscountValue != nil {
		params.DiscountValue = *req.DiscountValue
	} else {
		params.DiscountValue = decimal.Zero
	}
	if req.ExpirationDate != nil {
		params.ExpirationDate = req.ExpirationDate.UTC().Truncate(models.TimestampPrecision)
	}
	if req.Published != nil {
		params.Published = *req.Published
	}
	return models.NewCoupon(params, now)
}

func (couponMapper) ToResponse(c *models.Coupon) *models.CouponResponse {
	return &models.CouponResponse{
		ID:             c.ID,
		Code:           c.Code,
		Description:    c.Description,
		DiscountValue:  c.DiscountValue,
		ExpirationDate: c.ExpirationDate,
		Published:      c.Published,
		Redeemed:       c.Redeemed,
		Status:         c.Status,
	}
}
