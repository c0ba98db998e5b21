package handlers

import (
	"strings"
	"time"

	"coupon-service/internal/apperror"
	"coupon-service/internal/models"

	"github.com/shopspring/decimal"
)

const validationFailedMessage = "request validation failed"

var minDiscountValue = decimal.RequireFromString("0.5")

// validateCreateCouponRequest проверяет поля запроса до вызова сервиса и
// возвращает все нарушения сразу.
func validateCreateCouponRequest(req *models.CreateCouponRequest, now time.Time) []apperror.FieldError {
	var fields []apperror.FieldError

	if req.Code == nil || strings.TrimSpace(*req.Code) == "" {
		fields = append(fields, apperror.FieldError{Field: "code", Message: "code is required"})
	}

	if strings.TrimSpace(req.Description) == "" {
		fields = append(fields, apperror.FieldError{Field: "description", Message: "description is required"})
	}

	switch {
	case req.DiscountValue == nil:
		fields = append(fields, apperror.FieldError{Field: "discountValue", Message: "discountValue is required"})
	case req.DiscountValue.LessThan(minDiscountValue):
		fields = append(fields, apperror.FieldError{Field: "discountValue", Message: "discountValue must be at least 0.5"})
	}

	switch {
	case req.ExpirationDate == nil:
		fields = append(fields, apperror.FieldError{Field: "expirationDate", Message: "expirationDate is required"})
	case !req.ExpirationDate.After(now):
		fields = append(fields, apperror.FieldError{Field: "expirationDate", Message: "expirationDate must be in the future"})
	}

	return fields
}
