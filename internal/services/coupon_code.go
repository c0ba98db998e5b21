package services

import (
	"strings"

	"coupon-service/internal/apperror"
)

const (
	// CouponCodeLength длина кода купона после нормализации.
	CouponCodeLength = 6

	// ErrMsgInvalidCodeLength текст нарушения правила длины кода.
	ErrMsgInvalidCodeLength = "coupon code must have exactly 6 alphanumeric characters after normalization"
)

// NormalizeCode удаляет все символы кроме ASCII-букв и цифр и переводит
// результат в верхний регистр. nil нормализуется в пустую строку.
func NormalizeCode(raw *string) string {
	if raw == nil {
		return ""
	}
	return NormalizeCodeString(*raw)
}

// NormalizeCodeString то же, что NormalizeCode, для непустого значения.
func NormalizeCodeString(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case ch >= 'a' && ch <= 'z':
			b.WriteByte(ch - 'a' + 'A')
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// ValidateCodeLength проверяет, что нормализованный код ровно из 6 символов.
func ValidateCodeLength(code string) error {
	if len(code) != CouponCodeLength {
		return apperror.BusinessRule(ErrMsgInvalidCodeLength, nil)
	}
	return nil
}
