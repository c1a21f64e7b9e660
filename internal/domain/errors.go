package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknown        = errors.New("unknown error")

	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidProduct      = errors.New("invalid product")
	ErrAlreadyProcessed    = errors.New("already processed")
	ErrAmountMismatch      = errors.New("amount mismatch")
	ErrBelowMinimum        = errors.New("amount below minimum")
	ErrGatewayDeclined     = errors.New("gateway declined")
)

// CouponValidationError возвращается валидатором купонов. Reason содержит первую
// не пройденную проверку (проверки выполняются по порядку и обрываются на первой неудаче).
type CouponValidationError struct {
	Code   string
	Reason CouponFailReason
}

func NewCouponValidationError(code string, reason CouponFailReason) error {
	return &CouponValidationError{Code: code, Reason: reason}
}

func (e *CouponValidationError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("coupon is not applicable: %s", e.Reason)
	}
	return fmt.Sprintf("coupon %q is not applicable: %s", e.Code, e.Reason)
}
