package repoargs

import (
	"github.com/shopspring/decimal"
)

type PaymentCreate struct {
	OrderID        string
	AccountID      int64
	ProductID      string
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	CreditsToGrant int64
	CouponID       *int64
}

type PaymentRequestCreate struct {
	AccountID      int64
	ProductID      string
	DepositorName  string
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	CreditsToGrant int64
	CouponID       *int64
}
