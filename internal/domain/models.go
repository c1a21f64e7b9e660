package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Credits   int64
}

// CreditHistoryEntry неизменяемая запись аудита баланса. На каждую мутацию Credits
// приходится ровно одна запись; сумма Amount по аккаунту всегда равна текущему балансу.
type CreditHistoryEntry struct {
	ID          int64
	CreatedAt   time.Time
	AccountID   int64
	Type        EntryType
	Amount      int64
	Description string
	PaymentID   *int64
	RequestID   *int64
	DocumentID  *int64
}

type Payment struct {
	ID             int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	OrderID        string
	AccountID      int64
	ProductID      string
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	CreditsToGrant int64
	Status         PaymentStatusType
	PaymentMethod  string
	GatewayKey     *string
	CouponID       *int64
}

type PaymentRequest struct {
	ID             int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AccountID      int64
	ProductID      string
	DepositorName  string
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	CouponID       *int64
	CreditsToGrant int64
	Status         RequestStatusType
	AdminNote      *string
}

type Coupon struct {
	ID             int64
	CreatedAt      time.Time
	Code           string
	DiscountAmount decimal.Decimal
	ExpiresAt      time.Time
	MaxUses        *int32
	UsedCount      int32
	IsActive       bool
}

type CouponUsage struct {
	ID        int64
	CouponID  int64
	AccountID int64
	Context   string
	UsedAt    time.Time
}
