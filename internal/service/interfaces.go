package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type AccountRepository interface {
	Ensure(ctx context.Context, accountID int64) (*domain.Account, error)
	Get(ctx context.Context, accountID int64) (*domain.Account, error)
	SetCredits(ctx context.Context, accountID int64, credits int64) (*domain.Account, error)
}

type CreditHistoryRepository interface {
	Create(ctx context.Context, entry repoargs.CreditEntryCreate) (*domain.CreditHistoryEntry, error)
	GetByAccountID(ctx context.Context, accountID int64) ([]domain.CreditHistoryEntry, error)
	SumByAccountID(ctx context.Context, accountID int64) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment repoargs.PaymentCreate) (*domain.Payment, error)
	FindByOrderID(ctx context.Context, accountID int64, orderID string) (*domain.Payment, error)
	LockByOrderID(ctx context.Context, accountID int64, orderID string) (*domain.Payment, error)
	UpdateStatus(
		ctx context.Context,
		paymentID int64,
		status domain.PaymentStatusType,
		paymentMethod string,
		gatewayKey *string,
	) (*domain.Payment, error)
	GetByAccountID(ctx context.Context, accountID int64) ([]domain.Payment, error)
}

type PaymentRequestRepository interface {
	Create(ctx context.Context, request repoargs.PaymentRequestCreate) (*domain.PaymentRequest, error)
	LockByID(ctx context.Context, requestID int64) (*domain.PaymentRequest, error)
	UpdateStatus(
		ctx context.Context,
		requestID int64,
		status domain.RequestStatusType,
		creditsToGrant int64,
		adminNote *string,
	) (*domain.PaymentRequest, error)
	GetByAccountID(ctx context.Context, accountID int64) ([]domain.PaymentRequest, error)
	GetPending(ctx context.Context, limit uint) ([]domain.PaymentRequest, error)
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Redeem(ctx context.Context, args repoargs.CouponRedeem) (*domain.Coupon, error)
}

// PaymentGateway порт внешнего платежного шлюза. Вызов не идемпотентен, поэтому выполняется
// строго до открытия транзакции, фиксирующей результат.
type PaymentGateway interface {
	Confirm(
		ctx context.Context,
		orderID string,
		amount decimal.Decimal,
		transactionRef string,
	) (*domain.GatewayConfirmation, error)
}
