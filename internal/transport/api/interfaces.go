package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/service"
)

// LedgerServicer интерфейс исключительно для моков.
type LedgerServicer interface {
	GetBalance(ctx context.Context, accountID int64) (*service.AccountBalance, error)
	History(ctx context.Context, accountID int64) ([]domain.CreditHistoryEntry, error)
	SetCredits(ctx context.Context, accountID int64, target int64, description string) (int64, error)
}

type CouponServicer interface {
	Validate(ctx context.Context, code string) (*domain.Coupon, error)
}

type PaymentServicer interface {
	Create(ctx context.Context, args service.CreatePaymentArgs) (*domain.Payment, error)
	Confirm(ctx context.Context, args service.ConfirmPaymentArgs) (*service.ConfirmedPayment, error)
	GetByAccountID(ctx context.Context, accountID int64) ([]domain.Payment, error)
}

type DepositServicer interface {
	Submit(ctx context.Context, args service.SubmitDepositArgs) (*domain.PaymentRequest, error)
	Approve(ctx context.Context, args service.ApproveDepositArgs) (*service.ApprovedDeposit, error)
	Reject(ctx context.Context, args service.RejectDepositArgs) (*domain.PaymentRequest, error)
	GetByAccountID(ctx context.Context, accountID int64) ([]domain.PaymentRequest, error)
	GetPending(ctx context.Context) ([]domain.PaymentRequest, error)
}
