package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizforge/grantpay/internal/catalog"
	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/pkg/uow"
)

const CouponContextPayment = "payment"

// PaymentService оркестрирует путь через платежный шлюз:
// создание pending платежа -> подтверждение шлюзом -> атомарная фиксация результата.
type PaymentService struct {
	uow         uow.UOW
	paymentRepo PaymentRepository
	couponRepo  CouponRepository
	accountRepo AccountRepository
	catalog     *catalog.Catalog
	gateway     PaymentGateway
}

func NewPaymentService(u uow.UOW, cat *catalog.Catalog, gw PaymentGateway) (*PaymentService, error) {
	paymentRepo, paymentRepoErr := uow.GetRepositoryAs[PaymentRepository](
		u, uow.RepositoryName(repoargs.PaymentRepoName))
	if paymentRepoErr != nil {
		return nil, paymentRepoErr
	}
	couponRepo, couponRepoErr := uow.GetRepositoryAs[CouponRepository](
		u, uow.RepositoryName(repoargs.CouponRepoName))
	if couponRepoErr != nil {
		return nil, couponRepoErr
	}
	accountRepo, accountRepoErr := uow.GetRepositoryAs[AccountRepository](
		u, uow.RepositoryName(repoargs.AccountRepoName))
	if accountRepoErr != nil {
		return nil, accountRepoErr
	}
	return &PaymentService{
		uow:         u,
		paymentRepo: paymentRepo,
		couponRepo:  couponRepo,
		accountRepo: accountRepo,
		catalog:     cat,
		gateway:     gw,
	}, nil
}

type CreatePaymentArgs struct {
	AccountID  int64
	ProductID  string
	CouponCode string
}

// Create создает pending платеж со свежим orderID. Ни баланс, ни счетчик купона не
// трогаются: купон проверяется спекулятивно ради снимка скидки.
// Ошибки: domain.ErrInvalidProduct, *domain.CouponValidationError.
func (s *PaymentService) Create(ctx context.Context, args CreatePaymentArgs) (*domain.Payment, error) {
	product, ok := s.catalog.Find(args.ProductID)
	if !ok {
		return nil, domain.ErrInvalidProduct
	}

	var couponID *int64
	discount := decimal.Zero
	if args.CouponCode != "" {
		coupon, couponErr := validateCoupon(ctx, s.couponRepo, args.CouponCode, time.Now())
		if couponErr != nil {
			return nil, couponErr
		}
		couponID = &coupon.ID
		discount = coupon.DiscountAmount
	}

	if _, ensureErr := s.accountRepo.Ensure(ctx, args.AccountID); ensureErr != nil {
		return nil, fmt.Errorf("creating payment: %w", ensureErr)
	}

	payment, createErr := s.paymentRepo.Create(ctx, repoargs.PaymentCreate{
		OrderID:        uuid.NewString(),
		AccountID:      args.AccountID,
		ProductID:      product.ID,
		Amount:         discountedAmount(product.Price, discount),
		OriginalAmount: product.Price,
		DiscountAmount: discount,
		CreditsToGrant: product.Credits,
		CouponID:       couponID,
	})
	if createErr != nil {
		return nil, fmt.Errorf("creating payment: %w", createErr)
	}
	return payment, nil
}

type ConfirmPaymentArgs struct {
	AccountID      int64
	OrderID        string
	TransactionRef string
	Amount         decimal.Decimal
}

type ConfirmedPayment struct {
	Payment    *domain.Payment
	NewBalance int64
}

// Confirm подтверждает pending платеж.
//
// Алгоритм работы:
//  1. Предпроверки по сохраненному платежу: существование, статус pending, совпадение суммы.
//  2. Вызов шлюза выполняется строго до открытия транзакции: зависший внешний вызов не должен
//     держать транзакцию. Транспортная ошибка оставляет платеж pending (Confirm можно
//     повторить); явный отказ шлюза переводит платеж в failed.
//  3. Атомарная фиксация: статус completed, погашение купона (если был), начисление
//     кредитов одним коммитом. Проверка статуса повторяется под блокировкой строки,
//     поэтому двойное подтверждение не может начислить кредиты дважды.
//
// Ошибки: domain.ErrRecordNotFound, domain.ErrAlreadyProcessed, domain.ErrAmountMismatch,
// domain.ErrGatewayDeclined.
func (s *PaymentService) Confirm(ctx context.Context, args ConfirmPaymentArgs) (*ConfirmedPayment, error) {
	payment, findErr := s.paymentRepo.FindByOrderID(ctx, args.AccountID, args.OrderID)
	if findErr != nil {
		return nil, findErr //nolint:wrapcheck
	}
	if payment.Status.Terminal() {
		return nil, domain.ErrAlreadyProcessed
	}
	if !payment.Amount.Equal(args.Amount) {
		return nil, domain.ErrAmountMismatch
	}

	confirmation, gwErr := s.gateway.Confirm(ctx, args.OrderID, payment.Amount, args.TransactionRef)
	if gwErr != nil {
		// транспортная ошибка: платеж остается pending, подтверждение можно повторить.
		return nil, fmt.Errorf("confirming payment with order id `%s`: %w", args.OrderID, gwErr)
	}

	if !confirmation.Accepted {
		if failErr := s.markFailed(ctx, args, confirmation.Method); failErr != nil {
			return nil, failErr
		}
		return nil, domain.ErrGatewayDeclined
	}

	result := &ConfirmedPayment{}
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		paymentRepo, paymentRepoErr := uow.GetAs[PaymentRepository](
			tx, uow.RepositoryName(repoargs.PaymentRepoName))
		if paymentRepoErr != nil {
			return paymentRepoErr //nolint:wrapcheck
		}

		locked, lockErr := paymentRepo.LockByOrderID(c, args.AccountID, args.OrderID)
		if lockErr != nil {
			return lockErr //nolint:wrapcheck
		}
		if locked.Status.Terminal() {
			return domain.ErrAlreadyProcessed
		}

		completed, updErr := paymentRepo.UpdateStatus(
			c, locked.ID, domain.PaymentStatusCompleted, confirmation.Method, &args.TransactionRef)
		if updErr != nil {
			return updErr //nolint:wrapcheck
		}
		result.Payment = completed

		if locked.CouponID != nil {
			if redeemErr := redeemCoupon(c, tx, repoargs.CouponRedeem{
				CouponID:  *locked.CouponID,
				AccountID: locked.AccountID,
				Context:   CouponContextPayment,
			}); redeemErr != nil {
				return redeemErr
			}
		}

		newBalance, deltaErr := applyDeltaTx(c, tx, ApplyDeltaArgs{
			AccountID:   locked.AccountID,
			Amount:      locked.CreditsToGrant,
			Type:        domain.EntryTypePurchase,
			Description: fmt.Sprintf("payment %s completed", locked.OrderID),
			PaymentID:   &locked.ID,
		})
		if deltaErr != nil {
			return deltaErr
		}
		result.NewBalance = newBalance
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("finalizing payment with order id `%s`: %w", args.OrderID, txErr)
	}
	return result, nil
}

func (s *PaymentService) GetByAccountID(ctx context.Context, accountID int64) ([]domain.Payment, error) {
	payments, err := s.paymentRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return payments, nil
}

// markFailed переводит платеж в failed после явного отказа шлюза. Проверка статуса
// повторяется под блокировкой: параллельный Confirm мог успеть завершить платеж.
func (s *PaymentService) markFailed(ctx context.Context, args ConfirmPaymentArgs, method string) error {
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		paymentRepo, paymentRepoErr := uow.GetAs[PaymentRepository](
			tx, uow.RepositoryName(repoargs.PaymentRepoName))
		if paymentRepoErr != nil {
			return paymentRepoErr //nolint:wrapcheck
		}
		locked, lockErr := paymentRepo.LockByOrderID(c, args.AccountID, args.OrderID)
		if lockErr != nil {
			return lockErr //nolint:wrapcheck
		}
		if locked.Status.Terminal() {
			return domain.ErrAlreadyProcessed
		}
		_, updErr := paymentRepo.UpdateStatus(
			c, locked.ID, domain.PaymentStatusFailed, method, &args.TransactionRef)
		return updErr //nolint:wrapcheck
	})
	if txErr != nil {
		return fmt.Errorf("marking payment with order id `%s` failed: %w", args.OrderID, txErr)
	}
	return nil
}
