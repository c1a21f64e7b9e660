package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizforge/grantpay/internal/catalog"
	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/pkg/uow"
)

const CouponContextDeposit = "deposit"

const defaultPendingLimit = 100

// DepositService путь ручного банковского перевода: заявка создается пользователем,
// переводится админом в approved или rejected. Кредиты начисляются и купон гасится
// только в момент одобрения: заявка, которую потом отклонят, не сжигает купон
// (та же схема "погашение только при успехе", что и у пути через шлюз).
type DepositService struct {
	uow         uow.UOW
	requestRepo PaymentRequestRepository
	couponRepo  CouponRepository
	accountRepo AccountRepository
	catalog     *catalog.Catalog
	minDeposit  decimal.Decimal
}

func NewDepositService(u uow.UOW, cat *catalog.Catalog, minDeposit decimal.Decimal) (*DepositService, error) {
	requestRepo, requestRepoErr := uow.GetRepositoryAs[PaymentRequestRepository](
		u, uow.RepositoryName(repoargs.PaymentRequestRepoName))
	if requestRepoErr != nil {
		return nil, requestRepoErr
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
	return &DepositService{
		uow:         u,
		requestRepo: requestRepo,
		couponRepo:  couponRepo,
		accountRepo: accountRepo,
		catalog:     cat,
		minDeposit:  minDeposit,
	}, nil
}

type SubmitDepositArgs struct {
	AccountID     int64
	ProductID     string
	DepositorName string
	CouponCode    string
}

// Submit создает pending заявку на ручной перевод. Купон проверяется спекулятивно,
// снимок скидки сохраняется в заявке; погашение откладывается до одобрения.
// Минимальная сумма проверяется по итоговой (пост-скидочной) сумме перевода.
// Ошибки: domain.ErrInvalidProduct, *domain.CouponValidationError, domain.ErrBelowMinimum.
func (s *DepositService) Submit(ctx context.Context, args SubmitDepositArgs) (*domain.PaymentRequest, error) {
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

	amount := discountedAmount(product.Price, discount)
	if amount.LessThan(s.minDeposit) {
		return nil, domain.ErrBelowMinimum
	}

	if _, ensureErr := s.accountRepo.Ensure(ctx, args.AccountID); ensureErr != nil {
		return nil, fmt.Errorf("submitting deposit request: %w", ensureErr)
	}

	request, createErr := s.requestRepo.Create(ctx, repoargs.PaymentRequestCreate{
		AccountID:      args.AccountID,
		ProductID:      product.ID,
		DepositorName:  args.DepositorName,
		Amount:         amount,
		OriginalAmount: product.Price,
		DiscountAmount: discount,
		CreditsToGrant: product.Credits,
		CouponID:       couponID,
	})
	if createErr != nil {
		return nil, fmt.Errorf("submitting deposit request: %w", createErr)
	}
	return request, nil
}

type ApproveDepositArgs struct {
	RequestID int64
	// CreditsOverride позволяет админу скорректировать начисляемые кредиты.
	CreditsOverride *int64
	AdminNote       *string
}

type ApprovedDeposit struct {
	Request    *domain.PaymentRequest
	NewBalance int64
}

// Approve одобряет pending заявку: статус approved, погашение купона (если был) и
// начисление кредитов выполняются одним коммитом. Проверка статуса идет под блокировкой
// строки заявки, повторное одобрение получает domain.ErrAlreadyProcessed.
func (s *DepositService) Approve(ctx context.Context, args ApproveDepositArgs) (*ApprovedDeposit, error) {
	if args.CreditsOverride != nil && *args.CreditsOverride < 0 {
		return nil, domain.ErrInvalidAmount
	}

	result := &ApprovedDeposit{}
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		requestRepo, requestRepoErr := uow.GetAs[PaymentRequestRepository](
			tx, uow.RepositoryName(repoargs.PaymentRequestRepoName))
		if requestRepoErr != nil {
			return requestRepoErr //nolint:wrapcheck
		}

		locked, lockErr := requestRepo.LockByID(c, args.RequestID)
		if lockErr != nil {
			return lockErr //nolint:wrapcheck
		}
		if locked.Status.Terminal() {
			return domain.ErrAlreadyProcessed
		}

		grant := locked.CreditsToGrant
		if args.CreditsOverride != nil {
			grant = *args.CreditsOverride
		}

		approved, updErr := requestRepo.UpdateStatus(
			c, locked.ID, domain.RequestStatusApproved, grant, args.AdminNote)
		if updErr != nil {
			return updErr //nolint:wrapcheck
		}
		result.Request = approved

		if locked.CouponID != nil {
			if redeemErr := redeemCoupon(c, tx, repoargs.CouponRedeem{
				CouponID:  *locked.CouponID,
				AccountID: locked.AccountID,
				Context:   CouponContextDeposit,
			}); redeemErr != nil {
				return redeemErr
			}
		}

		newBalance, deltaErr := applyDeltaTx(c, tx, ApplyDeltaArgs{
			AccountID:   locked.AccountID,
			Amount:      grant,
			Type:        domain.EntryTypePurchase,
			Description: fmt.Sprintf("manual transfer request %d approved", locked.ID),
			RequestID:   &locked.ID,
		})
		if deltaErr != nil {
			return deltaErr
		}
		result.NewBalance = newBalance
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("approving deposit request %d: %w", args.RequestID, txErr)
	}
	return result, nil
}

type RejectDepositArgs struct {
	RequestID int64
	AdminNote *string
}

// Reject отклоняет pending заявку. Баланс аккаунта не меняется, купон не гасится.
func (s *DepositService) Reject(ctx context.Context, args RejectDepositArgs) (*domain.PaymentRequest, error) {
	var rejected *domain.PaymentRequest
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		requestRepo, requestRepoErr := uow.GetAs[PaymentRequestRepository](
			tx, uow.RepositoryName(repoargs.PaymentRequestRepoName))
		if requestRepoErr != nil {
			return requestRepoErr //nolint:wrapcheck
		}

		locked, lockErr := requestRepo.LockByID(c, args.RequestID)
		if lockErr != nil {
			return lockErr //nolint:wrapcheck
		}
		if locked.Status.Terminal() {
			return domain.ErrAlreadyProcessed
		}

		var updErr error
		rejected, updErr = requestRepo.UpdateStatus(
			c, locked.ID, domain.RequestStatusRejected, locked.CreditsToGrant, args.AdminNote)
		return updErr //nolint:wrapcheck
	})
	if txErr != nil {
		return nil, fmt.Errorf("rejecting deposit request %d: %w", args.RequestID, txErr)
	}
	return rejected, nil
}

func (s *DepositService) GetByAccountID(ctx context.Context, accountID int64) ([]domain.PaymentRequest, error) {
	requests, err := s.requestRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return requests, nil
}

// GetPending возвращает очередь заявок на одобрение для админа.
func (s *DepositService) GetPending(ctx context.Context) ([]domain.PaymentRequest, error) {
	requests, err := s.requestRepo.GetPending(ctx, defaultPendingLimit)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return requests, nil
}
