package service

import (
	"context"
	"errors"
	"time"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/pkg/uow"
)

type CouponService struct {
	uow        uow.UOW
	couponRepo CouponRepository
}

func NewCouponService(u uow.UOW) (*CouponService, error) {
	couponRepo, couponRepoErr := uow.GetRepositoryAs[CouponRepository](
		u, uow.RepositoryName(repoargs.CouponRepoName))
	if couponRepoErr != nil {
		return nil, couponRepoErr
	}
	return &CouponService{
		uow:        u,
		couponRepo: couponRepo,
	}, nil
}

// Validate проверяет применимость купона без побочных эффектов: used_count не меняется,
// запись об использовании не создается. Погашение выполняется отдельной операцией (redeemCoupon),
// выполняемая только внутри транзакции сопутствующей мутации.
// При непригодном купоне возвращает *domain.CouponValidationError.
func (s *CouponService) Validate(ctx context.Context, code string) (*domain.Coupon, error) {
	return validateCoupon(ctx, s.couponRepo, code, time.Now())
}

// validateCoupon проверки по порядку с обрывом на первой неудаче:
// существование -> активность -> срок действия -> лимит использований.
func validateCoupon(
	ctx context.Context,
	repo CouponRepository,
	code string,
	now time.Time,
) (*domain.Coupon, error) {
	coupon, findErr := repo.FindByCode(ctx, code)
	if findErr != nil {
		if errors.Is(findErr, domain.ErrRecordNotFound) {
			return nil, domain.NewCouponValidationError(code, domain.CouponReasonNotFound)
		}
		return nil, findErr //nolint:wrapcheck
	}
	if !coupon.IsActive {
		return nil, domain.NewCouponValidationError(code, domain.CouponReasonInactive)
	}
	if !coupon.ExpiresAt.After(now) {
		return nil, domain.NewCouponValidationError(code, domain.CouponReasonExpired)
	}
	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return nil, domain.NewCouponValidationError(code, domain.CouponReasonExhaustedUses)
	}
	return coupon, nil
}

// redeemCoupon погашает купон внутри транзакции tx: инкремент used_count (с предикатом
// лимита в самом UPDATE) плюс запись coupon_usages. Из двух запросов, гонящихся за
// последним использованием, ровно один получит ошибку ExhaustedUses.
func redeemCoupon(ctx context.Context, tx uow.TX, args repoargs.CouponRedeem) error {
	couponRepo, couponRepoErr := uow.GetAs[CouponRepository](
		tx, uow.RepositoryName(repoargs.CouponRepoName))
	if couponRepoErr != nil {
		return couponRepoErr //nolint:wrapcheck
	}
	if _, redeemErr := couponRepo.Redeem(ctx, args); redeemErr != nil {
		return redeemErr //nolint:wrapcheck
	}
	return nil
}
