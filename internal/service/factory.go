package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bizforge/grantpay/internal/catalog"
	"github.com/bizforge/grantpay/pkg/uow"
)

type AppServices struct {
	LedgerService  *LedgerService
	CouponService  *CouponService
	PaymentService *PaymentService
	DepositService *DepositService
}

func Factory(
	unitOfWork uow.UOW,
	cat *catalog.Catalog,
	gw PaymentGateway,
	minDeposit decimal.Decimal,
) (*AppServices, error) {
	ledgerService, ledgerErr := NewLedgerService(unitOfWork)
	if ledgerErr != nil {
		return nil, fmt.Errorf("service factory: %s", ledgerErr.Error())
	}

	couponService, couponErr := NewCouponService(unitOfWork)
	if couponErr != nil {
		return nil, fmt.Errorf("service factory: %s", couponErr.Error())
	}

	paymentService, paymentErr := NewPaymentService(unitOfWork, cat, gw)
	if paymentErr != nil {
		return nil, fmt.Errorf("service factory: %s", paymentErr.Error())
	}

	depositService, depositErr := NewDepositService(unitOfWork, cat, minDeposit)
	if depositErr != nil {
		return nil, fmt.Errorf("service factory: %s", depositErr.Error())
	}

	return &AppServices{
		LedgerService:  ledgerService,
		CouponService:  couponService,
		PaymentService: paymentService,
		DepositService: depositService,
	}, nil
}
