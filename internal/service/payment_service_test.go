package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/bizforge/grantpay/internal/catalog"
	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/internal/service/mocks"
	"github.com/bizforge/grantpay/pkg/uow"
	uowmocks "github.com/bizforge/grantpay/pkg/uow/mocks"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockUOW         *uowmocks.MockUOW
	mockTX          *uowmocks.MockTX
	mockPaymentRepo *mocks.MockPaymentRepository
	mockCouponRepo  *mocks.MockCouponRepository
	mockAccountRepo *mocks.MockAccountRepository
	mockHistoryRepo *mocks.MockCreditHistoryRepository
	mockGateway     *mocks.MockPaymentGateway
	service         *PaymentService
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockPaymentRepo = mocks.NewMockPaymentRepository(s.mockCtrl)
	s.mockCouponRepo = mocks.NewMockCouponRepository(s.mockCtrl)
	s.mockAccountRepo = mocks.NewMockAccountRepository(s.mockCtrl)
	s.mockHistoryRepo = mocks.NewMockCreditHistoryRepository(s.mockCtrl)
	s.mockGateway = mocks.NewMockPaymentGateway(s.mockCtrl)

	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.PaymentRepoName)).
		Return(s.mockPaymentRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.CouponRepoName)).
		Return(s.mockCouponRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.AccountRepoName)).
		Return(s.mockAccountRepo, nil).AnyTimes()

	var err error
	s.service, err = NewPaymentService(s.mockUOW, catalog.Default(), s.mockGateway)
	s.Require().NoError(err)
}

func (s *PaymentServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *PaymentServiceTestSuite) expectTx() {
	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(s.T().Context(), s.mockTX)
		},
	)
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.PaymentRepoName)).
		Return(s.mockPaymentRepo, nil).AnyTimes()
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.CouponRepoName)).
		Return(s.mockCouponRepo, nil).AnyTimes()
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.AccountRepoName)).
		Return(s.mockAccountRepo, nil).AnyTimes()
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.CreditHistoryRepoName)).
		Return(s.mockHistoryRepo, nil).AnyTimes()
}

func (s *PaymentServiceTestSuite) pendingPayment() *domain.Payment {
	return &domain.Payment{
		ID:             10,
		OrderID:        "6f1f9a5e-0000-4000-8000-000000000001",
		AccountID:      123,
		ProductID:      "basic",
		Amount:         decimal.NewFromInt(40000),
		OriginalAmount: decimal.NewFromInt(50000),
		DiscountAmount: decimal.NewFromInt(10000),
		CreditsToGrant: 3,
		Status:         domain.PaymentStatusPending,
	}
}

func (s *PaymentServiceTestSuite) TestCreate() {
	const accountID int64 = 123

	s.mockAccountRepo.EXPECT().Ensure(gomock.Any(), accountID).
		Return(&domain.Account{ID: accountID}, nil)
	s.mockPaymentRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.PaymentCreate) (*domain.Payment, error) {
			s.Equal(accountID, args.AccountID)
			s.Equal("basic", args.ProductID)
			s.NotEmpty(args.OrderID)
			s.True(args.Amount.Equal(decimal.NewFromInt(50000)))
			s.True(args.DiscountAmount.IsZero())
			s.Equal(int64(3), args.CreditsToGrant)
			s.Nil(args.CouponID)
			return &domain.Payment{ID: 1, OrderID: args.OrderID, Status: domain.PaymentStatusPending}, nil
		})

	payment, err := s.service.Create(s.T().Context(), CreatePaymentArgs{
		AccountID: accountID,
		ProductID: "basic",
	})
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPending, payment.Status)
}

func (s *PaymentServiceTestSuite) TestCreate_WithCoupon() {
	const accountID int64 = 123
	coupon := &domain.Coupon{
		ID:             7,
		Code:           "WELCOME10",
		DiscountAmount: decimal.NewFromInt(10000),
		ExpiresAt:      time.Now().Add(time.Hour),
		IsActive:       true,
	}

	s.mockCouponRepo.EXPECT().FindByCode(gomock.Any(), coupon.Code).Return(coupon, nil)
	s.mockAccountRepo.EXPECT().Ensure(gomock.Any(), accountID).
		Return(&domain.Account{ID: accountID}, nil)
	s.mockPaymentRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.PaymentCreate) (*domain.Payment, error) {
			// снимок скидки фиксируется на момент создания платежа.
			s.True(args.Amount.Equal(decimal.NewFromInt(40000)))
			s.True(args.OriginalAmount.Equal(decimal.NewFromInt(50000)))
			s.True(args.DiscountAmount.Equal(coupon.DiscountAmount))
			s.Require().NotNil(args.CouponID)
			s.Equal(coupon.ID, *args.CouponID)
			return &domain.Payment{ID: 1, OrderID: args.OrderID, Status: domain.PaymentStatusPending}, nil
		})

	_, err := s.service.Create(s.T().Context(), CreatePaymentArgs{
		AccountID:  accountID,
		ProductID:  "basic",
		CouponCode: coupon.Code,
	})
	s.Require().NoError(err)
}

func (s *PaymentServiceTestSuite) TestCreate_UnknownProduct() {
	_, err := s.service.Create(s.T().Context(), CreatePaymentArgs{
		AccountID: 123,
		ProductID: "no-such",
	})
	s.Require().ErrorIs(err, domain.ErrInvalidProduct)
}

func (s *PaymentServiceTestSuite) TestConfirm() {
	payment := s.pendingPayment()
	transactionRef := "bank-tx-001"

	s.mockPaymentRepo.EXPECT().FindByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	s.mockGateway.EXPECT().Confirm(gomock.Any(), payment.OrderID, payment.Amount, transactionRef).
		Return(&domain.GatewayConfirmation{Accepted: true, Method: "card"}, nil)

	s.expectTx()
	s.mockPaymentRepo.EXPECT().LockByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)

	completed := *payment
	completed.Status = domain.PaymentStatusCompleted
	s.mockPaymentRepo.EXPECT().
		UpdateStatus(gomock.Any(), payment.ID, domain.PaymentStatusCompleted, "card", &transactionRef).
		Return(&completed, nil)

	// начисление кредитов в той же транзакции.
	s.mockAccountRepo.EXPECT().Ensure(gomock.Any(), payment.AccountID).
		Return(&domain.Account{ID: payment.AccountID, Credits: 1}, nil)
	s.mockAccountRepo.EXPECT().SetCredits(gomock.Any(), payment.AccountID, int64(4)).
		Return(&domain.Account{ID: payment.AccountID, Credits: 4}, nil)
	s.mockHistoryRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreditEntryCreate) (*domain.CreditHistoryEntry, error) {
			s.Equal(domain.EntryTypePurchase, args.Type)
			s.Equal(payment.CreditsToGrant, args.Amount)
			s.Require().NotNil(args.PaymentID)
			s.Equal(payment.ID, *args.PaymentID)
			return &domain.CreditHistoryEntry{ID: 1}, nil
		})

	result, err := s.service.Confirm(s.T().Context(), ConfirmPaymentArgs{
		AccountID:      payment.AccountID,
		OrderID:        payment.OrderID,
		TransactionRef: transactionRef,
		Amount:         payment.Amount,
	})
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusCompleted, result.Payment.Status)
	s.Equal(int64(4), result.NewBalance)
}

func (s *PaymentServiceTestSuite) TestConfirm_RedeemsCoupon() {
	payment := s.pendingPayment()
	couponID := int64(7)
	payment.CouponID = &couponID
	transactionRef := "bank-tx-002"

	s.mockPaymentRepo.EXPECT().FindByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	s.mockGateway.EXPECT().Confirm(gomock.Any(), payment.OrderID, payment.Amount, transactionRef).
		Return(&domain.GatewayConfirmation{Accepted: true, Method: "card"}, nil)

	s.expectTx()
	s.mockPaymentRepo.EXPECT().LockByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	s.mockPaymentRepo.EXPECT().
		UpdateStatus(gomock.Any(), payment.ID, domain.PaymentStatusCompleted, "card", &transactionRef).
		Return(payment, nil)

	// купон гасится в контексте платежа той же транзакцией.
	s.mockCouponRepo.EXPECT().Redeem(gomock.Any(), repoargs.CouponRedeem{
		CouponID:  couponID,
		AccountID: payment.AccountID,
		Context:   CouponContextPayment,
	}).Return(&domain.Coupon{ID: couponID}, nil)

	s.mockAccountRepo.EXPECT().Ensure(gomock.Any(), payment.AccountID).
		Return(&domain.Account{ID: payment.AccountID, Credits: 0}, nil)
	s.mockAccountRepo.EXPECT().SetCredits(gomock.Any(), payment.AccountID, payment.CreditsToGrant).
		Return(&domain.Account{ID: payment.AccountID, Credits: payment.CreditsToGrant}, nil)
	s.mockHistoryRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&domain.CreditHistoryEntry{ID: 1}, nil)

	_, err := s.service.Confirm(s.T().Context(), ConfirmPaymentArgs{
		AccountID:      payment.AccountID,
		OrderID:        payment.OrderID,
		TransactionRef: transactionRef,
		Amount:         payment.Amount,
	})
	s.Require().NoError(err)
}

// TestConfirm_RedeemExhausted запрос, проигравший гонку за последнее использование купона,
// откатывает финализацию целиком: кредиты не начисляются, запись истории не создается.
func (s *PaymentServiceTestSuite) TestConfirm_RedeemExhausted() {
	payment := s.pendingPayment()
	couponID := int64(7)
	payment.CouponID = &couponID
	transactionRef := "bank-tx-007"

	s.mockPaymentRepo.EXPECT().FindByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	s.mockGateway.EXPECT().Confirm(gomock.Any(), payment.OrderID, payment.Amount, transactionRef).
		Return(&domain.GatewayConfirmation{Accepted: true, Method: "card"}, nil)

	s.expectTx()
	s.mockPaymentRepo.EXPECT().LockByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	s.mockPaymentRepo.EXPECT().
		UpdateStatus(gomock.Any(), payment.ID, domain.PaymentStatusCompleted, "card", &transactionRef).
		Return(payment, nil)
	s.mockCouponRepo.EXPECT().Redeem(gomock.Any(), repoargs.CouponRedeem{
		CouponID:  couponID,
		AccountID: payment.AccountID,
		Context:   CouponContextPayment,
	}).Return(nil, domain.NewCouponValidationError("", domain.CouponReasonExhaustedUses))
	// Ensure, SetCredits и история не ожидаются: любой их вызов провалит тест.

	_, err := s.service.Confirm(s.T().Context(), ConfirmPaymentArgs{
		AccountID:      payment.AccountID,
		OrderID:        payment.OrderID,
		TransactionRef: transactionRef,
		Amount:         payment.Amount,
	})
	var validationErr *domain.CouponValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Equal(domain.CouponReasonExhaustedUses, validationErr.Reason)
}

// TestConfirm_CompletedUnderLock параллельный Confirm завершил платеж между предпроверкой
// и транзакцией: повторная проверка статуса под блокировкой не дает начислить дважды.
func (s *PaymentServiceTestSuite) TestConfirm_CompletedUnderLock() {
	payment := s.pendingPayment()
	transactionRef := "bank-tx-008"

	s.mockPaymentRepo.EXPECT().FindByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	s.mockGateway.EXPECT().Confirm(gomock.Any(), payment.OrderID, payment.Amount, transactionRef).
		Return(&domain.GatewayConfirmation{Accepted: true, Method: "card"}, nil)

	s.expectTx()
	completed := *payment
	completed.Status = domain.PaymentStatusCompleted
	s.mockPaymentRepo.EXPECT().LockByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(&completed, nil)
	// UpdateStatus, SetCredits и история не ожидаются.

	_, err := s.service.Confirm(s.T().Context(), ConfirmPaymentArgs{
		AccountID:      payment.AccountID,
		OrderID:        payment.OrderID,
		TransactionRef: transactionRef,
		Amount:         payment.Amount,
	})
	s.Require().ErrorIs(err, domain.ErrAlreadyProcessed)
}

// TestConfirm_DeclinedAfterConcurrentComplete отказ шлюза по платежу, который параллельный
// Confirm уже успел завершить: повторная проверка под блокировкой не затирает completed.
func (s *PaymentServiceTestSuite) TestConfirm_DeclinedAfterConcurrentComplete() {
	payment := s.pendingPayment()
	transactionRef := "bank-tx-009"

	s.mockPaymentRepo.EXPECT().FindByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	s.mockGateway.EXPECT().Confirm(gomock.Any(), payment.OrderID, payment.Amount, transactionRef).
		Return(&domain.GatewayConfirmation{Accepted: false, Method: "card"}, nil)

	s.expectTx()
	completed := *payment
	completed.Status = domain.PaymentStatusCompleted
	s.mockPaymentRepo.EXPECT().LockByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(&completed, nil)
	// UpdateStatus не ожидается: статус failed не должен затереть completed.

	_, err := s.service.Confirm(s.T().Context(), ConfirmPaymentArgs{
		AccountID:      payment.AccountID,
		OrderID:        payment.OrderID,
		TransactionRef: transactionRef,
		Amount:         payment.Amount,
	})
	s.Require().ErrorIs(err, domain.ErrAlreadyProcessed)
}

// TestConfirm_AlreadyProcessed повторное подтверждение не доходит ни до шлюза, ни до баланса.
func (s *PaymentServiceTestSuite) TestConfirm_AlreadyProcessed() {
	payment := s.pendingPayment()
	payment.Status = domain.PaymentStatusCompleted

	s.mockPaymentRepo.EXPECT().FindByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)

	_, err := s.service.Confirm(s.T().Context(), ConfirmPaymentArgs{
		AccountID:      payment.AccountID,
		OrderID:        payment.OrderID,
		TransactionRef: "bank-tx-003",
		Amount:         payment.Amount,
	})
	s.Require().ErrorIs(err, domain.ErrAlreadyProcessed)
}

func (s *PaymentServiceTestSuite) TestConfirm_AmountMismatch() {
	payment := s.pendingPayment()

	s.mockPaymentRepo.EXPECT().FindByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)

	_, err := s.service.Confirm(s.T().Context(), ConfirmPaymentArgs{
		AccountID:      payment.AccountID,
		OrderID:        payment.OrderID,
		TransactionRef: "bank-tx-004",
		Amount:         payment.Amount.Add(decimal.NewFromInt(1)),
	})
	s.Require().ErrorIs(err, domain.ErrAmountMismatch)
}

// TestConfirm_GatewayDeclined явный отказ шлюза переводит платеж в failed без начислений.
func (s *PaymentServiceTestSuite) TestConfirm_GatewayDeclined() {
	payment := s.pendingPayment()
	transactionRef := "bank-tx-005"

	s.mockPaymentRepo.EXPECT().FindByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	s.mockGateway.EXPECT().Confirm(gomock.Any(), payment.OrderID, payment.Amount, transactionRef).
		Return(&domain.GatewayConfirmation{Accepted: false, Method: "card"}, nil)

	s.expectTx()
	s.mockPaymentRepo.EXPECT().LockByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	failed := *payment
	failed.Status = domain.PaymentStatusFailed
	s.mockPaymentRepo.EXPECT().
		UpdateStatus(gomock.Any(), payment.ID, domain.PaymentStatusFailed, "card", &transactionRef).
		Return(&failed, nil)

	_, err := s.service.Confirm(s.T().Context(), ConfirmPaymentArgs{
		AccountID:      payment.AccountID,
		OrderID:        payment.OrderID,
		TransactionRef: transactionRef,
		Amount:         payment.Amount,
	})
	s.Require().ErrorIs(err, domain.ErrGatewayDeclined)
}

// TestConfirm_GatewayTransportError транспортная ошибка не финализирует платеж: статус
// не меняется, подтверждение можно повторить.
func (s *PaymentServiceTestSuite) TestConfirm_GatewayTransportError() {
	payment := s.pendingPayment()
	transportErr := errors.New("connection refused")

	s.mockPaymentRepo.EXPECT().FindByOrderID(gomock.Any(), payment.AccountID, payment.OrderID).
		Return(payment, nil)
	s.mockGateway.EXPECT().Confirm(gomock.Any(), payment.OrderID, payment.Amount, "bank-tx-006").
		Return(nil, transportErr)
	// UpdateStatus не ожидается: любой вызов провалит тест.

	_, err := s.service.Confirm(s.T().Context(), ConfirmPaymentArgs{
		AccountID:      payment.AccountID,
		OrderID:        payment.OrderID,
		TransactionRef: "bank-tx-006",
		Amount:         payment.Amount,
	})
	s.Require().ErrorIs(err, transportErr)
}
