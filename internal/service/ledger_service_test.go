package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/internal/service/mocks"
	"github.com/bizforge/grantpay/pkg/uow"
	uowmocks "github.com/bizforge/grantpay/pkg/uow/mocks"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockUOW         *uowmocks.MockUOW
	mockTX          *uowmocks.MockTX
	mockAccountRepo *mocks.MockAccountRepository
	mockHistoryRepo *mocks.MockCreditHistoryRepository
	service         *LedgerService
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockAccountRepo = mocks.NewMockAccountRepository(s.mockCtrl)
	s.mockHistoryRepo = mocks.NewMockCreditHistoryRepository(s.mockCtrl)

	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.AccountRepoName)).
		Return(s.mockAccountRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.CreditHistoryRepoName)).
		Return(s.mockHistoryRepo, nil).AnyTimes()

	var err error
	s.service, err = NewLedgerService(s.mockUOW)
	s.Require().NoError(err)
}

func (s *LedgerServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

// expectTxRepos настраивает выдачу репозиториев из транзакции и прозрачный проброс
// колбека через UOW.Do.
func (s *LedgerServiceTestSuite) expectTxRepos(times int) {
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.AccountRepoName)).
		Return(s.mockAccountRepo, nil).Times(times)
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.CreditHistoryRepoName)).
		Return(s.mockHistoryRepo, nil).Times(times)
	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(s.T().Context(), s.mockTX)
		},
	).Times(times)
}

func (s *LedgerServiceTestSuite) TestGetBalance() {
	account := domain.Account{ID: 123, Credits: 42}

	s.mockAccountRepo.EXPECT().Ensure(gomock.Any(), account.ID).Return(&account, nil)
	s.mockHistoryRepo.EXPECT().SumByAccountID(gomock.Any(), account.ID).Return(account.Credits, nil)

	balance, err := s.service.GetBalance(s.T().Context(), account.ID)
	s.Require().NoError(err)

	s.Equal(account.ID, balance.AccountID)
	s.Equal(account.Credits, balance.Credits)
	// инвариант: сумма записей истории равна балансу.
	s.Equal(balance.Credits, balance.HistoryTotal)
}

func (s *LedgerServiceTestSuite) TestApplyDelta() {
	const accountID int64 = 77

	cases := []struct {
		wantErr     error
		name        string
		entryType   domain.EntryType
		amount      int64
		current     int64
		wantBalance int64
		wantEntry   bool
	}{
		{name: "grant", entryType: domain.EntryTypePurchase, amount: 5, current: 10, wantBalance: 15, wantEntry: true},
		{name: "spend", entryType: domain.EntryTypeUse, amount: -10, current: 10, wantBalance: 0, wantEntry: true},
		{
			name:      "spend below zero",
			entryType: domain.EntryTypeUse,
			amount:    -11,
			current:   10,
			wantErr:   domain.ErrInsufficientCredits,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			s.expectTxRepos(1)
			s.mockAccountRepo.EXPECT().Ensure(gomock.Any(), accountID).
				Return(&domain.Account{ID: accountID, Credits: t.current}, nil)

			if t.wantEntry {
				s.mockAccountRepo.EXPECT().SetCredits(gomock.Any(), accountID, t.wantBalance).
					Return(&domain.Account{ID: accountID, Credits: t.wantBalance}, nil)
				s.mockHistoryRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, args repoargs.CreditEntryCreate) (*domain.CreditHistoryEntry, error) {
						// убеждаемся что запись аудита зеркалит дельту.
						s.Equal(accountID, args.AccountID)
						s.Equal(t.entryType, args.Type)
						s.Equal(t.amount, args.Amount)
						return &domain.CreditHistoryEntry{ID: 1, AccountID: accountID, Type: args.Type, Amount: args.Amount}, nil
					})
			}

			newBalance, err := s.service.ApplyDelta(s.T().Context(), ApplyDeltaArgs{
				AccountID:   accountID,
				Amount:      t.amount,
				Type:        t.entryType,
				Description: "test delta",
			})
			if t.wantErr != nil {
				s.Require().ErrorIs(err, t.wantErr)
				return
			}
			s.Require().NoError(err)
			s.Equal(t.wantBalance, newBalance)
		})
	}
}

// TestApplyDelta_SignMismatch дельта с неверным знаком отклоняется до открытия транзакции.
func (s *LedgerServiceTestSuite) TestApplyDelta_SignMismatch() {
	cases := []struct {
		name      string
		entryType domain.EntryType
		amount    int64
	}{
		{name: "purchase negative", entryType: domain.EntryTypePurchase, amount: -1},
		{name: "use positive", entryType: domain.EntryTypeUse, amount: 1},
		{name: "unknown type", entryType: domain.EntryType("bogus"), amount: 1},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			_, err := s.service.ApplyDelta(s.T().Context(), ApplyDeltaArgs{
				AccountID: 1,
				Amount:    t.amount,
				Type:      t.entryType,
			})
			s.Require().ErrorIs(err, domain.ErrInvalidAmount)
		})
	}
}

func (s *LedgerServiceTestSuite) TestSetCredits() {
	const accountID int64 = 55

	cases := []struct {
		name      string
		current   int64
		target    int64
		wantDiff  int64
		wantType  domain.EntryType
		wantEntry bool
	}{
		{name: "raise", current: 10, target: 25, wantDiff: 15, wantType: domain.EntryTypePurchase, wantEntry: true},
		{name: "lower", current: 25, target: 10, wantDiff: -15, wantType: domain.EntryTypeUse, wantEntry: true},
		{name: "no-op", current: 10, target: 10, wantEntry: false},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			s.expectTxRepos(1)
			s.mockAccountRepo.EXPECT().Ensure(gomock.Any(), accountID).
				Return(&domain.Account{ID: accountID, Credits: t.current}, nil)

			if t.wantEntry {
				s.mockAccountRepo.EXPECT().SetCredits(gomock.Any(), accountID, t.target).
					Return(&domain.Account{ID: accountID, Credits: t.target}, nil)
				s.mockHistoryRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, args repoargs.CreditEntryCreate) (*domain.CreditHistoryEntry, error) {
						// в историю попадает дельта, а не абсолютное значение.
						s.Equal(t.wantDiff, args.Amount)
						s.Equal(t.wantType, args.Type)
						return &domain.CreditHistoryEntry{ID: 1, AccountID: accountID, Type: args.Type, Amount: args.Amount}, nil
					})
			}

			newBalance, err := s.service.SetCredits(s.T().Context(), accountID, t.target, "override")
			s.Require().NoError(err)
			s.Equal(t.target, newBalance)
		})
	}
}

func (s *LedgerServiceTestSuite) TestSetCredits_NegativeTarget() {
	_, err := s.service.SetCredits(s.T().Context(), 1, -5, "override")
	s.Require().ErrorIs(err, domain.ErrInvalidAmount)
}
