package service

import (
	"context"
	"fmt"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/pkg/uow"
)

// LedgerService единственная точка мутации баланса. Каждая мутация, - атомарная пара
// "обновление accounts.credits + запись credit_history_entries"; сумма записей аккаунта
// всегда равна его балансу.
type LedgerService struct {
	uow         uow.UOW
	accountRepo AccountRepository
	historyRepo CreditHistoryRepository
}

func NewLedgerService(u uow.UOW) (*LedgerService, error) {
	accountRepo, accountRepoErr := uow.GetRepositoryAs[AccountRepository](
		u, uow.RepositoryName(repoargs.AccountRepoName))
	if accountRepoErr != nil {
		return nil, accountRepoErr
	}
	historyRepo, historyRepoErr := uow.GetRepositoryAs[CreditHistoryRepository](
		u, uow.RepositoryName(repoargs.CreditHistoryRepoName))
	if historyRepoErr != nil {
		return nil, historyRepoErr
	}
	return &LedgerService{
		uow:         u,
		accountRepo: accountRepo,
		historyRepo: historyRepo,
	}, nil
}

type ApplyDeltaArgs struct {
	AccountID   int64
	Amount      int64
	Type        domain.EntryType
	Description string
	PaymentID   *int64
	RequestID   *int64
	DocumentID  *int64
}

// ApplyDelta применяет дельту к балансу аккаунта.
//
// Предусловия:
//   - знак Amount соответствует Type, иначе domain.ErrInvalidAmount;
//   - для отрицательной дельты баланс не может уйти ниже нуля, иначе domain.ErrInsufficientCredits
//     (ни баланс, ни история при этом не меняются).
func (s *LedgerService) ApplyDelta(ctx context.Context, args ApplyDeltaArgs) (int64, error) {
	if err := checkDeltaSign(args.Type, args.Amount); err != nil {
		return 0, err
	}

	var newBalance int64
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		var deltaErr error
		newBalance, deltaErr = applyDeltaTx(c, tx, args)
		return deltaErr
	})
	if txErr != nil {
		return 0, fmt.Errorf("applying credit delta: %w", txErr)
	}
	return newBalance, nil
}

type AccountBalance struct {
	AccountID    int64
	Credits      int64
	HistoryTotal int64
}

// GetBalance возвращает баланс аккаунта вместе с суммой записей истории. Аккаунт создается
// при первом обращении.
func (s *LedgerService) GetBalance(ctx context.Context, accountID int64) (*AccountBalance, error) {
	account, accountErr := s.accountRepo.Ensure(ctx, accountID)
	if accountErr != nil {
		return nil, accountErr //nolint:wrapcheck
	}
	total, sumErr := s.historyRepo.SumByAccountID(ctx, accountID)
	if sumErr != nil {
		return nil, sumErr //nolint:wrapcheck
	}
	return &AccountBalance{
		AccountID:    account.ID,
		Credits:      account.Credits,
		HistoryTotal: total,
	}, nil
}

func (s *LedgerService) History(ctx context.Context, accountID int64) ([]domain.CreditHistoryEntry, error) {
	entries, err := s.historyRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return entries, nil
}

// SetCredits административная установка абсолютного значения баланса. Пишет в историю
// дельту diff = target - current; обычное предусловие "не уйти ниже нуля" здесь не
// применяется, но отрицательный target запрещен.
func (s *LedgerService) SetCredits(
	ctx context.Context,
	accountID int64,
	target int64,
	description string,
) (int64, error) {
	if target < 0 {
		return 0, domain.ErrInvalidAmount
	}

	var newBalance int64
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		accountRepo, accountRepoErr := uow.GetAs[AccountRepository](
			tx, uow.RepositoryName(repoargs.AccountRepoName))
		if accountRepoErr != nil {
			return accountRepoErr //nolint:wrapcheck
		}
		historyRepo, historyRepoErr := uow.GetAs[CreditHistoryRepository](
			tx, uow.RepositoryName(repoargs.CreditHistoryRepoName))
		if historyRepoErr != nil {
			return historyRepoErr //nolint:wrapcheck
		}

		// upsert берет блокировку строки аккаунта до конца транзакции.
		account, ensureErr := accountRepo.Ensure(c, accountID)
		if ensureErr != nil {
			return ensureErr //nolint:wrapcheck
		}

		diff := target - account.Credits
		newBalance = account.Credits
		if diff == 0 {
			return nil
		}

		updated, setErr := accountRepo.SetCredits(c, accountID, target)
		if setErr != nil {
			return setErr //nolint:wrapcheck
		}
		newBalance = updated.Credits

		entryType := domain.EntryTypePurchase
		if diff < 0 {
			entryType = domain.EntryTypeUse
		}
		if _, entryErr := historyRepo.Create(c, repoargs.CreditEntryCreate{
			AccountID:   accountID,
			Type:        entryType,
			Amount:      diff,
			Description: description,
		}); entryErr != nil {
			return entryErr //nolint:wrapcheck
		}
		return nil
	})
	if txErr != nil {
		return 0, fmt.Errorf("overriding credits: %w", txErr)
	}
	return newBalance, nil
}

// applyDeltaTx атомарная пара "баланс + запись аудита" внутри уже открытой транзакции.
// Используется и платежными сервисами: переход платежа в терминальный статус, погашение
// купона и начисление кредитов фиксируются одним коммитом.
func applyDeltaTx(ctx context.Context, tx uow.TX, args ApplyDeltaArgs) (int64, error) {
	accountRepo, accountRepoErr := uow.GetAs[AccountRepository](
		tx, uow.RepositoryName(repoargs.AccountRepoName))
	if accountRepoErr != nil {
		return 0, accountRepoErr //nolint:wrapcheck
	}
	historyRepo, historyRepoErr := uow.GetAs[CreditHistoryRepository](
		tx, uow.RepositoryName(repoargs.CreditHistoryRepoName))
	if historyRepoErr != nil {
		return 0, historyRepoErr //nolint:wrapcheck
	}

	// upsert берет блокировку строки аккаунта: конкурентные дельты по одному аккаунту
	// сериализуются и не могут прочитать один и тот же стартовый баланс.
	account, ensureErr := accountRepo.Ensure(ctx, args.AccountID)
	if ensureErr != nil {
		return 0, ensureErr //nolint:wrapcheck
	}

	newBalance := account.Credits + args.Amount
	if newBalance < 0 {
		return 0, domain.ErrInsufficientCredits
	}

	if _, setErr := accountRepo.SetCredits(ctx, args.AccountID, newBalance); setErr != nil {
		return 0, setErr //nolint:wrapcheck
	}

	if _, entryErr := historyRepo.Create(ctx, repoargs.CreditEntryCreate{
		AccountID:   args.AccountID,
		Type:        args.Type,
		Amount:      args.Amount,
		Description: args.Description,
		PaymentID:   args.PaymentID,
		RequestID:   args.RequestID,
		DocumentID:  args.DocumentID,
	}); entryErr != nil {
		return 0, entryErr //nolint:wrapcheck
	}

	return newBalance, nil
}

func checkDeltaSign(entryType domain.EntryType, amount int64) error {
	switch entryType {
	case domain.EntryTypePurchase:
		if amount < 0 {
			return domain.ErrInvalidAmount
		}
	case domain.EntryTypeUse:
		if amount > 0 {
			return domain.ErrInvalidAmount
		}
	default:
		return domain.ErrInvalidAmount
	}
	return nil
}
