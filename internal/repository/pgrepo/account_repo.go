package pgrepo

import (
	"context"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/pkg/uow"
)

const accountColumns = "id, created_at, updated_at, credits"

type AccountRepository struct {
	conn uow.DBTX
}

func NewAccountRepository(conn uow.DBTX) *AccountRepository {
	return &AccountRepository{conn: conn}
}

// Ensure создает аккаунт с нулевым балансом, если его еще нет, и возвращает актуальную строку.
// Внутри транзакции upsert берет блокировку строки до конца транзакции, - на этом держится
// сериализация конкурентных мутаций баланса одного аккаунта.
func (a *AccountRepository) Ensure(ctx context.Context, accountID int64) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx, `
		INSERT INTO accounts (id, credits)
		VALUES ($1, 0)
		ON CONFLICT (id) DO UPDATE SET updated_at = now()
		RETURNING `+accountColumns,
		accountID,
	)

	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "ensuring account with id %d", accountID)
	}
	return account, nil
}

func (a *AccountRepository) Get(ctx context.Context, accountID int64) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)

	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "getting account with id %d", accountID)
	}
	return account, nil
}

// SetCredits выставляет абсолютное значение баланса. Вызывается только под блокировкой
// строки, взятой ранее через Ensure в той же транзакции.
func (a *AccountRepository) SetCredits(ctx context.Context, accountID int64, credits int64) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx, `
		UPDATE accounts SET credits = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		accountID, credits,
	)

	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "updating credits for account with id %d", accountID)
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt, &account.Credits); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &account, nil
}
