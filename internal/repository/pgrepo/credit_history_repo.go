package pgrepo

import (
	"context"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/pkg/uow"
)

const creditEntryColumns = "id, created_at, account_id, entry_type, amount, description, payment_id, request_id, document_id"

type CreditHistoryRepository struct {
	conn uow.DBTX
}

func NewCreditHistoryRepository(conn uow.DBTX) *CreditHistoryRepository {
	return &CreditHistoryRepository{conn: conn}
}

func (c *CreditHistoryRepository) Create(
	ctx context.Context,
	entry repoargs.CreditEntryCreate,
) (*domain.CreditHistoryEntry, error) {
	row := c.conn.QueryRow(ctx, `
		INSERT INTO credit_history_entries (account_id, entry_type, amount, description, payment_id, request_id, document_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+creditEntryColumns,
		entry.AccountID, entry.Type, entry.Amount, entry.Description, entry.PaymentID, entry.RequestID, entry.DocumentID,
	)

	model, err := scanCreditEntry(row)
	if err != nil {
		return nil, convertErr(err, "creating credit history entry for account %d", entry.AccountID)
	}
	return model, nil
}

// GetByAccountID возвращает историю аккаунта, отсортированную по дате создания по убыванию.
func (c *CreditHistoryRepository) GetByAccountID(
	ctx context.Context,
	accountID int64,
) ([]domain.CreditHistoryEntry, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT `+creditEntryColumns+`
		FROM credit_history_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC`,
		accountID,
	)
	if err != nil {
		return nil, convertErr(err, "getting credit history for account %d", accountID)
	}
	defer rows.Close()

	var entries []domain.CreditHistoryEntry
	for rows.Next() {
		entry, scanErr := scanCreditEntry(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning credit history for account %d", accountID)
		}
		entries = append(entries, *entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "reading credit history for account %d", accountID)
	}
	return entries, nil
}

// SumByAccountID возвращает сумму всех записей аудита аккаунта. Инвариант: значение
// совпадает с accounts.credits.
func (c *CreditHistoryRepository) SumByAccountID(ctx context.Context, accountID int64) (int64, error) {
	var sum int64
	err := c.conn.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM credit_history_entries
		WHERE account_id = $1`,
		accountID,
	).Scan(&sum)
	if err != nil {
		return 0, convertErr(err, "summing credit history for account %d", accountID)
	}
	return sum, nil
}

func scanCreditEntry(row rowScanner) (*domain.CreditHistoryEntry, error) {
	var entry domain.CreditHistoryEntry
	if err := row.Scan(
		&entry.ID,
		&entry.CreatedAt,
		&entry.AccountID,
		&entry.Type,
		&entry.Amount,
		&entry.Description,
		&entry.PaymentID,
		&entry.RequestID,
		&entry.DocumentID,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &entry, nil
}
