package pgrepo

import (
	"context"
	"fmt"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/pkg/uow"
)

const paymentRequestColumns = `id, created_at, updated_at, account_id, product_id, depositor_name,
	amount, original_amount, discount_amount, coupon_id, credits_to_grant, status, admin_note`

type PaymentRequestRepository struct {
	conn uow.DBTX
}

func NewPaymentRequestRepository(conn uow.DBTX) *PaymentRequestRepository {
	return &PaymentRequestRepository{conn: conn}
}

func (p *PaymentRequestRepository) Create(
	ctx context.Context,
	request repoargs.PaymentRequestCreate,
) (*domain.PaymentRequest, error) {
	row := p.conn.QueryRow(ctx, `
		INSERT INTO payment_requests
			(account_id, product_id, depositor_name, amount, original_amount, discount_amount, coupon_id, credits_to_grant, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+paymentRequestColumns,
		request.AccountID, request.ProductID, request.DepositorName,
		request.Amount, request.OriginalAmount, request.DiscountAmount,
		request.CouponID, request.CreditsToGrant, domain.RequestStatusPending,
	)

	model, err := scanPaymentRequest(row)
	if err != nil {
		return nil, convertErr(err, "creating payment request for account %d", request.AccountID)
	}
	return model, nil
}

// LockByID читает заявку под блокировкой строки. Approve/Reject проверяют статус
// и переводят заявку в терминальное состояние только под этой блокировкой.
func (p *PaymentRequestRepository) LockByID(ctx context.Context, requestID int64) (*domain.PaymentRequest, error) {
	row := p.conn.QueryRow(ctx, `
		SELECT `+paymentRequestColumns+`
		FROM payment_requests
		WHERE id = $1
		FOR UPDATE`,
		requestID,
	)

	model, err := scanPaymentRequest(row)
	if err != nil {
		return nil, convertErr(err, "locking payment request with id %d", requestID)
	}
	return model, nil
}

func (p *PaymentRequestRepository) UpdateStatus(
	ctx context.Context,
	requestID int64,
	status domain.RequestStatusType,
	creditsToGrant int64,
	adminNote *string,
) (*domain.PaymentRequest, error) {
	row := p.conn.QueryRow(ctx, `
		UPDATE payment_requests
		SET status = $2, credits_to_grant = $3, admin_note = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+paymentRequestColumns,
		requestID, status, creditsToGrant, adminNote,
	)

	model, err := scanPaymentRequest(row)
	if err != nil {
		return nil, convertErr(err, "updating payment request with id %d", requestID)
	}
	return model, nil
}

func (p *PaymentRequestRepository) GetByAccountID(
	ctx context.Context,
	accountID int64,
) ([]domain.PaymentRequest, error) {
	rows, err := p.conn.Query(ctx, `
		SELECT `+paymentRequestColumns+`
		FROM payment_requests
		WHERE account_id = $1
		ORDER BY created_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, convertErr(err, "getting payment requests for account %d", accountID)
	}
	defer rows.Close()

	return collectPaymentRequests(rows, fmt.Sprintf("payment requests for account %d", accountID))
}

// GetPending возвращает очередь заявок на ручное одобрение, старые первыми.
func (p *PaymentRequestRepository) GetPending(ctx context.Context, limit uint) ([]domain.PaymentRequest, error) {
	rows, err := p.conn.Query(ctx, `
		SELECT `+paymentRequestColumns+`
		FROM payment_requests
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`,
		domain.RequestStatusPending, int64(limit),
	)
	if err != nil {
		return nil, convertErr(err, "getting pending payment requests")
	}
	defer rows.Close()

	return collectPaymentRequests(rows, "pending payment requests")
}

func collectPaymentRequests(rows interface {
	rowScanner
	Next() bool
	Err() error
}, what string) ([]domain.PaymentRequest, error) {
	var requests []domain.PaymentRequest
	for rows.Next() {
		model, scanErr := scanPaymentRequest(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning %s", what)
		}
		requests = append(requests, *model)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "reading %s", what)
	}
	return requests, nil
}

func scanPaymentRequest(row rowScanner) (*domain.PaymentRequest, error) {
	var request domain.PaymentRequest
	if err := row.Scan(
		&request.ID,
		&request.CreatedAt,
		&request.UpdatedAt,
		&request.AccountID,
		&request.ProductID,
		&request.DepositorName,
		&request.Amount,
		&request.OriginalAmount,
		&request.DiscountAmount,
		&request.CouponID,
		&request.CreditsToGrant,
		&request.Status,
		&request.AdminNote,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &request, nil
}
