package pgrepo

import (
	"context"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/pkg/uow"
)

const paymentColumns = `id, created_at, updated_at, order_id, account_id, product_id,
	amount, original_amount, discount_amount, credits_to_grant, status, payment_method, gateway_key, coupon_id`

type PaymentRepository struct {
	conn uow.DBTX
}

func NewPaymentRepository(conn uow.DBTX) *PaymentRepository {
	return &PaymentRepository{conn: conn}
}

func (p *PaymentRepository) Create(ctx context.Context, payment repoargs.PaymentCreate) (*domain.Payment, error) {
	row := p.conn.QueryRow(ctx, `
		INSERT INTO payments
			(order_id, account_id, product_id, amount, original_amount, discount_amount, credits_to_grant, status, coupon_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+paymentColumns,
		payment.OrderID, payment.AccountID, payment.ProductID,
		payment.Amount, payment.OriginalAmount, payment.DiscountAmount,
		payment.CreditsToGrant, domain.PaymentStatusPending, payment.CouponID,
	)

	model, err := scanPayment(row)
	if err != nil {
		return nil, convertErr(err, "creating payment with order id `%s`", payment.OrderID)
	}
	return model, nil
}

func (p *PaymentRepository) FindByOrderID(
	ctx context.Context,
	accountID int64,
	orderID string,
) (*domain.Payment, error) {
	row := p.conn.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE account_id = $1 AND order_id = $2`,
		accountID, orderID,
	)

	model, err := scanPayment(row)
	if err != nil {
		return nil, convertErr(err, "finding payment by order id `%s`", orderID)
	}
	return model, nil
}

// LockByOrderID читает платеж под блокировкой строки. Проверка статуса и терминальный
// переход обязаны происходить под этой блокировкой, иначе повторное подтверждение
// может начислить кредиты дважды.
func (p *PaymentRepository) LockByOrderID(
	ctx context.Context,
	accountID int64,
	orderID string,
) (*domain.Payment, error) {
	row := p.conn.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE account_id = $1 AND order_id = $2
		FOR UPDATE`,
		accountID, orderID,
	)

	model, err := scanPayment(row)
	if err != nil {
		return nil, convertErr(err, "locking payment by order id `%s`", orderID)
	}
	return model, nil
}

func (p *PaymentRepository) UpdateStatus(
	ctx context.Context,
	paymentID int64,
	status domain.PaymentStatusType,
	paymentMethod string,
	gatewayKey *string,
) (*domain.Payment, error) {
	row := p.conn.QueryRow(ctx, `
		UPDATE payments
		SET status = $2, payment_method = $3, gateway_key = COALESCE($4, gateway_key), updated_at = now()
		WHERE id = $1
		RETURNING `+paymentColumns,
		paymentID, status, paymentMethod, gatewayKey,
	)

	model, err := scanPayment(row)
	if err != nil {
		return nil, convertErr(err, "updating payment with id %d", paymentID)
	}
	return model, nil
}

func (p *PaymentRepository) GetByAccountID(ctx context.Context, accountID int64) ([]domain.Payment, error) {
	rows, err := p.conn.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE account_id = $1
		ORDER BY created_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, convertErr(err, "getting payments for account %d", accountID)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		model, scanErr := scanPayment(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning payments for account %d", accountID)
		}
		payments = append(payments, *model)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "reading payments for account %d", accountID)
	}
	return payments, nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	if err := row.Scan(
		&payment.ID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&payment.OrderID,
		&payment.AccountID,
		&payment.ProductID,
		&payment.Amount,
		&payment.OriginalAmount,
		&payment.DiscountAmount,
		&payment.CreditsToGrant,
		&payment.Status,
		&payment.PaymentMethod,
		&payment.GatewayKey,
		&payment.CouponID,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &payment, nil
}
