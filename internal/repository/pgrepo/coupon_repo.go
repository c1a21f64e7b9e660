package pgrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/pkg/uow"
)

const couponColumns = "id, created_at, code, discount_amount, expires_at, max_uses, used_count, is_active"

type CouponRepository struct {
	conn uow.DBTX
}

func NewCouponRepository(conn uow.DBTX) *CouponRepository {
	return &CouponRepository{conn: conn}
}

// FindByCode ищет купон по коду без учета регистра.
func (c *CouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := c.conn.QueryRow(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE lower(code) = lower($1)`,
		code,
	)

	coupon, err := scanCoupon(row)
	if err != nil {
		return nil, convertErr(err, "finding coupon by code `%s`", code)
	}
	return coupon, nil
}

// Redeem атомарно инкрементирует used_count и пишет запись coupon_usages. Предикат
// used_count < max_uses входит в сам UPDATE: из двух гонящихся за последним использованием
// запросов ровно один получит строку, второму вернется CouponValidationError с ExhaustedUses.
// Вызывается только внутри транзакции сопутствующей мутации баланса/платежа.
func (c *CouponRepository) Redeem(ctx context.Context, args repoargs.CouponRedeem) (*domain.Coupon, error) {
	row := c.conn.QueryRow(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1 AND (max_uses IS NULL OR used_count < max_uses)
		RETURNING `+couponColumns,
		args.CouponID,
	)

	coupon, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewCouponValidationError("", domain.CouponReasonExhaustedUses)
		}
		return nil, convertErr(err, "redeeming coupon with id %d", args.CouponID)
	}

	if _, execErr := c.conn.Exec(ctx, `
		INSERT INTO coupon_usages (coupon_id, account_id, context)
		VALUES ($1, $2, $3)`,
		args.CouponID, args.AccountID, args.Context,
	); execErr != nil {
		return nil, convertErr(execErr, "recording usage of coupon with id %d", args.CouponID)
	}

	return coupon, nil
}

func (c *CouponRepository) GetUsages(ctx context.Context, couponID int64) ([]domain.CouponUsage, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT id, coupon_id, account_id, context, used_at
		FROM coupon_usages
		WHERE coupon_id = $1
		ORDER BY used_at DESC`,
		couponID,
	)
	if err != nil {
		return nil, convertErr(err, "getting usages for coupon %d", couponID)
	}
	defer rows.Close()

	var usages []domain.CouponUsage
	for rows.Next() {
		var usage domain.CouponUsage
		if scanErr := rows.Scan(&usage.ID, &usage.CouponID, &usage.AccountID, &usage.Context, &usage.UsedAt); scanErr != nil {
			return nil, convertErr(scanErr, "scanning usages for coupon %d", couponID)
		}
		usages = append(usages, usage)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "reading usages for coupon %d", couponID)
	}
	return usages, nil
}

func scanCoupon(row rowScanner) (*domain.Coupon, error) {
	var coupon domain.Coupon
	if err := row.Scan(
		&coupon.ID,
		&coupon.CreatedAt,
		&coupon.Code,
		&coupon.DiscountAmount,
		&coupon.ExpiresAt,
		&coupon.MaxUses,
		&coupon.UsedCount,
		&coupon.IsActive,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &coupon, nil
}
