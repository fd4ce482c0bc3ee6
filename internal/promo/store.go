package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const promoColumns = `id, code, discount_type, discount_value, max_discount_amount, is_one_time_use,
	used_count, usage_limit, is_store_wide, applicable_products, is_active, expires_at, created_at, updated_at`

// RedeemParams identifies a single post-order redemption.
type RedeemParams struct {
	Code     string
	OrderRef string
	Amount   decimal.Decimal
	At       time.Time
}

// Redemption is a recorded use of a promo code by one order.
type Redemption struct {
	Code       string          `json:"code"`
	OrderRef   string          `json:"orderRef"`
	Amount     decimal.Decimal `json:"amount"`
	RedeemedAt time.Time       `json:"redeemedAt"`
}

// DBTX is the subset of *pgxpool.Pool used by Store.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store persists promo codes in Postgres.
type Store struct {
	DB DBTX
}

// NewStore returns a Store backed by db, usually a *pgxpool.Pool.
func NewStore(db DBTX) *Store {
	return &Store{DB: db}
}

func (s *Store) GetPromoCodeByCode(ctx context.Context, code string) (PromoCode, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`, code)
	return scanPromo(row)
}

func (s *Store) ListPromoCodes(ctx context.Context, limit, offset int) ([]PromoCode, int64, error) {
	var total int64
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM promo_codes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count promo codes: %w", err)
	}
	rows, err := s.DB.Query(ctx,
		`SELECT `+promoColumns+` FROM promo_codes ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()
	out := make([]PromoCode, 0, limit)
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list promo codes: %w", err)
	}
	return out, total, nil
}

func (s *Store) CreatePromoCode(ctx context.Context, p PromoCode) (PromoCode, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO promo_codes (code, discount_type, discount_value, max_discount_amount, is_one_time_use,
			usage_limit, is_store_wide, applicable_products, is_active, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+promoColumns,
		p.Code, string(p.DiscountType), toNumeric(&p.DiscountValue), toNumeric(p.MaxDiscountAmount),
		p.IsOneTimeUse, toInt4(p.UsageLimit), p.IsStoreWide, productIDs(p.ApplicableProducts),
		p.IsActive, toTimestamptz(p.ExpiresAt))
	created, err := scanPromo(row)
	if err != nil {
		return PromoCode{}, mapWriteError(err)
	}
	return created, nil
}

func (s *Store) UpdatePromoCode(ctx context.Context, p PromoCode) (PromoCode, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE promo_codes SET
			discount_type = $2,
			discount_value = $3,
			max_discount_amount = $4,
			is_one_time_use = $5,
			usage_limit = $6,
			is_store_wide = $7,
			applicable_products = $8,
			is_active = $9,
			expires_at = $10,
			updated_at = now()
		WHERE code = $1
		RETURNING `+promoColumns,
		p.Code, string(p.DiscountType), toNumeric(&p.DiscountValue), toNumeric(p.MaxDiscountAmount),
		p.IsOneTimeUse, toInt4(p.UsageLimit), p.IsStoreWide, productIDs(p.ApplicableProducts),
		p.IsActive, toTimestamptz(p.ExpiresAt))
	updated, err := scanPromo(row)
	if err != nil {
		return PromoCode{}, mapWriteError(err)
	}
	return updated, nil
}

// RedeemPromoCode increments used_count and records the redemption in one
// transaction. It reports duplicate=true when orderRef was already redeemed.
// The promo row is locked first so concurrent settles of one order serialise
// on it and the later one observes the earlier redemption.
func (s *Store) RedeemPromoCode(ctx context.Context, arg RedeemParams) (duplicate bool, err error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin redemption: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var promoID int64
	if err = tx.QueryRow(ctx, `SELECT id FROM promo_codes WHERE code = $1 FOR UPDATE`, arg.Code).Scan(&promoID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
			return false, err
		}
		return false, fmt.Errorf("lookup promo code: %w", err)
	}

	var existing int64
	err = tx.QueryRow(ctx, `SELECT promo_code_id FROM promo_redemptions WHERE order_ref = $1`, arg.OrderRef).Scan(&existing)
	switch {
	case err == nil:
		if err = tx.Commit(ctx); err != nil {
			return false, fmt.Errorf("commit redemption: %w", err)
		}
		return true, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return false, fmt.Errorf("lookup redemption: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE promo_codes
		SET used_count = used_count + 1, updated_at = now()
		WHERE id = $1
			AND is_active
			AND (expires_at IS NULL OR expires_at >= $2)
			AND (usage_limit IS NULL OR used_count < usage_limit)
			AND NOT (is_one_time_use AND used_count > 0)`,
		promoID, arg.At)
	if err != nil {
		return false, fmt.Errorf("increment usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err = ErrRedemptionRejected
		return false, err
	}

	tag, err = tx.Exec(ctx, `
		INSERT INTO promo_redemptions (promo_code_id, order_ref, amount, redeemed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_ref) DO NOTHING`,
		promoID, arg.OrderRef, toNumeric(&arg.Amount), arg.At)
	if err != nil {
		return false, fmt.Errorf("insert redemption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// the order was redeemed under another code; undo our increment
		_ = tx.Rollback(ctx)
		return true, nil
	}
	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit redemption: %w", err)
	}
	return false, nil
}

// GetRedemption returns the redemption recorded for orderRef, or ErrNotFound.
func (s *Store) GetRedemption(ctx context.Context, orderRef string) (Redemption, error) {
	var (
		r      Redemption
		amount pgtype.Numeric
	)
	err := s.DB.QueryRow(ctx, `
		SELECT p.code, r.order_ref, r.amount, r.redeemed_at
		FROM promo_redemptions r
		JOIN promo_codes p ON p.id = r.promo_code_id
		WHERE r.order_ref = $1`, orderRef).Scan(&r.Code, &r.OrderRef, &amount, &r.RedeemedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Redemption{}, ErrNotFound
		}
		return Redemption{}, fmt.Errorf("lookup redemption: %w", err)
	}
	if v := fromNumeric(amount); v != nil {
		r.Amount = *v
	}
	return r, nil
}

func scanPromo(row pgx.Row) (PromoCode, error) {
	var (
		p           PromoCode
		kind        string
		value       pgtype.Numeric
		maxDiscount pgtype.Numeric
		usageLimit  pgtype.Int4
		expiresAt   pgtype.Timestamptz
		products    []int64
	)
	err := row.Scan(&p.ID, &p.Code, &kind, &value, &maxDiscount, &p.IsOneTimeUse, &p.UsedCount,
		&usageLimit, &p.IsStoreWide, &products, &p.IsActive, &expiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PromoCode{}, ErrNotFound
		}
		return PromoCode{}, err
	}
	p.DiscountType = DiscountType(kind)
	if v := fromNumeric(value); v != nil {
		p.DiscountValue = *v
	}
	p.MaxDiscountAmount = fromNumeric(maxDiscount)
	if usageLimit.Valid {
		limit := int(usageLimit.Int32)
		p.UsageLimit = &limit
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		p.ExpiresAt = &t
	}
	p.ApplicableProducts = products
	return p, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateCode
	}
	return err
}

func toNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.Int == nil || n.NaN {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}

func toInt4(v *int) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}
}

func toTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func productIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
