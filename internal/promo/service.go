package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/toybox-bd/storefront-api/internal/cart"
	"github.com/toybox-bd/storefront-api/internal/money"
	"github.com/toybox-bd/storefront-api/internal/obs"
)

// Querier captures the persistence methods required by the promo service.
type Querier interface {
	GetPromoCodeByCode(ctx context.Context, code string) (PromoCode, error)
	ListPromoCodes(ctx context.Context, limit, offset int) ([]PromoCode, int64, error)
	CreatePromoCode(ctx context.Context, p PromoCode) (PromoCode, error)
	UpdatePromoCode(ctx context.Context, p PromoCode) (PromoCode, error)
	RedeemPromoCode(ctx context.Context, arg RedeemParams) (bool, error)
	GetRedemption(ctx context.Context, orderRef string) (Redemption, error)
}

// RedeemResult reports the outcome of a redemption.
type RedeemResult struct {
	Code      string          `json:"code"`
	OrderRef  string          `json:"orderRef"`
	Amount    decimal.Decimal `json:"amount"`
	Duplicate bool            `json:"duplicate"`
}

// Service validates promo codes against carts and manages their lifecycle.
type Service struct {
	Q       Querier
	Now     func() time.Time
	Metrics *obs.DomainMetrics
}

// NormalizeCode trims and uppercases a customer supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate looks the code up and evaluates it against the cart. Ineligibility is
// reported through the result; the error is reserved for infrastructure failures.
func (s *Service) Validate(ctx context.Context, code string, items []cart.LineItem, itemsTotal decimal.Decimal) (DiscountResult, error) {
	if s == nil || s.Q == nil {
		return DiscountResult{}, errors.New("promo service not configured")
	}
	normalized := NormalizeCode(code)
	if normalized == "" || len(items) == 0 || itemsTotal.IsNegative() {
		return s.record(Invalid(KindValidation)), nil
	}
	for _, it := range items {
		if it.Quantity < 1 || it.UnitPrice.IsNegative() {
			return s.record(Invalid(KindValidation)), nil
		}
	}
	p, err := s.Q.GetPromoCodeByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.record(Invalid(KindNotFound)), nil
		}
		return DiscountResult{}, fmt.Errorf("lookup promo code: %w", err)
	}
	return s.record(Evaluate(&p, items, itemsTotal, s.now())), nil
}

// Redeem consumes one use of code for orderRef. Repeating an orderRef is a no-op.
func (s *Service) Redeem(ctx context.Context, code, orderRef string, amount decimal.Decimal) (RedeemResult, error) {
	if s == nil || s.Q == nil {
		return RedeemResult{}, errors.New("promo service not configured")
	}
	normalized := NormalizeCode(code)
	orderRef = strings.TrimSpace(orderRef)
	if normalized == "" || orderRef == "" {
		return RedeemResult{}, fmt.Errorf("code and order ref are required: %w", ErrInvalidPromo)
	}
	amount = money.Round(money.NonNegative(amount))
	duplicate, err := s.Q.RedeemPromoCode(ctx, RedeemParams{
		Code:     normalized,
		OrderRef: orderRef,
		Amount:   amount,
		At:       s.now(),
	})
	logger := zerolog.Ctx(ctx).With().Str("promo_code", normalized).Str("order_ref", orderRef).Logger()
	switch {
	case err == nil && duplicate:
		s.Metrics.ObservePromoRedemption("duplicate")
		logger.Info().Msg("promo redemption replayed")
	case err == nil:
		s.Metrics.ObservePromoRedemption("redeemed")
		logger.Info().Str("amount", amount.StringFixed(money.Places)).Msg("promo redeemed")
	case errors.Is(err, ErrRedemptionRejected), errors.Is(err, ErrNotFound):
		s.Metrics.ObservePromoRedemption("rejected")
		logger.Warn().Err(err).Msg("promo redemption rejected")
		return RedeemResult{}, err
	default:
		s.Metrics.ObservePromoRedemption("error")
		return RedeemResult{}, fmt.Errorf("redeem promo code: %w", err)
	}
	return RedeemResult{Code: normalized, OrderRef: orderRef, Amount: amount, Duplicate: duplicate}, nil
}

// Redemption returns the redemption already recorded for orderRef, or ErrNotFound.
func (s *Service) Redemption(ctx context.Context, orderRef string) (Redemption, error) {
	if s == nil || s.Q == nil {
		return Redemption{}, errors.New("promo service not configured")
	}
	orderRef = strings.TrimSpace(orderRef)
	if orderRef == "" {
		return Redemption{}, ErrNotFound
	}
	return s.Q.GetRedemption(ctx, orderRef)
}

// Create stores a new promo code after normalising and checking the input.
func (s *Service) Create(ctx context.Context, in Input) (PromoCode, error) {
	if s == nil || s.Q == nil {
		return PromoCode{}, errors.New("promo service not configured")
	}
	p, err := in.toPromoCode()
	if err != nil {
		return PromoCode{}, err
	}
	return s.Q.CreatePromoCode(ctx, p)
}

// Update replaces the mutable fields of the promo code identified by code.
func (s *Service) Update(ctx context.Context, code string, in Input) (PromoCode, error) {
	if s == nil || s.Q == nil {
		return PromoCode{}, errors.New("promo service not configured")
	}
	in.Code = code
	p, err := in.toPromoCode()
	if err != nil {
		return PromoCode{}, err
	}
	return s.Q.UpdatePromoCode(ctx, p)
}

// Get returns the promo code with the given code.
func (s *Service) Get(ctx context.Context, code string) (PromoCode, error) {
	if s == nil || s.Q == nil {
		return PromoCode{}, errors.New("promo service not configured")
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return PromoCode{}, ErrNotFound
	}
	return s.Q.GetPromoCodeByCode(ctx, normalized)
}

// List returns a page of promo codes, newest first, and the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]PromoCode, int64, error) {
	if s == nil || s.Q == nil {
		return nil, 0, errors.New("promo service not configured")
	}
	return s.Q.ListPromoCodes(ctx, limit, offset)
}

func (s *Service) record(res DiscountResult) DiscountResult {
	if res.Valid {
		s.Metrics.ObservePromoValidation("valid")
	} else {
		s.Metrics.ObservePromoValidation(strings.ToLower(string(res.ErrorKind)))
	}
	return res
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
