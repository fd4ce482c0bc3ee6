package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/toybox-bd/storefront-api/internal/cart"
	"github.com/toybox-bd/storefront-api/internal/pricing"
	"github.com/toybox-bd/storefront-api/internal/promo"
	"github.com/toybox-bd/storefront-api/internal/shipping"
)

// ErrPromoUnavailable is returned by Settle when the promo code could not be
// redeemed even though it validated during the re-quote.
var ErrPromoUnavailable = errors.New("promo code no longer available")

// PromoService is the subset of promo.Service used by checkout.
type PromoService interface {
	Validate(ctx context.Context, code string, items []cart.LineItem, itemsTotal decimal.Decimal) (promo.DiscountResult, error)
	Redeem(ctx context.Context, code, orderRef string, amount decimal.Decimal) (promo.RedeemResult, error)
	Redemption(ctx context.Context, orderRef string) (promo.Redemption, error)
}

// QuoteInput is a cart priced for one delivery zone.
type QuoteInput struct {
	Zone      shipping.Zone
	Items     []cart.LineItem
	PromoCode string
}

// SettleInput is a QuoteInput bound to the order being placed.
type SettleInput struct {
	OrderRef string
	QuoteInput
}

// Quote is the priced checkout. Promo is nil when no code was supplied and
// carries the ineligibility reason when the code did not apply.
type Quote struct {
	Shipping shipping.OrderShipping `json:"shipping"`
	Promo    *promo.DiscountResult  `json:"promo,omitempty"`
	Summary  pricing.Summary        `json:"summary"`
}

// Settlement is the final quote of an order and its promo redemption, if any.
type Settlement struct {
	OrderRef   string              `json:"orderRef"`
	Quote      Quote               `json:"quote"`
	Redemption *promo.RedeemResult `json:"redemption,omitempty"`
}

// Service prices carts and settles orders.
type Service struct {
	Promo PromoService
}

// Quote prices the cart: itemsTotal - discount + shipping.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	if len(in.Items) == 0 {
		return Quote{}, cart.ErrEmptyCart
	}
	itemsTotal := pricing.ItemsTotal(in.Items)
	ship := shipping.CalculateOrderShipping(in.Items, in.Zone)

	q := Quote{Shipping: ship}
	discount := decimal.Zero
	if code := strings.TrimSpace(in.PromoCode); code != "" {
		if s == nil || s.Promo == nil {
			return Quote{}, errors.New("checkout promo service not configured")
		}
		res, err := s.Promo.Validate(ctx, code, in.Items, itemsTotal)
		if err != nil {
			return Quote{}, fmt.Errorf("validate promo: %w", err)
		}
		q.Promo = &res
		if res.Valid {
			discount = res.DiscountAmount
		}
	}
	q.Summary = pricing.Compute(itemsTotal, discount, ship.Cost)
	return q, nil
}

// Settle re-quotes the order and redeems the promo code when it applies.
// Settling the same order ref twice redeems at most once; a replay returns the
// discount recorded by the first settlement even if the code is used up since.
func (s *Service) Settle(ctx context.Context, in SettleInput) (Settlement, error) {
	orderRef := strings.TrimSpace(in.OrderRef)
	if orderRef == "" {
		return Settlement{}, errors.New("order ref is required")
	}
	if len(in.Items) == 0 {
		return Settlement{}, cart.ErrEmptyCart
	}
	hasPromo := strings.TrimSpace(in.PromoCode) != "" && s != nil && s.Promo != nil
	if hasPromo {
		if out, ok, err := s.replayed(ctx, in, orderRef); err != nil || ok {
			return out, err
		}
	}

	q, err := s.Quote(ctx, in.QuoteInput)
	if err != nil {
		return Settlement{}, err
	}
	out := Settlement{OrderRef: orderRef, Quote: q}
	if q.Promo == nil {
		return out, nil
	}
	if !q.Promo.Valid {
		// a concurrent settle of this order may have used the code up after the first lookup
		if prior, ok, err := s.replayed(ctx, in, orderRef); err != nil || ok {
			return prior, err
		}
		return out, nil
	}
	redemption, err := s.Promo.Redeem(ctx, in.PromoCode, orderRef, q.Summary.Discount)
	if err != nil {
		if errors.Is(err, promo.ErrRedemptionRejected) || errors.Is(err, promo.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Str("order_ref", orderRef).Err(err).Msg("checkout promo lost at settlement")
			return Settlement{}, fmt.Errorf("%w: %w", ErrPromoUnavailable, err)
		}
		return Settlement{}, fmt.Errorf("redeem promo: %w", err)
	}
	out.Redemption = &redemption
	return out, nil
}

// replayed reports the settlement rebuilt from an existing redemption of orderRef.
func (s *Service) replayed(ctx context.Context, in SettleInput, orderRef string) (Settlement, bool, error) {
	prior, err := s.Promo.Redemption(ctx, orderRef)
	switch {
	case err == nil:
		zerolog.Ctx(ctx).Info().Str("order_ref", orderRef).Str("promo_code", prior.Code).Msg("checkout settlement replayed")
		return replay(in, orderRef, prior), true, nil
	case errors.Is(err, promo.ErrNotFound):
		return Settlement{}, false, nil
	default:
		return Settlement{}, false, fmt.Errorf("lookup redemption: %w", err)
	}
}

// replay rebuilds the settlement of an already redeemed order from its recorded discount.
func replay(in SettleInput, orderRef string, prior promo.Redemption) Settlement {
	itemsTotal := pricing.ItemsTotal(in.Items)
	ship := shipping.CalculateOrderShipping(in.Items, in.Zone)
	res := promo.DiscountResult{Valid: true, Code: prior.Code, DiscountAmount: prior.Amount}
	return Settlement{
		OrderRef: orderRef,
		Quote: Quote{
			Shipping: ship,
			Promo:    &res,
			Summary:  pricing.Compute(itemsTotal, prior.Amount, ship.Cost),
		},
		Redemption: &promo.RedeemResult{Code: prior.Code, OrderRef: prior.OrderRef, Amount: prior.Amount, Duplicate: true},
	}
}
