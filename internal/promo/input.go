package promo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/toybox-bd/storefront-api/internal/money"
)

var hundred = decimal.NewFromInt(100)

// Input is the administrative payload used to create or update a promo code.
type Input struct {
	Code               string     `json:"code" validate:"max=64"`
	DiscountType       string     `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue      string     `json:"discountValue" validate:"required"`
	MaxDiscountAmount  *string    `json:"maxDiscountAmount"`
	IsOneTimeUse       bool       `json:"isOneTimeUse"`
	UsageLimit         *int       `json:"usageLimit" validate:"omitempty,min=1"`
	IsStoreWide        bool       `json:"isStoreWide"`
	ApplicableProducts []int64    `json:"applicableProducts" validate:"dive,gt=0"`
	IsActive           *bool      `json:"isActive"`
	ExpiresAt          *time.Time `json:"expiresAt"`
}

func (in Input) toPromoCode() (PromoCode, error) {
	value, err := money.Parse(in.DiscountValue)
	if err != nil {
		return PromoCode{}, fmt.Errorf("discountValue: %w", ErrInvalidPromo)
	}
	var maxDiscount *decimal.Decimal
	if in.MaxDiscountAmount != nil {
		maxDiscount, err = money.ParseNullable(*in.MaxDiscountAmount)
		if err != nil {
			return PromoCode{}, fmt.Errorf("maxDiscountAmount: %w", ErrInvalidPromo)
		}
	}
	p := PromoCode{
		Code:               NormalizeCode(in.Code),
		DiscountType:       DiscountType(in.DiscountType),
		DiscountValue:      value,
		MaxDiscountAmount:  maxDiscount,
		IsOneTimeUse:       in.IsOneTimeUse,
		UsageLimit:         in.UsageLimit,
		IsStoreWide:        in.IsStoreWide,
		ApplicableProducts: dedupe(in.ApplicableProducts),
		IsActive:           true,
		ExpiresAt:          in.ExpiresAt,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if p.IsStoreWide {
		p.ApplicableProducts = nil
	}
	if err := p.Check(); err != nil {
		return PromoCode{}, err
	}
	return p, nil
}

// Check enforces the stored invariants: exactly one discount policy with a
// positive value, a positive cap when present and a non-empty product scope
// for codes that are not store-wide.
func (p PromoCode) Check() error {
	if p.Code == "" {
		return fmt.Errorf("code is required: %w", ErrInvalidPromo)
	}
	switch p.DiscountType {
	case DiscountPercentage:
		if !p.DiscountValue.IsPositive() || p.DiscountValue.GreaterThan(hundred) {
			return fmt.Errorf("percentage must be in (0, 100]: %w", ErrInvalidPromo)
		}
	case DiscountFixed:
		if !p.DiscountValue.IsPositive() {
			return fmt.Errorf("fixed amount must be positive: %w", ErrInvalidPromo)
		}
	default:
		return fmt.Errorf("unknown discount type %q: %w", p.DiscountType, ErrInvalidPromo)
	}
	if p.MaxDiscountAmount != nil && !p.MaxDiscountAmount.IsPositive() {
		return fmt.Errorf("maxDiscountAmount must be positive: %w", ErrInvalidPromo)
	}
	if p.UsageLimit != nil && *p.UsageLimit < 1 {
		return fmt.Errorf("usageLimit must be at least 1: %w", ErrInvalidPromo)
	}
	if !p.IsStoreWide && len(p.ApplicableProducts) == 0 {
		return fmt.Errorf("applicableProducts required when not store-wide: %w", ErrInvalidPromo)
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
