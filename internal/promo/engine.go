package promo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/toybox-bd/storefront-api/internal/cart"
	"github.com/toybox-bd/storefront-api/internal/money"
)

// DiscountType selects how DiscountValue is interpreted.
type DiscountType string

const (
	// DiscountPercentage treats DiscountValue as a percentage in (0, 100].
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed treats DiscountValue as a Taka amount.
	DiscountFixed DiscountType = "fixed"
)

// ErrorKind is the stable token returned for an ineligible or malformed promo code.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInactive          ErrorKind = "INACTIVE"
	KindExpired           ErrorKind = "EXPIRED"
	KindUsageLimitReached ErrorKind = "USAGE_LIMIT_REACHED"
	KindAlreadyUsed       ErrorKind = "ALREADY_USED"
	KindNotApplicable     ErrorKind = "NOT_APPLICABLE"
	KindValidation        ErrorKind = "VALIDATION_ERROR"
)

// Message returns the customer facing text for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case KindNotFound:
		return "Invalid promo code"
	case KindInactive:
		return "This promo code is not active"
	case KindExpired:
		return "This promo code has expired"
	case KindUsageLimitReached:
		return "This promo code has reached its usage limit"
	case KindAlreadyUsed:
		return "This promo code has already been used"
	case KindNotApplicable:
		return "This promo code is not applicable to the products in your cart"
	case KindValidation:
		return "Invalid request"
	}
	return ""
}

// PromoCode is a read-only snapshot of a stored promo code.
type PromoCode struct {
	ID                 int64            `json:"id"`
	Code               string           `json:"code"`
	DiscountType       DiscountType     `json:"discountType"`
	DiscountValue      decimal.Decimal  `json:"discountValue"`
	MaxDiscountAmount  *decimal.Decimal `json:"maxDiscountAmount"`
	IsOneTimeUse       bool             `json:"isOneTimeUse"`
	UsedCount          int              `json:"usedCount"`
	UsageLimit         *int             `json:"usageLimit"`
	IsStoreWide        bool             `json:"isStoreWide"`
	ApplicableProducts []int64          `json:"applicableProducts"`
	IsActive           bool             `json:"isActive"`
	ExpiresAt          *time.Time       `json:"expiresAt"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// DiscountResult is the outcome of evaluating a promo code against a cart.
// Amounts are zero whenever Valid is false.
type DiscountResult struct {
	Valid                bool            `json:"valid"`
	Code                 string          `json:"code,omitempty"`
	DiscountAmount       decimal.Decimal `json:"discountAmount"`
	ApplicableItemsTotal decimal.Decimal `json:"applicableItemsTotal"`
	IsStoreWide          bool            `json:"isStoreWide"`
	ErrorKind            ErrorKind       `json:"errorKind,omitempty"`
	Message              string          `json:"message,omitempty"`
}

// Invalid builds a failed result for kind.
func Invalid(kind ErrorKind) DiscountResult {
	return DiscountResult{ErrorKind: kind, Message: kind.Message()}
}

// gate is one ordered eligibility predicate; fails reports whether the code is rejected.
type gate struct {
	kind  ErrorKind
	fails func(p *PromoCode, items []cart.LineItem, now time.Time) bool
}

// gates run in order; usage limit is checked before one-time use so that a code
// with both set reports USAGE_LIMIT_REACHED.
var gates = []gate{
	{KindInactive, func(p *PromoCode, _ []cart.LineItem, _ time.Time) bool {
		return !p.IsActive
	}},
	{KindExpired, func(p *PromoCode, _ []cart.LineItem, now time.Time) bool {
		return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
	}},
	{KindUsageLimitReached, func(p *PromoCode, _ []cart.LineItem, _ time.Time) bool {
		return p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit
	}},
	{KindAlreadyUsed, func(p *PromoCode, _ []cart.LineItem, _ time.Time) bool {
		return p.IsOneTimeUse && p.UsedCount > 0
	}},
	{KindNotApplicable, func(p *PromoCode, items []cart.LineItem, _ time.Time) bool {
		if p.IsStoreWide {
			return false
		}
		applicable := p.productSet()
		for _, it := range items {
			if _, ok := applicable[it.ProductID]; ok {
				return false
			}
		}
		return true
	}},
}

// CheckEligibility runs the gates in order and returns the first failing kind, or "" when eligible.
func CheckEligibility(p *PromoCode, items []cart.LineItem, now time.Time) ErrorKind {
	if p == nil {
		return KindNotFound
	}
	for _, g := range gates {
		if g.fails(p, items, now) {
			return g.kind
		}
	}
	return ""
}

// Evaluate validates p against the cart and computes the discount. A nil snapshot
// means the code was not found. itemsTotal is the caller's cart subtotal and is used
// as the base for store-wide codes.
func Evaluate(p *PromoCode, items []cart.LineItem, itemsTotal decimal.Decimal, now time.Time) DiscountResult {
	if kind := CheckEligibility(p, items, now); kind != "" {
		return Invalid(kind)
	}
	base := DiscountBase(p, items, itemsTotal)
	return DiscountResult{
		Valid:                true,
		Code:                 p.Code,
		DiscountAmount:       money.Round(Compute(base, p)),
		ApplicableItemsTotal: money.Round(base),
		IsStoreWide:          p.IsStoreWide,
	}
}

// DiscountBase returns the subtotal the discount is computed against.
func DiscountBase(p *PromoCode, items []cart.LineItem, itemsTotal decimal.Decimal) decimal.Decimal {
	if p.IsStoreWide {
		return itemsTotal
	}
	applicable := p.productSet()
	total := decimal.Zero
	for _, it := range items {
		if _, ok := applicable[it.ProductID]; ok {
			total = total.Add(it.Subtotal())
		}
	}
	return total
}

// Compute applies the discount policy to base without rounding. The result never
// exceeds base and is never negative.
func Compute(base decimal.Decimal, p *PromoCode) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch p.DiscountType {
	case DiscountPercentage:
		amount = base.Mul(p.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		amount = p.DiscountValue
	default:
		return decimal.Zero
	}
	if p.MaxDiscountAmount != nil {
		amount = money.Min(amount, *p.MaxDiscountAmount)
	}
	amount = money.Min(amount, base)
	return money.NonNegative(amount)
}

func (p *PromoCode) productSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(p.ApplicableProducts))
	for _, id := range p.ApplicableProducts {
		set[id] = struct{}{}
	}
	return set
}
