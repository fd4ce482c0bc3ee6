package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/toybox-bd/storefront-api/internal/money"
)

var (
	// ErrEmptyCart is returned when a request carries no line items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidItem is returned when a line item is malformed.
	ErrInvalidItem = errors.New("invalid cart item")
)

// LineItem is a resolved cart line used by the shipping, promo and pricing calculators.
type LineItem struct {
	ProductID int64
	UnitPrice decimal.Decimal
	Quantity  int
	// WeightKg is nil when the variant carries no weight; it then ships as zero grams.
	WeightKg *decimal.Decimal
}

// Subtotal returns unit price times quantity.
func (it LineItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// ItemPayload is the wire form of a cart line. Unit prices travel as strings.
type ItemPayload struct {
	ProductID int64            `json:"productId" validate:"required,gt=0"`
	UnitPrice string           `json:"unitPrice" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	WeightKg  *decimal.Decimal `json:"weightKg"`
}

// ToLineItems converts wire payloads into line items, rejecting malformed values.
func ToLineItems(payloads []ItemPayload) ([]LineItem, error) {
	if len(payloads) == 0 {
		return nil, ErrEmptyCart
	}
	out := make([]LineItem, 0, len(payloads))
	for i, p := range payloads {
		if p.ProductID <= 0 {
			return nil, fmt.Errorf("items[%d].productId must be positive: %w", i, ErrInvalidItem)
		}
		if p.Quantity < 1 {
			return nil, fmt.Errorf("items[%d].quantity must be at least 1: %w", i, ErrInvalidItem)
		}
		price, err := money.Parse(p.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("items[%d].unitPrice: %w", i, errors.Join(ErrInvalidItem, err))
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("items[%d].unitPrice must not be negative: %w", i, ErrInvalidItem)
		}
		if p.WeightKg != nil && p.WeightKg.IsNegative() {
			return nil, fmt.Errorf("items[%d].weightKg must not be negative: %w", i, ErrInvalidItem)
		}
		out = append(out, LineItem{
			ProductID: p.ProductID,
			UnitPrice: price,
			Quantity:  p.Quantity,
			WeightKg:  p.WeightKg,
		})
	}
	return out, nil
}
