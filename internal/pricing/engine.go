package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/toybox-bd/storefront-api/internal/cart"
	"github.com/toybox-bd/storefront-api/internal/money"
)

// Summary aggregates computed pricing components in Taka.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ItemsTotal sums unitPrice * quantity over items. Lines with a non-positive
// quantity contribute nothing.
func ItemsTotal(items []cart.LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(it.Subtotal())
	}
	return subtotal
}

// Compute assembles the order total. The discount is clamped to [0, subtotal]
// so the total never drops below the shipping fee.
func Compute(itemsTotal, discount, shipping decimal.Decimal) Summary {
	subtotal := money.NonNegative(itemsTotal)
	discount = money.Min(money.NonNegative(discount), subtotal)
	shipping = money.NonNegative(shipping)
	total := subtotal.Sub(discount).Add(shipping)
	return Summary{
		Subtotal: money.Round(subtotal),
		Discount: money.Round(discount),
		Shipping: money.Round(shipping),
		Total:    money.Round(total),
	}
}
