package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/toybox-bd/storefront-api/internal/cart"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestItemsTotal(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: 1, UnitPrice: d("499.50"), Quantity: 2},
		{ProductID: 2, UnitPrice: d("120"), Quantity: 1},
		{ProductID: 3, UnitPrice: d("80"), Quantity: 0},
	}
	require.True(t, ItemsTotal(items).Equal(d("1119")))
	require.True(t, ItemsTotal(nil).IsZero())
}

func TestComputeAssemblesTotal(t *testing.T) {
	s := Compute(d("1000"), d("150"), d("60"))
	require.True(t, s.Subtotal.Equal(d("1000")))
	require.True(t, s.Discount.Equal(d("150")))
	require.True(t, s.Shipping.Equal(d("60")))
	require.True(t, s.Total.Equal(d("910")))
}

func TestComputeClampsDiscount(t *testing.T) {
	s := Compute(d("100"), d("250"), d("110"))
	require.True(t, s.Discount.Equal(d("100")))
	require.True(t, s.Total.Equal(d("110")))

	s = Compute(d("100"), d("-5"), d("50"))
	require.True(t, s.Discount.IsZero())
	require.True(t, s.Total.Equal(d("150")))
}

func TestComputeRoundsFinalValues(t *testing.T) {
	s := Compute(d("10.005"), d("0"), d("0"))
	require.Equal(t, "10.01", s.Total.StringFixed(2))
}
