package promo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/toybox-bd/storefront-api/internal/cart"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int { return &v }

func storeWide(kind DiscountType, value string) *PromoCode {
	return &PromoCode{
		Code:          "TOYS",
		DiscountType:  kind,
		DiscountValue: dec(value),
		IsStoreWide:   true,
		IsActive:      true,
	}
}

func line(id int64, price string, qty int) cart.LineItem {
	return cart.LineItem{ProductID: id, UnitPrice: dec(price), Quantity: qty}
}

func TestEvaluateNilSnapshotIsNotFound(t *testing.T) {
	res := Evaluate(nil, []cart.LineItem{line(1, "100", 1)}, dec("100"), fixedNow)
	require.False(t, res.Valid)
	require.Equal(t, KindNotFound, res.ErrorKind)
	require.True(t, res.DiscountAmount.IsZero())
}

func TestEvaluateGateOrder(t *testing.T) {
	yesterday := fixedNow.Add(-24 * time.Hour)
	items := []cart.LineItem{line(1, "500", 1)}

	cases := []struct {
		name   string
		mutate func(p *PromoCode)
		want   ErrorKind
	}{
		{"inactive wins over expired", func(p *PromoCode) { p.IsActive = false; p.ExpiresAt = &yesterday }, KindInactive},
		{"expired", func(p *PromoCode) { p.ExpiresAt = &yesterday }, KindExpired},
		{"usage limit reached", func(p *PromoCode) { p.UsageLimit = intPtr(5); p.UsedCount = 5 }, KindUsageLimitReached},
		{"usage limit before one time use", func(p *PromoCode) {
			p.UsageLimit = intPtr(1)
			p.IsOneTimeUse = true
			p.UsedCount = 1
		}, KindUsageLimitReached},
		{"already used", func(p *PromoCode) { p.IsOneTimeUse = true; p.UsedCount = 1 }, KindAlreadyUsed},
		{"not applicable", func(p *PromoCode) { p.IsStoreWide = false; p.ApplicableProducts = []int64{9} }, KindNotApplicable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := storeWide(DiscountPercentage, "10")
			tc.mutate(p)
			res := Evaluate(p, items, dec("500"), fixedNow)
			require.False(t, res.Valid)
			require.Equal(t, tc.want, res.ErrorKind)
			require.Equal(t, tc.want.Message(), res.Message)
			require.True(t, res.DiscountAmount.IsZero())
			require.True(t, res.ApplicableItemsTotal.IsZero())
		})
	}
}

func TestEvaluateExpiryIsStrict(t *testing.T) {
	p := storeWide(DiscountFixed, "50")
	at := fixedNow
	p.ExpiresAt = &at
	res := Evaluate(p, []cart.LineItem{line(1, "100", 1)}, dec("100"), fixedNow)
	require.True(t, res.Valid)
	require.True(t, res.DiscountAmount.Equal(dec("50")))
}

func TestEvaluatePercentageWithCap(t *testing.T) {
	p := storeWide(DiscountPercentage, "50")
	p.MaxDiscountAmount = decPtr("100")
	res := Evaluate(p, []cart.LineItem{line(1, "500", 1)}, dec("500"), fixedNow)
	require.True(t, res.Valid)
	require.True(t, res.DiscountAmount.Equal(dec("100")))
	require.True(t, res.ApplicableItemsTotal.Equal(dec("500")))
	require.True(t, res.IsStoreWide)
	require.Equal(t, "TOYS", res.Code)
}

func TestEvaluateFixedClampedToScopedBase(t *testing.T) {
	p := &PromoCode{
		Code:               "LEGO1000",
		DiscountType:       DiscountFixed,
		DiscountValue:      dec("1000"),
		IsActive:           true,
		ApplicableProducts: []int64{7},
	}
	items := []cart.LineItem{line(7, "150", 2), line(8, "900", 1)}
	res := Evaluate(p, items, dec("1200"), fixedNow)
	require.True(t, res.Valid)
	require.False(t, res.IsStoreWide)
	require.True(t, res.ApplicableItemsTotal.Equal(dec("300")))
	require.True(t, res.DiscountAmount.Equal(dec("300")))
}

func TestEvaluateStoreWideUsesCallerTotal(t *testing.T) {
	p := storeWide(DiscountPercentage, "10")
	res := Evaluate(p, []cart.LineItem{line(1, "100", 1)}, dec("250"), fixedNow)
	require.True(t, res.DiscountAmount.Equal(dec("25")))
	require.True(t, res.ApplicableItemsTotal.Equal(dec("250")))
}

func TestEvaluateRoundsHalfUp(t *testing.T) {
	p := storeWide(DiscountPercentage, "12.5")
	res := Evaluate(p, []cart.LineItem{line(1, "10.1", 1)}, dec("10.1"), fixedNow)
	// 10.1 * 12.5% = 1.2625
	require.Equal(t, "1.26", res.DiscountAmount.StringFixed(2))

	res = Evaluate(p, []cart.LineItem{line(1, "0.36", 1)}, dec("0.36"), fixedNow)
	// 0.045 rounds away from zero
	require.Equal(t, "0.05", res.DiscountAmount.StringFixed(2))
}

func TestEvaluateDoesNotMutateSnapshot(t *testing.T) {
	p := storeWide(DiscountFixed, "20")
	p.UsedCount = 3
	before := *p
	_ = Evaluate(p, []cart.LineItem{line(1, "100", 1)}, dec("100"), fixedNow)
	require.Equal(t, before, *p)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	p := storeWide(DiscountPercentage, "15")
	items := []cart.LineItem{line(1, "333.33", 3)}
	a, err := json.Marshal(Evaluate(p, items, dec("999.99"), fixedNow))
	require.NoError(t, err)
	b, err := json.Marshal(Evaluate(p, items, dec("999.99"), fixedNow))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestComputeNeverExceedsBase(t *testing.T) {
	p := storeWide(DiscountPercentage, "100")
	require.True(t, Compute(dec("80"), p).Equal(dec("80")))
	require.True(t, Compute(dec("0"), p).IsZero())
	require.True(t, Compute(dec("-5"), p).IsZero())

	fixed := storeWide(DiscountFixed, "40")
	fixed.MaxDiscountAmount = decPtr("25")
	require.True(t, Compute(dec("100"), fixed).Equal(dec("25")))
}

func TestPromoCodeCheck(t *testing.T) {
	valid := *storeWide(DiscountPercentage, "100")
	require.NoError(t, valid.Check())

	over := *storeWide(DiscountPercentage, "100.01")
	require.ErrorIs(t, over.Check(), ErrInvalidPromo)

	zeroFixed := *storeWide(DiscountFixed, "0")
	require.ErrorIs(t, zeroFixed.Check(), ErrInvalidPromo)

	scoped := *storeWide(DiscountFixed, "10")
	scoped.IsStoreWide = false
	require.ErrorIs(t, scoped.Check(), ErrInvalidPromo)

	badType := *storeWide(DiscountType("bogo"), "10")
	require.ErrorIs(t, badType.Check(), ErrInvalidPromo)
}
