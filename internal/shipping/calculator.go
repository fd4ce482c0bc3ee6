package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/toybox-bd/storefront-api/internal/cart"
)

var (
	gramsPerKg = decimal.NewFromInt(1000)
	perKgFee   = decimal.NewFromInt(20)
)

type tier struct {
	maxGrams int64
	fee      int64
}

// tariffs lists the step fees per zone in ascending weight order. Weight above the
// last tier is charged perKgFee for every started kilogram beyond it.
var tariffs = map[Zone][]tier{
	ZoneInside: {
		{maxGrams: 150, fee: 50},
		{maxGrams: 500, fee: 60},
		{maxGrams: 1000, fee: 70},
	},
	ZoneOutside: {
		{maxGrams: 500, fee: 110},
		{maxGrams: 1000, fee: 130},
	},
}

// OrderShipping is the aggregated shipping quote for a cart.
type OrderShipping struct {
	Cost             decimal.Decimal `json:"cost"`
	TotalWeightGrams decimal.Decimal `json:"totalWeightGrams"`
	TotalWeightKg    decimal.Decimal `json:"totalWeightKg"`
}

// CalculateShippingCost returns the Taka fee for the given total weight and zone.
// Non-positive weights cost nothing. Unknown zones are charged the outside tariff.
func CalculateShippingCost(totalWeightGrams decimal.Decimal, zone Zone) decimal.Decimal {
	if !totalWeightGrams.IsPositive() {
		return decimal.Zero
	}
	tiers, ok := tariffs[zone]
	if !ok {
		tiers = tariffs[ZoneOutside]
	}
	for _, t := range tiers {
		if totalWeightGrams.LessThanOrEqual(decimal.NewFromInt(t.maxGrams)) {
			return decimal.NewFromInt(t.fee)
		}
	}
	top := tiers[len(tiers)-1]
	// 1.001 kg is charged the same as 2 kg.
	extraKg := totalWeightGrams.Sub(decimal.NewFromInt(top.maxGrams)).Div(gramsPerKg).Ceil()
	return decimal.NewFromInt(top.fee).Add(perKgFee.Mul(extraKg))
}

// TotalWeightGrams sums quantity times weight across items. Items without a weight count as zero.
func TotalWeightGrams(items []cart.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.WeightKg == nil {
			continue
		}
		total = total.Add(it.WeightKg.Mul(decimal.NewFromInt(int64(it.Quantity))).Mul(gramsPerKg))
	}
	return total
}

// CalculateOrderShipping aggregates item weights and prices them for the zone.
func CalculateOrderShipping(items []cart.LineItem, zone Zone) OrderShipping {
	grams := TotalWeightGrams(items)
	return OrderShipping{
		Cost:             CalculateShippingCost(grams, zone),
		TotalWeightGrams: grams,
		TotalWeightKg:    grams.Div(gramsPerKg),
	}
}
