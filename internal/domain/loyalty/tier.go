// Package loyalty implements the tiered discount card: accumulated gross spend
// selects a discount rate from a fixed tier table.
package loyalty

import (
	"github.com/shopspring/decimal"
)

// Tier is a named rate bracket reached once accumulated spend meets Threshold.
type Tier struct {
	Name      string
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

// Ordered from the highest threshold down; lookup returns the first match.
var tiers = []Tier{
	{Name: "platinum", Threshold: decimal.NewFromInt(10000), Rate: decimal.RequireFromString("0.07")},
	{Name: "gold", Threshold: decimal.NewFromInt(5000), Rate: decimal.RequireFromString("0.05")},
	{Name: "silver", Threshold: decimal.NewFromInt(2000), Rate: decimal.RequireFromString("0.03")},
	{Name: "bronze", Threshold: decimal.NewFromInt(1000), Rate: decimal.RequireFromString("0.01")},
}

// NoTier applies below the bronze threshold.
var NoTier = Tier{Name: "none", Threshold: decimal.Zero, Rate: decimal.Zero}

// TierFor returns the highest tier whose threshold is at most amount.
// Thresholds are inclusive.
func TierFor(amount decimal.Decimal) Tier {
	for _, t := range tiers {
		if amount.GreaterThanOrEqual(t.Threshold) {
			return t
		}
	}
	return NoTier
}

// RateFor returns the discount rate for accumulated spend amount.
func RateFor(amount decimal.Decimal) decimal.Decimal {
	return TierFor(amount).Rate
}

// Tiers returns the tier table in ascending threshold order, NoTier first.
func Tiers() []Tier {
	out := make([]Tier, 0, len(tiers)+1)
	out = append(out, NoTier)
	for i := len(tiers) - 1; i >= 0; i-- {
		out = append(out, tiers[i])
	}
	return out
}
