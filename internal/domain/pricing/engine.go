package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/fault"
)

// Breakdown splits a line total into the parts loyalty processing needs.
type Breakdown struct {
	// Total is the amount owed before any loyalty discount.
	Total decimal.Decimal
	// CardEligible is the part of Total charged at unit price. Packed units
	// are already discounted and never eligible.
	CardEligible decimal.Decimal
	// Gross is unit price times quantity, whatever pricing was charged.
	Gross decimal.Decimal
}

// Add returns the field-wise sum of b and o.
func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		Total:        b.Total.Add(o.Total),
		CardEligible: b.CardEligible.Add(o.CardEligible),
		Gross:        b.Gross.Add(o.Gross),
	}
}

// ZeroBreakdown is the breakdown of an empty line.
func ZeroBreakdown() Breakdown {
	return Breakdown{
		Total:        decimal.Zero,
		CardEligible: decimal.Zero,
		Gross:        decimal.Zero,
	}
}

// ComputeBreakdown prices quantity units of rule. With a volume rule the
// quantity is split into full packs and a remainder in [0, PackSize-1]; only
// the remainder is card eligible.
func ComputeBreakdown(rule *Rule, quantity int) (Breakdown, error) {
	if err := checkArgs(rule, quantity); err != nil {
		return Breakdown{}, err
	}
	if quantity == 0 {
		return ZeroBreakdown(), nil
	}

	gross := times(rule.unitPrice, quantity)
	if !rule.hasVolume {
		return Breakdown{Total: gross, CardEligible: gross, Gross: gross}, nil
	}

	packs, remainder := splitPacks(quantity, rule.volume.PackSize)
	packed := times(rule.volume.PackPrice, packs)
	loose := times(rule.unitPrice, remainder)

	return Breakdown{
		Total:        packed.Add(loose),
		CardEligible: loose,
		Gross:        gross,
	}, nil
}

// ComputePrice returns only the total of ComputeBreakdown.
func ComputePrice(rule *Rule, quantity int) (decimal.Decimal, error) {
	b, err := ComputeBreakdown(rule, quantity)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return b.Total, nil
}

func checkArgs(rule *Rule, quantity int) error {
	if rule == nil {
		return fault.Argument("price rule", "must not be nil")
	}
	if quantity < 0 {
		return fault.Argument("quantity", "must not be negative")
	}
	return nil
}

func splitPacks(quantity, packSize int) (packs, remainder int) {
	return quantity / packSize, quantity % packSize
}

func times(price decimal.Decimal, n int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(n)))
}
