// Package terminal implements the point-of-sale session: a configured catalog,
// the quantities scanned so far and the transaction totals.
package terminal

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/fault"
	"github.com/xenking/pos-terminal/internal/domain/loyalty"
	"github.com/xenking/pos-terminal/internal/domain/pricing"
)

// Summary is the priced result of a transaction paid with a discount card.
type Summary struct {
	pricing.Breakdown
	Rate     decimal.Decimal
	Discount decimal.Decimal
	Final    decimal.Decimal
}

// PriceTransaction sums the price of every scanned line. Any code missing
// from the catalog fails the whole transaction.
func PriceTransaction(counts map[string]int, catalog *pricing.Catalog) (decimal.Decimal, error) {
	b, err := sumBreakdowns(counts, catalog)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return b.Total, nil
}

// PriceTransactionWithLoyalty prices the transaction, discounts the card
// eligible part at the account's current rate and then accumulates the gross
// amount. The rate is read before this transaction's spend is added.
func PriceTransactionWithLoyalty(
	counts map[string]int,
	catalog *pricing.Catalog,
	account *loyalty.Account,
) (Summary, error) {
	if account == nil {
		return Summary{}, fault.Argument("loyalty account", "must not be nil")
	}

	var s Summary
	err := account.Settle(func(rate decimal.Decimal) (decimal.Decimal, error) {
		b, err := sumBreakdowns(counts, catalog)
		if err != nil {
			return decimal.Decimal{}, err
		}
		s = Apply(b, rate)
		return b.Gross, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return s, nil
}

// Apply discounts the card eligible part of b at rate.
func Apply(b pricing.Breakdown, rate decimal.Decimal) Summary {
	discount := b.CardEligible.Mul(rate)
	return Summary{
		Breakdown: b,
		Rate:      rate,
		Discount:  discount,
		Final:     b.Total.Sub(discount),
	}
}

func sumBreakdowns(counts map[string]int, catalog *pricing.Catalog) (pricing.Breakdown, error) {
	if catalog == nil {
		return pricing.Breakdown{}, fault.State("no pricing configured")
	}

	sum := pricing.ZeroBreakdown()
	for code, qty := range counts {
		rule, err := catalog.Lookup(code)
		if err != nil {
			return pricing.Breakdown{}, err
		}
		b, err := pricing.ComputeBreakdown(rule, qty)
		if err != nil {
			return pricing.Breakdown{}, err
		}
		sum = sum.Add(b)
	}
	return sum, nil
}
