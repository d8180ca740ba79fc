package terminal

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/fault"
	"github.com/xenking/pos-terminal/internal/domain/loyalty"
	"github.com/xenking/pos-terminal/internal/domain/pricing"
)

// Line is the priced quantity of a single product code.
type Line struct {
	Code     string
	Quantity int
	pricing.Breakdown
}

// Terminal is a single register session. It is not safe for concurrent use.
type Terminal struct {
	catalog *pricing.Catalog
	scanned map[string]int
}

// New returns a terminal without pricing.
func New() *Terminal {
	return &Terminal{scanned: make(map[string]int)}
}

// SetPricing replaces the catalog. It fails while items are scanned; the
// previous catalog is kept on any error.
func (t *Terminal) SetPricing(rules []pricing.Rule) error {
	if t.Pending() {
		return fault.State("cannot change pricing during active transaction, clear first")
	}
	catalog, err := pricing.NewCatalog(rules)
	if err != nil {
		return err
	}
	t.catalog = catalog
	return nil
}

// SetCatalog installs an already validated catalog under the same rules as
// SetPricing.
func (t *Terminal) SetCatalog(catalog *pricing.Catalog) error {
	if catalog == nil {
		return fault.Argument("catalog", "must not be nil")
	}
	if t.Pending() {
		return fault.State("cannot change pricing during active transaction, clear first")
	}
	t.catalog = catalog
	return nil
}

// Scan adds one unit of code to the transaction.
func (t *Terminal) Scan(code string) error {
	if strings.TrimSpace(code) == "" {
		return fault.Argument("product code", "must not be blank")
	}
	if err := t.ensurePricing(); err != nil {
		return err
	}
	if !t.catalog.Contains(code) {
		return &pricing.UnknownProductError{Code: code}
	}
	t.scanned[code]++
	return nil
}

// ScanAll scans codes in order and stops at the first rejected code.
func (t *Terminal) ScanAll(codes []string) error {
	for _, code := range codes {
		if err := t.Scan(code); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties the transaction.
func (t *Terminal) Clear() {
	clear(t.scanned)
}

// Pending reports whether any item is scanned.
func (t *Terminal) Pending() bool {
	return len(t.scanned) > 0
}

// Quantity returns the scanned quantity of code.
func (t *Terminal) Quantity(code string) int {
	return t.scanned[code]
}

// CalculateTotal returns the total before loyalty discount.
func (t *Terminal) CalculateTotal() (decimal.Decimal, error) {
	if err := t.ensurePricing(); err != nil {
		return decimal.Decimal{}, err
	}
	return PriceTransaction(t.scanned, t.catalog)
}

// CalculateTotalWithCard returns the total after the card discount and adds
// the transaction's gross amount to the card.
func (t *Terminal) CalculateTotalWithCard(card *loyalty.Account) (decimal.Decimal, error) {
	s, err := t.SettleWithCard(card)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return s.Final, nil
}

// SettleWithCard is CalculateTotalWithCard returning the full summary.
func (t *Terminal) SettleWithCard(card *loyalty.Account) (Summary, error) {
	if card == nil {
		return Summary{}, fault.Argument("discount card", "must not be nil")
	}
	if err := t.ensurePricing(); err != nil {
		return Summary{}, err
	}
	return PriceTransactionWithLoyalty(t.scanned, t.catalog, card)
}

// Breakdown returns the summed breakdown of the transaction.
func (t *Terminal) Breakdown() (pricing.Breakdown, error) {
	if err := t.ensurePricing(); err != nil {
		return pricing.Breakdown{}, err
	}
	return sumBreakdowns(t.scanned, t.catalog)
}

// Lines returns the priced lines ordered by code.
func (t *Terminal) Lines() ([]Line, error) {
	if err := t.ensurePricing(); err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(t.scanned))
	for code, qty := range t.scanned {
		rule, err := t.catalog.Lookup(code)
		if err != nil {
			return nil, err
		}
		b, err := pricing.ComputeBreakdown(rule, qty)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{Code: code, Quantity: qty, Breakdown: b})
	}
	slices.SortFunc(lines, func(a, b Line) int {
		return strings.Compare(a.Code, b.Code)
	})
	return lines, nil
}

func (t *Terminal) ensurePricing() error {
	if t.catalog == nil {
		return fault.State("no pricing configured, call SetPricing first")
	}
	return nil
}
