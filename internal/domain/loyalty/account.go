package loyalty

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/fault"
)

// Account holds the accumulated gross spend of a discount card. It is safe
// for concurrent use; accumulations are never lost.
type Account struct {
	mu          sync.Mutex
	accumulated decimal.Decimal
}

// NewAccount returns an account with the given starting balance.
func NewAccount(initial decimal.Decimal) (*Account, error) {
	if initial.IsNegative() {
		return nil, fault.Argument("initial amount", "must not be negative")
	}
	return &Account{accumulated: initial}, nil
}

// Accumulated returns the current accumulated spend.
func (a *Account) Accumulated() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accumulated
}

// CurrentRate returns the discount rate for the current balance.
func (a *Account) CurrentRate() decimal.Decimal {
	return a.Tier().Rate
}

// Tier returns the tier for the current balance.
func (a *Account) Tier() Tier {
	a.mu.Lock()
	defer a.mu.Unlock()
	return TierFor(a.accumulated)
}

// Accumulate adds a gross sale amount to the balance.
func (a *Account) Accumulate(gross decimal.Decimal) error {
	if gross.IsNegative() {
		return fault.Argument("gross amount", "must not be negative")
	}
	a.mu.Lock()
	a.accumulated = a.accumulated.Add(gross)
	a.mu.Unlock()
	return nil
}

// Settle runs fn with the rate in effect before the transaction and adds the
// gross amount it returns, all under the account lock. Nothing is added when
// fn fails.
func (a *Account) Settle(fn func(rate decimal.Decimal) (gross decimal.Decimal, err error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	gross, err := fn(TierFor(a.accumulated).Rate)
	if err != nil {
		return err
	}
	if gross.IsNegative() {
		return fault.Argument("gross amount", "must not be negative")
	}
	a.accumulated = a.accumulated.Add(gross)
	return nil
}
