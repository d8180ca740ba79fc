package pricing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xenking/pos-terminal/internal/domain/fault"
)

// UnknownProductError is returned when a code is not part of the catalog.
type UnknownProductError struct {
	Code string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product code %q not found", e.Code)
}

func (e *UnknownProductError) Unwrap() error { return fault.ErrNotFound }

// Catalog is an immutable set of price rules keyed by product code.
type Catalog struct {
	rules map[string]Rule
}

// NewCatalog validates rules and indexes them by code. It rejects an empty
// input and duplicate codes.
func NewCatalog(rules []Rule) (*Catalog, error) {
	if len(rules) == 0 {
		return nil, fault.Argument("catalog", "must contain at least one product")
	}

	byCode := make(map[string]Rule, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.code) == "" {
			return nil, fault.Argument("catalog", "contains a product without code")
		}
		if _, dup := byCode[r.code]; dup {
			return nil, fault.Argument("catalog", fmt.Sprintf("duplicate product code %q", r.code))
		}
		byCode[r.code] = r
	}

	return &Catalog{rules: byCode}, nil
}

// Lookup returns the rule for code.
func (c *Catalog) Lookup(code string) (*Rule, error) {
	r, ok := c.rules[code]
	if !ok {
		return nil, &UnknownProductError{Code: code}
	}
	return &r, nil
}

// Contains reports whether code is priced by the catalog.
func (c *Catalog) Contains(code string) bool {
	_, ok := c.rules[code]
	return ok
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.rules) }

// Rules returns the rules ordered by code.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Rule) int {
		return strings.Compare(a.code, b.code)
	})
	return out
}
