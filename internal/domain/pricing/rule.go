// Package pricing prices scanned quantities of a product. A product has a
// unit price and optionally a volume rule that sells a fixed-size pack for a
// fixed price.
package pricing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/fault"
)

// MinPackSize is the smallest pack a volume rule may offer.
const MinPackSize = 2

// VolumeRule sells PackSize units for PackPrice.
type VolumeRule struct {
	PackSize  int
	PackPrice decimal.Decimal
}

// NewVolumeRule validates and returns a volume rule.
func NewVolumeRule(packSize int, packPrice decimal.Decimal) (VolumeRule, error) {
	if packSize < MinPackSize {
		return VolumeRule{}, fault.Argument("pack size", "must be at least 2")
	}
	if packPrice.IsNegative() {
		return VolumeRule{}, fault.Argument("pack price", "must not be negative")
	}
	return VolumeRule{PackSize: packSize, PackPrice: packPrice}, nil
}

// Rule is the immutable price rule of a single product code.
type Rule struct {
	code      string
	unitPrice decimal.Decimal
	volume    VolumeRule
	hasVolume bool
}

// NewRule returns a rule priced per unit only.
func NewRule(code string, unitPrice decimal.Decimal) (Rule, error) {
	if strings.TrimSpace(code) == "" {
		return Rule{}, fault.Argument("product code", "must not be blank")
	}
	if unitPrice.IsNegative() {
		return Rule{}, fault.Argument("unit price", "must not be negative")
	}
	return Rule{code: code, unitPrice: unitPrice}, nil
}

// NewRuleWithVolume returns a rule priced per unit with an additional volume
// rule. The volume rule is validated again so a zero VolumeRule is rejected.
func NewRuleWithVolume(code string, unitPrice decimal.Decimal, volume VolumeRule) (Rule, error) {
	r, err := NewRule(code, unitPrice)
	if err != nil {
		return Rule{}, err
	}
	v, err := NewVolumeRule(volume.PackSize, volume.PackPrice)
	if err != nil {
		return Rule{}, err
	}
	r.volume = v
	r.hasVolume = true
	return r, nil
}

// Code returns the product code.
func (r Rule) Code() string { return r.code }

// UnitPrice returns the price of a single unit.
func (r Rule) UnitPrice() decimal.Decimal { return r.unitPrice }

// Volume returns the volume rule and whether the product has one.
func (r Rule) Volume() (VolumeRule, bool) { return r.volume, r.hasVolume }

// Repository provides the persisted catalog of price rules.
type Repository interface {
	List(ctx context.Context) ([]Rule, error)
	Upsert(ctx context.Context, rules []Rule) error
}
