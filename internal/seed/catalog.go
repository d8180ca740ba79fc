// Package seed decodes catalog files into price rules.
package seed

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/db"
	"github.com/xenking/pos-terminal/internal/domain/pricing"
)

type ruleJSON struct {
	Code      string          `json:"code"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Volume    *struct {
		PackSize  int             `json:"pack_size"`
		PackPrice decimal.Decimal `json:"pack_price"`
	} `json:"volume"`
}

// ParseCatalog decodes a catalog file and validates it as a whole.
func ParseCatalog(data []byte) ([]pricing.Rule, error) {
	var raw []ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}

	rules := make([]pricing.Rule, 0, len(raw))
	for _, r := range raw {
		var (
			rule pricing.Rule
			err  error
		)
		if r.Volume != nil {
			rule, err = pricing.NewRuleWithVolume(r.Code, r.UnitPrice, pricing.VolumeRule{
				PackSize:  r.Volume.PackSize,
				PackPrice: r.Volume.PackPrice,
			})
		} else {
			rule, err = pricing.NewRule(r.Code, r.UnitPrice)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "rule %q", r.Code)
		}
		rules = append(rules, rule)
	}

	if _, err := pricing.NewCatalog(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// Reference returns the embedded reference catalog.
func Reference() (*pricing.Catalog, error) {
	rules, err := ParseCatalog(db.ReferenceCatalog)
	if err != nil {
		return nil, errors.Wrap(err, "reference catalog")
	}
	return pricing.NewCatalog(rules)
}
