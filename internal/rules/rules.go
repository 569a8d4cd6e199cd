// Package rules holds the country rule table: the immutable mapping from
// (jurisdiction, product class) to the sale requirement. Unknown
// jurisdictions block by default; there is no silent OTC fallback.
package rules

import (
	"fmt"

	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
)

// Requirement is what a jurisdiction demands before a product class may be
// sold there.
type Requirement string

const (
	RequirementOTC         Requirement = "otc"
	RequirementRx          Requirement = "rx"
	RequirementRxColdChain Requirement = "rx_cold_chain"
)

// ParseRequirement validates a raw requirement string from configuration.
func ParseRequirement(raw string) (Requirement, error) {
	switch Requirement(raw) {
	case RequirementOTC, RequirementRx, RequirementRxColdChain:
		return Requirement(raw), nil
	default:
		return "", fmt.Errorf("unknown requirement %q", raw)
	}
}

// RequiresPrescription reports whether the requirement gates the sale
// behind an accepted prescription.
func (r Requirement) RequiresPrescription() bool {
	return r == RequirementRx || r == RequirementRxColdChain
}

// RequiresColdChain reports whether the requirement demands cold-chain
// handling.
func (r Requirement) RequiresColdChain() bool {
	return r == RequirementRxColdChain
}

// Rule is one loaded table row.
type Rule struct {
	Country     domain.CountryCode
	Class       domain.ProductClass
	Requirement Requirement
}

type ruleKey struct {
	country domain.CountryCode
	class   domain.ProductClass
}

// Table is the immutable keyed rule table. Built once at startup; reads
// need no locking.
type Table struct {
	rules map[ruleKey]Requirement
}

// NewTable builds a table from loaded rules, rejecting duplicate
// (country, class) keys.
func NewTable(loaded []Rule) (*Table, error) {
	t := &Table{rules: make(map[ruleKey]Requirement, len(loaded))}
	for _, r := range loaded {
		key := ruleKey{r.Country, r.Class}
		if _, exists := t.rules[key]; exists {
			return nil, fmt.Errorf("duplicate rule for %s/%s", r.Country, r.Class)
		}
		t.rules[key] = r.Requirement
	}
	return t, nil
}

// RequirementFor looks up the requirement for a jurisdiction and product
// class. Missing countries and missing classes both fail with
// unknown_jurisdiction: callers must treat the product as blocked, never
// as OTC.
func (t *Table) RequirementFor(country domain.CountryCode, class domain.ProductClass) (Requirement, error) {
	if req, ok := t.rules[ruleKey{country, class}]; ok {
		return req, nil
	}
	return "", dErrors.Newf(dErrors.CodeUnknownJurisdiction,
		"no rule for product class %q in jurisdiction %q", class, country)
}

// Len reports how many rules the table holds.
func (t *Table) Len() int { return len(t.rules) }
