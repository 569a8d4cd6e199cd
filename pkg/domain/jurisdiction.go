package domain

import "strings"

// CountryCode is an ISO-3166-style two-letter jurisdiction code, with one
// extension: "EU" is accepted as a blanket jurisdiction for sellers
// operating under a union-wide license.
type CountryCode string

// NormalizeCountry trims and upper-cases a raw country code.
func NormalizeCountry(raw string) CountryCode {
	return CountryCode(strings.ToUpper(strings.TrimSpace(raw)))
}

func (c CountryCode) String() string { return string(c) }

// Valid reports whether the code is two uppercase ASCII letters.
func (c CountryCode) Valid() bool {
	if len(c) != 2 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ProductClass is the regulatory class of a medicine ("otc", "antibiotic",
// "insulin", "supplement", ...). Classes are free-form strings matched
// against the country rule table, always lower-case.
type ProductClass string

// NormalizeProductClass trims and lower-cases a raw product class.
func NormalizeProductClass(raw string) ProductClass {
	return ProductClass(strings.ToLower(strings.TrimSpace(raw)))
}

func (p ProductClass) String() string { return string(p) }
