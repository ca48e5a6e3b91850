// Package country defines ISO-3166 country records, their codes and the
// reference table used to resolve codes found in address data.
package country

import "cmp"

// NoNumeric is the numeric code used for countries without one.
const NoNumeric uint16 = 1<<16 - 1

// Country is an ISO-3166 country.
type Country struct {
	Name    string `json:"name"`
	Code    Code   `json:"code"`
	Numeric uint16 `json:"numeric"`
}

// Compare orders countries by numeric code, then by code.
func (c Country) Compare(other Country) int {
	if r := cmp.Compare(c.Numeric, other.Numeric); r != 0 {
		return r
	}
	return c.Code.Compare(other.Code)
}

// Resolved is the outcome of resolving a code against a Table: either a known
// country, or only the code when the table has no record for it.
type Resolved struct {
	Code    Code
	Country *Country
}

// Missing returns a Resolved carrying only code.
func Missing(code Code) Resolved {
	return Resolved{Code: code}
}

// Present returns a Resolved for a known country.
func Present(c *Country) Resolved {
	return Resolved{Code: c.Code, Country: c}
}

// Found reports whether the country record is known.
func (r Resolved) Found() bool {
	return r.Country != nil
}

// String returns the country name, or the bare code if it is missing.
func (r Resolved) String() string {
	if r.Country != nil {
		return r.Country.Name
	}
	return r.Code.String()
}
