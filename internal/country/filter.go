package country

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound is returned when no country matches a filter.
var ErrNotFound = errors.New("unable to find country")

type filterKind uint8

const (
	byName filterKind = iota
	byCode
	byNumeric
	byCountry
)

// Filter selects countries by name, code, numeric code or identity.
type Filter struct {
	kind    filterKind
	name    string
	code    Code
	numeric uint16
	country Country
}

// ParseFilter interprets user input: a number is a numeric code, an
// upper-case letter code (or "??") is a code, anything else is a name.
func ParseFilter(s string) Filter {
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return Filter{kind: byNumeric, numeric: uint16(n)}
	}
	if code, err := ParseCode(s); err == nil && (code.IsAssigned() || s == "??") {
		return Filter{kind: byCode, code: code}
	}
	return Filter{kind: byName, name: s}
}

// ByName matches countries with exactly this name.
func ByName(name string) Filter {
	return Filter{kind: byName, name: name}
}

// ByCode matches countries with this code.
func ByCode(code Code) Filter {
	return Filter{kind: byCode, code: code}
}

// ByNumeric matches countries with this numeric code.
func ByNumeric(n uint16) Filter {
	return Filter{kind: byNumeric, numeric: n}
}

// ByCountry matches only c.
func ByCountry(c Country) Filter {
	return Filter{kind: byCountry, country: c}
}

// Test reports whether c matches f.
func (f Filter) Test(c Country) bool {
	switch f.kind {
	case byCountry:
		return c == f.country
	case byCode:
		return c.Code == f.code
	case byNumeric:
		return c.Numeric == f.numeric
	default:
		return c.Name == f.name
	}
}

// TestResolved reports whether r matches f. The second result is false when
// the question cannot be answered: a missing country only has a code, so it
// can only be tested against code filters.
func (f Filter) TestResolved(r Resolved) (match, ok bool) {
	if r.Country != nil {
		return f.Test(*r.Country), true
	}
	if f.kind == byCode {
		return r.Code == f.code, true
	}
	return false, false
}

// Matches is TestResolved treating an unanswerable test as a mismatch.
func (f Filter) Matches(r Resolved) bool {
	match, _ := f.TestResolved(r)
	return match
}

func (f Filter) String() string {
	switch f.kind {
	case byCountry:
		return fmt.Sprintf("'%s'", f.country.Name)
	case byCode:
		return fmt.Sprintf("'%s'", f.code)
	case byNumeric:
		return fmt.Sprintf("#%d", f.numeric)
	default:
		return fmt.Sprintf("'%s'", f.name)
	}
}

// Find returns the first country in t, by numeric order, matching f.
func (t *Table) Find(f Filter) (Country, error) {
	for _, c := range t.countries {
		if f.Test(c) {
			return c, nil
		}
	}
	return Country{}, fmt.Errorf("%w %s", ErrNotFound, f)
}
