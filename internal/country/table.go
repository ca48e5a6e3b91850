package country

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// Table is an immutable code to country mapping. It is built once and then
// shared read-only.
type Table struct {
	byCode    map[Code]*Country
	countries []Country
}

// NewTable builds a table from countries. When two records share a code the
// later one wins and the earlier one is dropped.
func NewTable(countries []Country) *Table {
	last := make(map[Code]int, len(countries))
	for i, c := range countries {
		last[c.Code] = i
	}

	t := &Table{
		byCode:    make(map[Code]*Country, len(last)),
		countries: make([]Country, 0, len(last)),
	}
	for i, c := range countries {
		if last[c.Code] == i {
			t.countries = append(t.countries, c)
		}
	}
	slices.SortFunc(t.countries, Country.Compare)
	for i := range t.countries {
		t.byCode[t.countries[i].Code] = &t.countries[i]
	}
	return t
}

// ReadTable decodes a JSON array of countries.
func ReadTable(r io.Reader) (*Table, error) {
	var countries []Country
	if err := json.NewDecoder(r).Decode(&countries); err != nil {
		return nil, fmt.Errorf("failed to decode countries: %w", err)
	}
	return NewTable(countries), nil
}

// ReadTableFile decodes the JSON country file at path.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open country file: %w", err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Len returns the number of countries in the table.
func (t *Table) Len() int {
	return len(t.countries)
}

// Lookup returns the country with the given code.
func (t *Table) Lookup(code Code) (Country, bool) {
	c, ok := t.byCode[code]
	if !ok {
		return Country{}, false
	}
	return *c, true
}

// Resolve returns the country for code, or a missing result carrying code.
func (t *Table) Resolve(code Code) Resolved {
	if c, ok := t.byCode[code]; ok {
		return Present(c)
	}
	return Missing(code)
}

// Countries returns every country ordered by numeric code.
func (t *Table) Countries() []Country {
	return slices.Clone(t.countries)
}
