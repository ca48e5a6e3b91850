package data

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/oschwald/geoip2-golang"
)

// MmdbReader implements CountryLookup using a MaxMind MMDB file. ISO codes
// from the database are resolved against the country table.
type MmdbReader struct {
	db        *geoip2.Reader
	countries *country.Table
}

// NewMmdbReader opens the MMDB file at the given path and returns a reader.
func NewMmdbReader(path string, countries *country.Table) (*MmdbReader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MMDB file: %w", err)
	}
	return &MmdbReader{db: db, countries: countries}, nil
}

// Lookup implements CountryLookup.
func (r *MmdbReader) Lookup(addr netip.Addr) (country.Resolved, error) {
	record, err := r.db.Country(net.IP(addr.Unmap().AsSlice()))
	if err != nil {
		return country.Resolved{}, fmt.Errorf("country lookup failed: %w", err)
	}
	if record.Country.IsoCode == "" {
		return country.Resolved{}, ErrUnmapped
	}
	code, err := country.ParseCode(record.Country.IsoCode)
	if err != nil {
		return country.Resolved{}, fmt.Errorf("country lookup failed: %w", err)
	}
	return r.countries.Resolve(code), nil
}

// Close releases the MMDB reader resources.
func (r *MmdbReader) Close() error {
	return r.db.Close()
}
