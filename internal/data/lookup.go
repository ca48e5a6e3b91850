package data

import (
	"errors"
	"net/netip"

	"github.com/TomasB/geolocate/internal/country"
	multierror "github.com/hashicorp/go-multierror"
)

// ErrUnmapped is returned when no block covers an address.
var ErrUnmapped = errors.New("the given ip address is unmapped")

// CountryLookup defines the interface for IP-to-country lookups.
type CountryLookup interface {
	// Lookup returns the country assigned to addr. It returns ErrUnmapped
	// when addr is not covered by any known block.
	Lookup(addr netip.Addr) (country.Resolved, error)

	// Close releases any resources held by the lookup implementation.
	Close() error
}

// Chain consults each lookup in order and returns the first answer that is
// not ErrUnmapped.
type Chain []CountryLookup

// Lookup implements CountryLookup.
func (c Chain) Lookup(addr netip.Addr) (country.Resolved, error) {
	for _, l := range c {
		r, err := l.Lookup(addr)
		if errors.Is(err, ErrUnmapped) {
			continue
		}
		return r, err
	}
	return country.Resolved{}, ErrUnmapped
}

// Close closes every lookup in the chain.
func (c Chain) Close() error {
	var result *multierror.Error
	for _, l := range c {
		if err := l.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
