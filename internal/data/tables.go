package data

import (
	"errors"
	"net/netip"
	"sync/atomic"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/TomasB/geolocate/internal/ipblock"
)

// Sources names the files a set of tables is built from.
type Sources struct {
	IPv4      string
	IPv6      string
	Countries string
}

// Tables holds the IPv4 and IPv6 maps built from one set of sources. Once
// returned by LoadTables a Tables is never mutated again.
type Tables struct {
	V4        *V4Map
	V6        *V6Map
	Countries *country.Table
}

// LoadTables reads the country table and both record files.
func LoadTables(src Sources) (*Tables, error) {
	countries, err := country.ReadTableFile(src.Countries)
	if err != nil {
		return nil, err
	}
	v4, err := LoadV4File(src.IPv4, countries)
	if err != nil {
		return nil, err
	}
	v6, err := LoadV6File(src.IPv6, countries)
	if err != nil {
		return nil, err
	}
	return &Tables{V4: v4, V6: v6, Countries: countries}, nil
}

// Lookup implements CountryLookup, routing addr to the table for its family.
func (t *Tables) Lookup(addr netip.Addr) (country.Resolved, error) {
	var (
		r  country.Resolved
		ok bool
	)
	if v4, is4 := ipblock.V4FromAddr(addr); is4 {
		r, ok = t.V4.GetFromAddress(v4)
	} else if v6, is6 := ipblock.V6FromAddr(addr); is6 {
		r, ok = t.V6.GetFromAddress(v6)
	}
	if !ok {
		return country.Resolved{}, ErrUnmapped
	}
	return r, nil
}

// Close implements CountryLookup.
func (t *Tables) Close() error {
	return nil
}

// ErrNotLoaded is returned by Live before any tables were stored.
var ErrNotLoaded = errors.New("tables not loaded")

// Live holds the current Tables and lets a reloader replace them while
// lookups are running. Each Tables value is itself read-only.
type Live struct {
	current atomic.Pointer[Tables]
}

// NewLive returns a Live serving t.
func NewLive(t *Tables) *Live {
	l := &Live{}
	l.Store(t)
	return l
}

// Load returns the current tables, or nil.
func (l *Live) Load() *Tables {
	return l.current.Load()
}

// Store replaces the current tables.
func (l *Live) Store(t *Tables) {
	l.current.Store(t)
}

// Ready reports whether tables are available.
func (l *Live) Ready() error {
	if l.current.Load() == nil {
		return ErrNotLoaded
	}
	return nil
}

// Lookup implements CountryLookup.
func (l *Live) Lookup(addr netip.Addr) (country.Resolved, error) {
	t := l.current.Load()
	if t == nil {
		return country.Resolved{}, ErrNotLoaded
	}
	return t.Lookup(addr)
}

// Close implements CountryLookup.
func (l *Live) Close() error {
	return nil
}
