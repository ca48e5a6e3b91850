package ipblock

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"lukechampine.com/uint128"
)

// Address is the set of types that can be used as block endpoints.
//
// Implementations are small value types with a total order.
type Address[A any] interface {
	comparable

	// Compare returns -1, 0 or +1 depending on whether the receiver sorts
	// before, equal to, or after other.
	Compare(other A) int

	String() string
}

// V4 is a 32-bit IPv4 address.
type V4 uint32

var _ Block[V4]

// V4FromAddr converts a netip.Addr into a V4. IPv4-mapped IPv6 addresses are
// unmapped first; any other IPv6 address is rejected.
func V4FromAddr(addr netip.Addr) (V4, bool) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, false
	}
	b := addr.As4()
	return V4(binary.BigEndian.Uint32(b[:])), true
}

// ParseV4 parses either a dotted-decimal address or its unsigned integer form.
func ParseV4(s string) (V4, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return 0, fmt.Errorf("invalid ipv4 address %q: %w", s, err)
		}
		if !addr.Is4() {
			return 0, fmt.Errorf("invalid ipv4 address %q", s)
		}
		v, _ := V4FromAddr(addr)
		return v, nil
	}

	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ipv4 address %q: %w", s, err)
	}
	return V4(n), nil
}

// Compare implements Address.
func (a V4) Compare(other V4) int {
	return cmp.Compare(a, other)
}

// Addr converts a to a netip.Addr.
func (a V4) Addr() netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(a))
	return netip.AddrFrom4(b)
}

func (a V4) String() string {
	return a.Addr().String()
}

// V6 is a 128-bit IPv6 address.
type V6 struct {
	bits uint128.Uint128
}

var _ Block[V6]

// V6FromUint128 wraps the raw 128-bit value of an address.
func V6FromUint128(u uint128.Uint128) V6 {
	return V6{bits: u}
}

// V6FromAddr converts a netip.Addr into a V6. IPv4 addresses are rejected.
func V6FromAddr(addr netip.Addr) (V6, bool) {
	if !addr.Is6() {
		return V6{}, false
	}
	b := addr.As16()
	return V6{bits: uint128.FromBytesBE(b[:])}, true
}

// ParseV6 parses either a colon-hex address or its unsigned integer form.
func ParseV6(s string) (V6, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return V6{}, fmt.Errorf("invalid ipv6 address %q: %w", s, err)
		}
		v, ok := V6FromAddr(addr)
		if !ok {
			return V6{}, fmt.Errorf("invalid ipv6 address %q", s)
		}
		return v, nil
	}

	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < '0' || r > '9' }) {
		return V6{}, fmt.Errorf("invalid ipv6 address %q", s)
	}
	u, err := uint128.FromString(s)
	if err != nil {
		return V6{}, fmt.Errorf("invalid ipv6 address %q: %w", s, err)
	}
	return V6{bits: u}, nil
}

// Uint128 returns the raw 128-bit value of a.
func (a V6) Uint128() uint128.Uint128 {
	return a.bits
}

// Compare implements Address.
func (a V6) Compare(other V6) int {
	return a.bits.Cmp(other.bits)
}

// Addr converts a to a netip.Addr.
func (a V6) Addr() netip.Addr {
	var b [16]byte
	a.bits.PutBytesBE(b[:])
	return netip.AddrFrom16(b)
}

func (a V6) String() string {
	return a.Addr().String()
}
