package country

import (
	"cmp"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidCode is returned when a country code has the wrong length.
var ErrInvalidCode = errors.New("invalid country code")

// Kind classifies a Code.
type Kind uint8

const (
	// Unassigned is a well-sized code that is not made of upper-case letters.
	Unassigned Kind = iota
	Alpha2
	Alpha3
	Alpha4
)

func (k Kind) String() string {
	switch k {
	case Alpha2:
		return "alpha-2"
	case Alpha3:
		return "alpha-3"
	case Alpha4:
		return "alpha-4"
	default:
		return "unassigned"
	}
}

// rank orders kinds with Unassigned last.
func (k Kind) rank() int {
	if k == Unassigned {
		return 4
	}
	return int(k)
}

// Code is a two, three or four letter country code, or the unassigned
// sentinel. The zero value is the unassigned sentinel. Codes are comparable
// and can be used as map keys.
type Code struct {
	kind    Kind
	letters [4]byte
}

// UnassignedCode is the sentinel for codes that could not be classified.
var UnassignedCode = Code{}

// ParseCode classifies s by its length. Lengths other than 2, 3 or 4 fail
// with ErrInvalidCode; a well-sized string that is not all upper-case ASCII
// letters yields UnassignedCode without error.
func ParseCode(s string) (Code, error) {
	var kind Kind
	switch utf8.RuneCountInString(s) {
	case 2:
		kind = Alpha2
	case 3:
		kind = Alpha3
	case 4:
		kind = Alpha4
	default:
		return Code{}, fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}

	// A multi-byte rune makes len(s) exceed the rune count; such strings
	// are never all upper-case ASCII.
	if len(s) > 4 {
		return UnassignedCode, nil
	}
	c := Code{kind: kind}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return UnassignedCode, nil
		}
		c.letters[i] = s[i]
	}
	return c, nil
}

// MustParseCode is like ParseCode but panics on error.
func MustParseCode(s string) Code {
	c, err := ParseCode(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Kind returns the classification of c.
func (c Code) Kind() Kind {
	return c.kind
}

// IsAssigned reports whether c is a real letter code.
func (c Code) IsAssigned() bool {
	return c.kind != Unassigned
}

// Compare orders codes by kind (alpha-2 first, unassigned last), then by
// their letters.
func (c Code) Compare(other Code) int {
	if r := cmp.Compare(c.kind.rank(), other.kind.rank()); r != 0 {
		return r
	}
	for i := range c.letters {
		if r := cmp.Compare(c.letters[i], other.letters[i]); r != 0 {
			return r
		}
	}
	return 0
}

func (c Code) String() string {
	if c.kind == Unassigned {
		return "??"
	}
	n := int(c.kind) + 1
	return string(c.letters[:n])
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(text []byte) error {
	parsed, err := ParseCode(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
