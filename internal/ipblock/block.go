package ipblock

import (
	"errors"
	"fmt"
	"slices"
)

// ErrEmptyBlock is returned when a block would have its start after its end.
var ErrEmptyBlock = errors.New("the given range is empty or inverted")

// Block is an inclusive span of addresses. The zero value is the single
// address block containing the zero address.
type Block[A Address[A]] struct {
	start, end A
}

// TryNew returns the block [start, end], or ErrEmptyBlock if start > end.
func TryNew[A Address[A]](start, end A) (Block[A], error) {
	if start.Compare(end) > 0 {
		return Block[A]{}, fmt.Errorf("%w: %s > %s", ErrEmptyBlock, start, end)
	}
	return Block[A]{start: start, end: end}, nil
}

// New returns the block [start, end]. The caller must already know that
// start <= end; New panics otherwise.
func New[A Address[A]](start, end A) Block[A] {
	if start.Compare(end) > 0 {
		panic(fmt.Sprintf("ipblock: inverted block %s .. %s", start, end))
	}
	return Block[A]{start: start, end: end}
}

// Single returns the block holding only a.
func Single[A Address[A]](a A) Block[A] {
	return Block[A]{start: a, end: a}
}

// Span returns the smallest block covering every given address.
func Span[A Address[A]](addrs ...A) (Block[A], error) {
	if len(addrs) == 0 {
		return Block[A]{}, ErrEmptyBlock
	}
	compare := func(x, y A) int { return x.Compare(y) }
	lo := slices.MinFunc(addrs, compare)
	hi := slices.MaxFunc(addrs, compare)
	return Block[A]{start: lo, end: hi}, nil
}

// Start returns the first address of b.
func (b Block[A]) Start() A {
	return b.start
}

// End returns the last address of b.
func (b Block[A]) End() A {
	return b.end
}

// Contains reports whether a lies within b.
func (b Block[A]) Contains(a A) bool {
	return b.Locate(a) == 0
}

// Locate reports where a falls relative to b: -1 if a is below the start,
// +1 if a is above the end, and 0 if b contains a.
//
// For sorted, non-overlapping blocks this agrees with Compare: if b sorts
// before c and b contains a, then a is below the start of c.
func (b Block[A]) Locate(a A) int {
	switch {
	case a.Compare(b.start) < 0:
		return -1
	case a.Compare(b.end) > 0:
		return 1
	default:
		return 0
	}
}

// Compare orders blocks by start address, then by end address.
func (b Block[A]) Compare(other Block[A]) int {
	if c := b.start.Compare(other.start); c != 0 {
		return c
	}
	return b.end.Compare(other.end)
}

func (b Block[A]) String() string {
	return fmt.Sprintf("%s .. %s", b.start, b.end)
}
