package ipblock

import (
	"iter"
	"slices"
)

// Map associates values with address blocks and answers point and exact-block
// queries by binary search.
//
// A Map is either normalized (entries sorted by Block.Compare, no two entries
// with an identical block) or pending (entries appended by InsertUnstable or
// reordered by RemoveUnstable and not yet sorted). Every read operation
// requires a normalized map and panics otherwise; call Normalize after a
// series of unstable mutations.
//
// Blocks are expected not to overlap. Overlapping blocks that are not
// identical are neither detected nor rejected, and they break the binary
// search: a point query for any address covered by an overlapping block may
// return the wrong entry or nothing at all, even outside the overlap itself.
//
// The zero value is an empty, normalized map. A Map is not safe for
// concurrent mutation.
type Map[A Address[A], V any] struct {
	entries []entry[A, V]
	pending bool
}

type entry[A Address[A], V any] struct {
	block Block[A]
	value V
}

// NewMap returns an empty map.
func NewMap[A Address[A], V any]() *Map[A, V] {
	return &Map[A, V]{}
}

// WithCapacity returns an empty map with room for n entries.
func WithCapacity[A Address[A], V any](n int) *Map[A, V] {
	return &Map[A, V]{entries: make([]entry[A, V], 0, n)}
}

// FromSeq builds a map from seq, appending every pair and normalizing once
// at the end.
func FromSeq[A Address[A], V any](seq iter.Seq2[Block[A], V]) *Map[A, V] {
	m := &Map[A, V]{}
	m.Extend(seq)
	return m
}

func (m *Map[A, V]) mustBeNormalized() {
	if m.pending {
		panic("ipblock: map read while entries are pending; call Normalize first")
	}
}

func (m *Map[A, V]) searchAddress(a A) (int, bool) {
	return slices.BinarySearchFunc(m.entries, a, func(e entry[A, V], a A) int {
		return -e.block.Locate(a)
	})
}

func (m *Map[A, V]) searchBlock(b Block[A]) (int, bool) {
	return slices.BinarySearchFunc(m.entries, b, func(e entry[A, V], b Block[A]) int {
		return e.block.Compare(b)
	})
}

// swapRemove drops entry i by moving the last entry into its slot. It reports
// whether any other entry moved.
func (m *Map[A, V]) swapRemove(i int) (V, bool) {
	last := len(m.entries) - 1
	v := m.entries[i].value
	m.entries[i] = m.entries[last]
	m.entries[last] = entry[A, V]{}
	m.entries = m.entries[:last]
	return v, i != last
}

// Len returns the number of entries, including pending ones.
func (m *Map[A, V]) Len() int {
	return len(m.entries)
}

// Pending reports whether the map must be normalized before it is read.
func (m *Map[A, V]) Pending() bool {
	return m.pending
}

// ContainsAddress reports whether some block contains a.
func (m *Map[A, V]) ContainsAddress(a A) bool {
	m.mustBeNormalized()
	_, ok := m.searchAddress(a)
	return ok
}

// GetFromAddress returns the value of the block containing a.
func (m *Map[A, V]) GetFromAddress(a A) (V, bool) {
	_, v, ok := m.Find(a)
	return v, ok
}

// Find returns the block containing a together with its value.
func (m *Map[A, V]) Find(a A) (Block[A], V, bool) {
	m.mustBeNormalized()
	i, ok := m.searchAddress(a)
	if !ok {
		var zero V
		return Block[A]{}, zero, false
	}
	return m.entries[i].block, m.entries[i].value, true
}

// ContainsBlock reports whether b is present as an exact block.
func (m *Map[A, V]) ContainsBlock(b Block[A]) bool {
	m.mustBeNormalized()
	_, ok := m.searchBlock(b)
	return ok
}

// GetFromBlock returns the value stored under exactly b.
func (m *Map[A, V]) GetFromBlock(b Block[A]) (V, bool) {
	m.mustBeNormalized()
	i, ok := m.searchBlock(b)
	if !ok {
		var zero V
		return zero, false
	}
	return m.entries[i].value, true
}

// Insert stores v under b at its sorted position, normalizing first if
// needed. If b was already present its previous value is returned.
func (m *Map[A, V]) Insert(b Block[A], v V) (V, bool) {
	if m.pending {
		m.Normalize()
	}

	i, ok := m.searchBlock(b)
	if ok {
		prev := m.entries[i].value
		m.entries[i] = entry[A, V]{block: b, value: v}
		return prev, true
	}
	m.entries = slices.Insert(m.entries, i, entry[A, V]{block: b, value: v})
	var zero V
	return zero, false
}

// Remove deletes the entry stored under exactly b, keeping the remaining
// entries in order, and returns its value. The map is normalized first if
// needed.
func (m *Map[A, V]) Remove(b Block[A]) (V, bool) {
	if m.pending {
		m.Normalize()
	}

	i, ok := m.searchBlock(b)
	if !ok {
		var zero V
		return zero, false
	}
	v := m.entries[i].value
	m.entries = slices.Delete(m.entries, i, i+1)
	return v, true
}

// InsertUnstable appends v under b without sorting and leaves the map
// pending.
//
// The previous value is only reported when the map was normalized before the
// call. Once the map is pending, duplicates cannot be detected and are
// collapsed by the next Normalize instead.
func (m *Map[A, V]) InsertUnstable(b Block[A], v V) (V, bool) {
	var prev V
	var replaced bool
	if !m.pending {
		if i, ok := m.searchBlock(b); ok {
			prev, _ = m.swapRemove(i)
			replaced = true
		}
	}

	m.entries = append(m.entries, entry[A, V]{block: b, value: v})
	m.pending = true
	return prev, replaced
}

// RemoveUnstable deletes the entry stored under exactly b by swapping the
// last entry into its slot. The map must be normalized on entry.
//
// When the swap moves an entry the map is left pending, so the next read
// panics until Normalize restores the order.
func (m *Map[A, V]) RemoveUnstable(b Block[A]) (V, bool) {
	m.mustBeNormalized()
	i, ok := m.searchBlock(b)
	if !ok {
		var zero V
		return zero, false
	}
	v, moved := m.swapRemove(i)
	if moved {
		m.pending = true
	}
	return v, true
}

// Normalize sorts the entries, collapses entries with identical blocks into
// the first one the sort yields, and releases unused capacity.
func (m *Map[A, V]) Normalize() {
	slices.SortFunc(m.entries, func(x, y entry[A, V]) int {
		return x.block.Compare(y.block)
	})
	m.entries = slices.CompactFunc(m.entries, func(x, y entry[A, V]) bool {
		return x.block == y.block
	})
	if cap(m.entries) > len(m.entries) {
		m.entries = slices.Clone(m.entries)
	}
	m.pending = false
}

// Extend appends every pair of seq and normalizes once.
func (m *Map[A, V]) Extend(seq iter.Seq2[Block[A], V]) {
	for b, v := range seq {
		m.entries = append(m.entries, entry[A, V]{block: b, value: v})
	}
	m.Normalize()
}

// Clear removes every entry.
func (m *Map[A, V]) Clear() {
	clear(m.entries)
	m.entries = m.entries[:0]
	m.pending = false
}

// All yields every entry in block order.
func (m *Map[A, V]) All() iter.Seq2[Block[A], V] {
	m.mustBeNormalized()
	return func(yield func(Block[A], V) bool) {
		for _, e := range m.entries {
			if !yield(e.block, e.value) {
				return
			}
		}
	}
}

// Filter yields the entries whose value satisfies keep, in block order.
func (m *Map[A, V]) Filter(keep func(V) bool) iter.Seq2[Block[A], V] {
	m.mustBeNormalized()
	return func(yield func(Block[A], V) bool) {
		for _, e := range m.entries {
			if keep(e.value) && !yield(e.block, e.value) {
				return
			}
		}
	}
}

// Blocks yields every block in order.
func (m *Map[A, V]) Blocks() iter.Seq[Block[A]] {
	m.mustBeNormalized()
	return func(yield func(Block[A]) bool) {
		for _, e := range m.entries {
			if !yield(e.block) {
				return
			}
		}
	}
}

// Values yields every value in block order.
func (m *Map[A, V]) Values() iter.Seq[V] {
	m.mustBeNormalized()
	return func(yield func(V) bool) {
		for _, e := range m.entries {
			if !yield(e.value) {
				return
			}
		}
	}
}
