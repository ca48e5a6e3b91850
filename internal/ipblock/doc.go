// Package ipblock maps inclusive IP address blocks to values.
//
// The address kinds V4 and V6 are fixed-width ordered values. A Block is an
// inclusive [start, end] span over one kind, and a Map keeps (Block, value)
// entries sorted so that both a single address and an exact block can be
// looked up by binary search.
//
// Maps are usually built in bulk:
//
//	m := ipblock.WithCapacity[ipblock.V4, string](n)
//	for _, rec := range records {
//		m.InsertUnstable(rec.Block, rec.Code)
//	}
//	m.Normalize()
//
// Appending and sorting once is O(n log n); individual sorted inserts shift
// the backing slice on every call and are meant for small updates.
package ipblock
