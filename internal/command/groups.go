package command

import (
	"iter"
	"slices"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/TomasB/geolocate/internal/data"
	"github.com/TomasB/geolocate/internal/ipblock"
)

// group holds the blocks assigned to one country.
type group struct {
	country country.Resolved
	v4      []ipblock.Block[ipblock.V4]
	v6      []ipblock.Block[ipblock.V6]
}

func (g *group) empty() bool {
	return len(g.v4) == 0 && len(g.v6) == 0
}

// groupAll groups every block of the selected families by country code,
// ordered by code.
func groupAll(t *data.Tables, fam families) []*group {
	byCode := make(map[country.Code]*group)
	get := func(r country.Resolved) *group {
		g, ok := byCode[r.Code]
		if !ok {
			g = &group{country: r}
			byCode[r.Code] = g
		}
		return g
	}

	if fam.ipv4 {
		for b, r := range t.V4.All() {
			g := get(r)
			g.v4 = append(g.v4, b)
		}
	}
	if fam.ipv6 {
		for b, r := range t.V6.All() {
			g := get(r)
			g.v6 = append(g.v6, b)
		}
	}

	groups := make([]*group, 0, len(byCode))
	for _, g := range byCode {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b *group) int {
		return a.country.Code.Compare(b.country.Code)
	})
	return groups
}

// groupOne returns the single group for the country matching filter. It
// fails if the country table has no such country.
func groupOne(t *data.Tables, fam families, filter country.Filter) (*group, error) {
	c, err := t.Countries.Find(filter)
	if err != nil {
		return nil, err
	}

	g := &group{country: country.Present(&c)}
	if fam.ipv4 {
		g.v4 = collect(t.V4.Filter(filter.Matches))
	}
	if fam.ipv6 {
		g.v6 = collect(t.V6.Filter(filter.Matches))
	}
	return g, nil
}

func collect[A ipblock.Address[A]](seq iter.Seq2[ipblock.Block[A], country.Resolved]) []ipblock.Block[A] {
	var blocks []ipblock.Block[A]
	for b := range seq {
		blocks = append(blocks, b)
	}
	return blocks
}

// limit returns the first n elements of s, or all of them when n is 0.
func limit[S ~[]E, E any](s S, n int) S {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}
