// Package survey inventories the addresses of a document and measures how
// much of it a translation table covers.
//
// Addresses follow the substitution rules: a leading dot per field name and
// no segment for array elements.
package survey

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/relabel/internal/substitute"
)

// AddressStats describes one address across the whole document.
// Occurrences are numbered in depth-first visit order (fields sorted by
// name); each string value keeps the bitmap of occurrences holding it.
type AddressStats struct {
	Address     string
	Occurrences *roaring.Bitmap
	Values      map[string]*roaring.Bitmap
	NonString   int // occurrences holding numbers, booleans, null or containers
}

// Count returns how many fields sit at this address.
func (s *AddressStats) Count() int {
	return int(s.Occurrences.GetCardinality())
}

// Cardinality returns the number of distinct string values.
func (s *AddressStats) Cardinality() int {
	return len(s.Values)
}

// Report is the address inventory of one document.
type Report struct {
	Total int // addressable fields visited
	stats map[string]*AddressStats
}

// Analyze walks doc once and records every addressable field.
func Analyze(doc any) *Report {
	r := &Report{stats: make(map[string]*AddressStats)}
	r.walk(doc, "")
	return r
}

func (r *Report) walk(v any, path string) {
	switch n := v.(type) {
	case map[string]any:
		names := make([]string, 0, len(n))
		for k := range n {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			addr := path + "." + k
			r.record(addr, n[k])
			r.walk(n[k], addr)
		}
	case []any:
		for _, elem := range n {
			r.walk(elem, path)
		}
	}
}

func (r *Report) record(addr string, v any) {
	st, ok := r.stats[addr]
	if !ok {
		st = &AddressStats{
			Address:     addr,
			Occurrences: roaring.New(),
			Values:      make(map[string]*roaring.Bitmap),
		}
		r.stats[addr] = st
	}

	id := uint32(r.Total)
	r.Total++
	st.Occurrences.Add(id)

	s, ok := v.(string)
	if !ok {
		st.NonString++
		return
	}
	bm, ok := st.Values[s]
	if !ok {
		bm = roaring.New()
		st.Values[s] = bm
	}
	bm.Add(id)
}

// Addresses returns all stats sorted by address.
func (r *Report) Addresses() []*AddressStats {
	out := make([]*AddressStats, 0, len(r.stats))
	for _, st := range r.stats {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Lookup returns the stats for one address.
func (r *Report) Lookup(addr string) (*AddressStats, bool) {
	st, ok := r.stats[addr]
	return st, ok
}

// Gap is a value found at an eligible address with no translation.
// A NonString gap groups the numbers, booleans, nulls and containers at
// the address, none of which a mapping can translate.
type Gap struct {
	Address   string
	Value     string
	Count     int
	NonString bool
}

func (g Gap) String() string {
	if g.NonString {
		return fmt.Sprintf("%s: non-string values (%d)", g.Address, g.Count)
	}
	return fmt.Sprintf("%s: %q (%d)", g.Address, g.Value, g.Count)
}

// Coverage summarizes how a mapping covers the eligible addresses.
type Coverage struct {
	Eligible   int      // fields at eligible addresses
	Translated int      // of those, fields whose value is a mapping key
	Gaps       []Gap    // untranslated fields, by address then value
	Absent     []string // patterns that match no field in the document
}

// Cover checks patterns and mapping against the report without touching
// the document.
func (r *Report) Cover(patterns substitute.PatternSet, m substitute.Mapping) Coverage {
	var c Coverage
	for _, addr := range patterns.Sorted() {
		st, ok := r.stats[addr]
		if !ok {
			c.Absent = append(c.Absent, addr)
			continue
		}

		hit := roaring.New()
		values := make([]string, 0, len(st.Values))
		for v := range st.Values {
			values = append(values, v)
		}
		sort.Strings(values)

		for _, v := range values {
			bm := st.Values[v]
			if _, ok := m[v]; ok {
				hit.Or(bm)
				continue
			}
			c.Gaps = append(c.Gaps, Gap{Address: addr, Value: v, Count: int(bm.GetCardinality())})
		}
		if st.NonString > 0 {
			c.Gaps = append(c.Gaps, Gap{Address: addr, Count: st.NonString, NonString: true})
		}

		c.Eligible += st.Count()
		c.Translated += int(hit.GetCardinality())
	}
	return c
}
