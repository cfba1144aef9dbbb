package substitute

import (
	"sort"
	"strings"
)

// DefaultPattern is the address translated when no key list is given.
const DefaultPattern = ".canvas.name"

// PatternSet is the set of addresses eligible for substitution.
// Membership is exact string equality.
type PatternSet map[string]struct{}

// NewPatternSet builds a set from literal addresses.
func NewPatternSet(addrs ...string) PatternSet {
	ps := make(PatternSet, len(addrs))
	for _, a := range addrs {
		ps[a] = struct{}{}
	}
	return ps
}

// ParsePatterns splits a comma-separated key list. Entries are trimmed and
// empty entries dropped.
func ParsePatterns(list string) PatternSet {
	ps := make(PatternSet)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ps[part] = struct{}{}
	}
	return ps
}

func (ps PatternSet) Contains(addr string) bool {
	_, ok := ps[addr]
	return ok
}

func (ps PatternSet) Len() int {
	return len(ps)
}

// Sorted returns the addresses in lexical order.
func (ps PatternSet) Sorted() []string {
	out := make([]string, 0, len(ps))
	for a := range ps {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
