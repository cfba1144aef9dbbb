// Package substitute rewrites leaf values of a decoded document tree at
// selected field addresses.
//
// An address is the chain of field names from the root, each prefixed with
// a dot (".canvas.name"). Arrays do not contribute a segment: every element
// of an array is addressed like the array field itself, so a single address
// covers the same field in all elements of a homogeneous list.
package substitute

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultMaxDepth bounds object/array nesting accepted by Substitute.
const DefaultMaxDepth = 512

// ErrTooDeep is returned when a document nests deeper than MaxDepth.
var ErrTooDeep = errors.New("document nesting exceeds max depth")

// Mapping translates an old leaf value to its replacement.
type Mapping map[string]any

// Lookup returns the replacement for v. Only string values can be keys.
func (m Mapping) Lookup(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	r, ok := m[s]
	return r, ok
}

// Unresolved records an eligible field whose value has no translation.
type Unresolved struct {
	Value   any    `json:"value"`
	Address string `json:"address"`
}

func (u Unresolved) String() string {
	return fmt.Sprintf("no mapping found for %v read '%s'", u.Value, u.Address)
}

// Result summarizes one substitution pass.
type Result struct {
	Replaced   int          `json:"replaced"`
	Unresolved []Unresolved `json:"unresolved"`
}

// Substituter walks a document and applies a Mapping at the addresses
// of a PatternSet.
type Substituter struct {
	Mapping  Mapping
	Patterns PatternSet
	MaxDepth int // <= 0 means DefaultMaxDepth
}

// Substitute is shorthand for a Substituter with the default depth limit.
func Substitute(doc any, m Mapping, patterns PatternSet) (Result, error) {
	s := &Substituter{Mapping: m, Patterns: patterns}
	return s.Apply(doc)
}

// Apply mutates doc in place. Object fields are visited in sorted name order,
// which keeps the unresolved log stable across runs.
//
// The document depth is checked before anything is touched; a document that
// is too deep is returned unchanged together with ErrTooDeep.
func (s *Substituter) Apply(doc any) (Result, error) {
	var res Result

	limit := s.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if !withinDepth(doc, limit) {
		return res, fmt.Errorf("%w (%d)", ErrTooDeep, limit)
	}

	if s.Patterns.Len() == 0 {
		return res, nil
	}

	s.walk(doc, "", &res)
	return res, nil
}

func (s *Substituter) walk(node any, path string, res *Result) {
	switch n := node.(type) {
	case map[string]any:
		s.walkObject(n, path, res)
	case []any:
		for _, elem := range n {
			s.walk(elem, path, res)
		}
	}
}

func (s *Substituter) walkObject(obj map[string]any, path string, res *Result) {
	for _, name := range sortedFields(obj) {
		addr := path + "." + name

		if s.Patterns.Contains(addr) {
			if repl, ok := s.Mapping.Lookup(obj[name]); ok {
				obj[name] = clone(repl)
				res.Replaced++
			} else {
				res.Unresolved = append(res.Unresolved, Unresolved{Value: obj[name], Address: addr})
			}
		}

		switch child := obj[name].(type) {
		case map[string]any:
			s.walkObject(child, addr, res)
		case []any:
			for _, elem := range child {
				s.walk(elem, addr, res)
			}
		}
	}
}

func sortedFields(obj map[string]any) []string {
	names := make([]string, 0, len(obj))
	for k := range obj {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// withinDepth reports whether v nests at most limit levels deep.
// It walks with an explicit stack rather than recursion.
func withinDepth(v any, limit int) bool {
	type frame struct {
		node  any
		depth int
	}
	stack := []frame{{v, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := f.node.(type) {
		case map[string]any:
			if f.depth+1 > limit {
				return false
			}
			for _, c := range n {
				stack = append(stack, frame{c, f.depth + 1})
			}
		case []any:
			if f.depth+1 > limit {
				return false
			}
			for _, c := range n {
				stack = append(stack, frame{c, f.depth + 1})
			}
		}
	}
	return true
}

// clone deep-copies containers; a replacement placed at several addresses
// must not alias one subtree.
func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = clone(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = clone(c)
		}
		return out
	default:
		return v
	}
}
