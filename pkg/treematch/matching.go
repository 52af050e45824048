// Package treematch implements the two-phase GumTree-style tree matcher.
// It produces a partial bijection between a Base tree and a Left or Right
// tree, used twice per merge (once per side) with Base as the common pivot.
package treematch

import "github.com/mergiraf/mergiraf/pkg/ast"

// Matching is a partial bijection between Base nodes and nodes of a single
// Other tree (Left or Right). A match requires identical kind (enforced by
// every code path that calls Match).
type Matching struct {
	baseToOther map[ast.Ref]ast.Ref
	otherToBase map[ast.Ref]ast.Ref
}

// New returns an empty Matching.
func New() *Matching {
	return &Matching{
		baseToOther: make(map[ast.Ref]ast.Ref),
		otherToBase: make(map[ast.Ref]ast.Ref),
	}
}

// Match records that b (a Base node) corresponds to o (an Other node).
// Re-matching either side overwrites its previous pairing, so callers
// should check IsBaseMatched/IsOtherMatched first when that isn't intended.
func (m *Matching) Match(b, o ast.Ref) {
	m.baseToOther[b] = o
	m.otherToBase[o] = b
}

// Other returns the Other node matched to Base node b.
func (m *Matching) Other(b ast.Ref) (ast.Ref, bool) {
	o, ok := m.baseToOther[b]
	return o, ok
}

// Base returns the Base node matched to Other node o.
func (m *Matching) Base(o ast.Ref) (ast.Ref, bool) {
	b, ok := m.otherToBase[o]
	return b, ok
}

// IsBaseMatched reports whether b already has an Other partner.
func (m *Matching) IsBaseMatched(b ast.Ref) bool {
	_, ok := m.baseToOther[b]
	return ok
}

// IsOtherMatched reports whether o already has a Base partner.
func (m *Matching) IsOtherMatched(o ast.Ref) bool {
	_, ok := m.otherToBase[o]
	return ok
}

// Len returns the number of matched pairs.
func (m *Matching) Len() int { return len(m.baseToOther) }

// Pairs calls f for every matched (base, other) pair. Iteration order is
// unspecified; callers needing determinism should sort the results.
func (m *Matching) Pairs(f func(b, o ast.Ref)) {
	for b, o := range m.baseToOther {
		f(b, o)
	}
}
