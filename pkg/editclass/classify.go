// Package editclass labels every Base node's edit relative to a single
// Other revision (Left or Right), and every unmatched Other node as an
// insertion.
package editclass

import (
	"github.com/mergiraf/mergiraf/pkg/ast"
	"github.com/mergiraf/mergiraf/pkg/treematch"
)

// Kind is a per-node edit classification against Base.
type Kind int

const (
	Unchanged Kind = iota
	Modified
	Moved
	Deleted
	Inserted
)

func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Modified:
		return "modified"
	case Moved:
		return "moved"
	case Deleted:
		return "deleted"
	case Inserted:
		return "inserted"
	default:
		return "unknown"
	}
}

// Script is the classification of every node in one revision pair,
// anchored on Base: BaseEdits[ref] for Base nodes (Unchanged, Modified,
// Moved, or Deleted) and OtherInserts for Other nodes with no Base preimage.
type Script struct {
	BaseEdits    map[ast.Ref]Kind
	OtherInserts map[ast.Ref]bool
}

// Classify builds the edit script for (base, other) given their matching.
// The rules:
//
//	matched + identical subtree      -> Unchanged
//	matched + same parent match      -> Modified
//	matched + different parent match -> Moved
//	unmatched Base node              -> Deleted
//	unmatched Other node              -> Inserted
func Classify(base, other *ast.Ast, m *treematch.Matching) *Script {
	s := &Script{
		BaseEdits:    make(map[ast.Ref]Kind),
		OtherInserts: make(map[ast.Ref]bool),
	}

	for _, b := range base.PreOrder(base.Root, nil) {
		o, matched := m.Other(b)
		if !matched {
			s.BaseEdits[b] = Deleted
			continue
		}
		if ast.StructurallyEqual(base, b, other, o) {
			s.BaseEdits[b] = Unchanged
			continue
		}
		if sameParentMatch(base, other, m, b, o) {
			s.BaseEdits[b] = Modified
		} else {
			s.BaseEdits[b] = Moved
		}
	}

	for _, o := range other.PreOrder(other.Root, nil) {
		if _, matched := m.Base(o); !matched {
			s.OtherInserts[o] = true
		}
	}

	return s
}

// sameParentMatch reports whether o's parent is the node b's parent is
// matched to (parent_match(n) = parent(n')). The Base root
// has no parent on either side, so it trivially counts as unmoved.
func sameParentMatch(base, other *ast.Ast, m *treematch.Matching, b, o ast.Ref) bool {
	bp := base.Get(b).Parent
	op := other.Get(o).Parent
	if bp == ast.NilRef || op == ast.NilRef {
		return bp == ast.NilRef && op == ast.NilRef
	}
	matchedParent, ok := m.Other(bp)
	if !ok {
		return false
	}
	return matchedParent == op
}
