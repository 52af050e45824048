package treemerge

import (
	"context"
	"strings"

	"github.com/mergiraf/mergiraf/pkg/ast"
	"github.com/mergiraf/mergiraf/pkg/editclass"
	"github.com/mergiraf/mergiraf/pkg/lang"
	"github.com/mergiraf/mergiraf/pkg/mergeerr"
	"github.com/mergiraf/mergiraf/pkg/treematch"
)

// Merger holds everything a merge invocation needs: the three parsed
// revisions, the two Base-pivoted matchings, and their edit scripts.
type Merger struct {
	Base, Left, Right *ast.Ast
	MBL, MBR          *treematch.Matching
	ScriptL, ScriptR  *editclass.Script
	Profile           *lang.Profile

	stats Stats
}

// New builds a Merger from the matcher and classifier outputs.
func New(base, left, right *ast.Ast, mbl, mbr *treematch.Matching, scriptL, scriptR *editclass.Script, profile *lang.Profile) *Merger {
	return &Merger{Base: base, Left: left, Right: right, MBL: mbl, MBR: mbr, ScriptL: scriptL, ScriptR: scriptR, Profile: profile}
}

// Merge walks Base from the root and returns the composed merge tree plus
// its statistics. ctx is polled at every Base node visited so the
// cascade's deadline (pkg/cascade) can abandon a stuck merge.
func (mg *Merger) Merge(ctx context.Context) (*MergeNode, Stats, error) {
	root, err := mg.mergeNode(ctx, mg.Base.Root)
	if err != nil {
		return nil, Stats{}, err
	}
	if root == nil {
		// The root itself can never be legitimately "deleted"; both sides
		// matching nothing at the root indicates a broken matching.
		return nil, Stats{}, mergeerr.Internal("root node resolved to no content")
	}
	return root, mg.stats, nil
}

// side summarizes one side's relationship to a Base node, folding Moved
// into the same "changed" bucket as Modified for content-selection purposes
// (this merger preserves a moved node's content at its original Base
// position rather than relocating it across parents; see DESIGN.md).
type side struct {
	ref     ast.Ref
	matched bool
	kind    editclass.Kind
}

func (mg *Merger) leftSide(b ast.Ref) side {
	ref, matched := mg.MBL.Other(b)
	return side{ref: ref, matched: matched, kind: mg.ScriptL.BaseEdits[b]}
}

func (mg *Merger) rightSide(b ast.Ref) side {
	ref, matched := mg.MBR.Other(b)
	return side{ref: ref, matched: matched, kind: mg.ScriptR.BaseEdits[b]}
}

func (s side) deleted() bool   { return s.kind == editclass.Deleted }
func (s side) changed() bool   { return s.kind == editclass.Modified || s.kind == editclass.Moved }
func (s side) unchanged() bool { return s.kind == editclass.Unchanged }

// mergeNode resolves a single Base node through the seven edit-combination
// cases. It returns nil when the node is deleted in the merged result.
func (mg *Merger) mergeNode(ctx context.Context, b ast.Ref) (*MergeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, mergeerr.Timeout()
	}

	l := mg.leftSide(b)
	r := mg.rightSide(b)

	switch {
	case l.unchanged() && r.unchanged():
		// Case 1: both sides unchanged, reuse Base verbatim.
		return verbatim(mg.Base, b), nil

	case l.deleted() && r.deleted():
		// Case 6: both sides deleted.
		return nil, nil

	case l.deleted() && r.unchanged():
		// Case 4: one deleted, other unchanged -> delete.
		return nil, nil
	case r.deleted() && l.unchanged():
		return nil, nil

	case l.deleted() && r.changed():
		// Case 5: one deleted, other modified -> conflict (base vs ∅ vs right).
		return mg.conflictDeletedVsChanged(b, r, false), nil
	case r.deleted() && l.changed():
		return mg.conflictDeletedVsChanged(b, l, true), nil

	case l.changed() && r.unchanged():
		// Case 2: exactly one side modified, take that side.
		return verbatim(mg.Left, l.ref), nil
	case r.changed() && l.unchanged():
		return verbatim(mg.Right, r.ref), nil

	case l.changed() && r.changed():
		return mg.mergeBothChanged(ctx, b, l, r)

	default:
		return nil, mergeerr.Internal("unreachable edit combination for node %d", b)
	}
}

// mergeBothChanged handles a node both sides touched. Identical coincidental edits resolve for free; otherwise a
// structural container is recursed into, and anything else becomes a
// conflict region.
func (mg *Merger) mergeBothChanged(ctx context.Context, b ast.Ref, l, r side) (*MergeNode, error) {
	if ast.StructurallyEqual(mg.Left, l.ref, mg.Right, r.ref) {
		return verbatim(mg.Left, l.ref), nil
	}

	baseNode := mg.Base.Get(b)

	// Divergent comment edits where one side purely extends the other take
	// the extended version; only truly diverging comments conflict.
	if mg.Profile.IsComment(baseNode.Kind) {
		lt := mg.Left.Get(l.ref).Text(mg.Left.Source)
		rt := mg.Right.Get(r.ref).Text(mg.Right.Source)
		if strings.Contains(lt, rt) {
			return verbatim(mg.Left, l.ref), nil
		}
		if strings.Contains(rt, lt) {
			return verbatim(mg.Right, r.ref), nil
		}
	}

	if !baseNode.IsLeaf() && !mg.Profile.IsLeaf(baseNode.Kind) {
		return mg.mergeChildren(ctx, b, l, r)
	}

	return mg.conflictBothChanged(b, l, r), nil
}
