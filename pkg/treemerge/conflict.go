package treemerge

import "github.com/mergiraf/mergiraf/pkg/ast"

// conflictBothChanged builds a three-way conflict region from a Base node
// both sides modified incompatibly.
func (mg *Merger) conflictBothChanged(b ast.Ref, l, r side) *MergeNode {
	n := &MergeNode{
		Kind:          Conflict,
		ConflictBase:  mg.Base.Get(b).Text(mg.Base.Source),
		HasBase:       true,
		ConflictLeft:  mg.Left.Get(l.ref).Text(mg.Left.Source),
		HasLeft:       true,
		ConflictRight: mg.Right.Get(r.ref).Text(mg.Right.Source),
		HasRight:      true,
	}
	mg.recordConflict(n)
	return n
}

// conflictDeletedVsChanged builds the delete-versus-modify conflict: one
// side deleted the node, the other changed it. deletedIsRight reports which side
// is the empty alternative.
func (mg *Merger) conflictDeletedVsChanged(b ast.Ref, changedSide side, deletedIsRight bool) *MergeNode {
	n := &MergeNode{
		Kind:         Conflict,
		ConflictBase: mg.Base.Get(b).Text(mg.Base.Source),
		HasBase:      true,
	}
	if deletedIsRight {
		n.ConflictLeft = mg.Left.Get(changedSide.ref).Text(mg.Left.Source)
		n.HasLeft = true
	} else {
		n.ConflictRight = mg.Right.Get(changedSide.ref).Text(mg.Right.Source)
		n.HasRight = true
	}
	mg.recordConflict(n)
	return n
}

// recordConflict updates the running merge statistics: one conflict region, counted once, with its mass being the
// byte length of the largest of its present alternatives.
func (mg *Merger) recordConflict(n *MergeNode) {
	mg.stats.ConflictCount++
	mass := len(n.ConflictLeft)
	if len(n.ConflictRight) > mass {
		mass = len(n.ConflictRight)
	}
	if len(n.ConflictBase) > mass {
		mass = len(n.ConflictBase)
	}
	mg.stats.ConflictMass += mass
}
