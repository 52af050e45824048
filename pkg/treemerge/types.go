// Package treemerge composes a Base pivot plus its two edit scripts (Left
// and Right, anchored by pkg/editclass) into a single merge tree, emitting
// conflict regions only where a clean resolution can't be derived from the
// inputs.
package treemerge

import "github.com/mergiraf/mergiraf/pkg/ast"

// NodeKind distinguishes the shapes a merge tree node can take.
type NodeKind int

const (
	// Verbatim reuses an entire original byte range from one source
	// revision untouched, the cheapest path.
	Verbatim NodeKind = iota
	// Rebuilt assembles a fresh ordered child list, each separated by a
	// chosen separator string.
	Rebuilt
	// Conflict is an unresolved region carrying up to three alternative
	// byte contents.
	Conflict
)

// MergeNode is one node of the merge result tree.
type MergeNode struct {
	Kind NodeKind

	// Verbatim fields.
	VerbatimSrc *ast.Ast
	VerbatimRef ast.Ref

	// Rebuilt fields: Children[i] is preceded by Seps[i] (len(Seps) ==
	// len(Children)); Leading/Trailing are the node's own prefix/suffix
	// trivia relative to the first/last child (almost always empty, since most
	// grammars place a node's byte range flush against its first and last
	// child).
	RebuiltKind       string
	Children          []*MergeNode
	Seps              []string
	Leading, Trailing string

	// Conflict fields. HasBase/HasLeft/HasRight record which alternatives
	// are present; a one-sided deletion leaves one of Left/Right empty.
	ConflictBase, ConflictLeft, ConflictRight string
	HasBase, HasLeft, HasRight                bool
}

// Text renders a Verbatim node's original source slice. Callers must check
// Kind == Verbatim first.
func (n *MergeNode) Text() string {
	node := n.VerbatimSrc.Get(n.VerbatimRef)
	return node.Text(n.VerbatimSrc.Source)
}

// Stats accumulates the merge statistics (the method is assigned by the
// cascade, which knows whether this merge started from a
// prior line-based attempt).
type Stats struct {
	ConflictCount       int
	ConflictMass        int
	HasAdditionalIssues bool
}

func verbatim(src *ast.Ast, ref ast.Ref) *MergeNode {
	return &MergeNode{Kind: Verbatim, VerbatimSrc: src, VerbatimRef: ref}
}
