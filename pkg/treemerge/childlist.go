package treemerge

import (
	"context"
	"fmt"
	"strings"

	"github.com/mergiraf/mergiraf/pkg/ast"
)

// mergeChildren dispatches to the ordered or commutative child-list
// algorithm depending on the language profile's policy for b's kind.
func (mg *Merger) mergeChildren(ctx context.Context, b ast.Ref, l, r side) (*MergeNode, error) {
	baseNode := mg.Base.Get(b)
	leftNode := mg.Left.Get(l.ref)
	rightNode := mg.Right.Get(r.ref)

	var children []*MergeNode
	var err error

	if mg.Profile.IsCommutative(baseNode.Kind) {
		children, err = mg.mergeCommutativeChildren(ctx, baseNode, leftNode, rightNode)
	} else {
		children, err = mg.mergeOrderedChildren(ctx, baseNode, leftNode, rightNode)
	}
	if err != nil {
		return nil, err
	}

	return &MergeNode{
		Kind:        Rebuilt,
		RebuiltKind: baseNode.Kind,
		Children:    children,
		Seps:        computeSeps(children, baseNode.Kind),
		Leading:     trivia(mg.Base, baseNode.StartByte, firstChildStart(mg.Base, baseNode)),
		Trailing:    trivia(mg.Base, lastChildEnd(mg.Base, baseNode), baseNode.EndByte),
	}, nil
}

func firstChildStart(a *ast.Ast, n *ast.AstNode) uint32 {
	if len(n.Children) == 0 {
		return n.StartByte
	}
	return a.Get(n.Children[0]).StartByte
}

func lastChildEnd(a *ast.Ast, n *ast.AstNode) uint32 {
	if len(n.Children) == 0 {
		return n.EndByte
	}
	return a.Get(n.Children[len(n.Children)-1]).EndByte
}

func trivia(a *ast.Ast, from, to uint32) string {
	if from >= to {
		return ""
	}
	return a.Source.Text[from:to]
}

// computeSeps assigns the separator written before each child: nothing
// before the first, and for later gaps the original whitespace when both
// neighbors are contiguous verbatim slices of the same source, else a profile-informed default.
func computeSeps(children []*MergeNode, parentKind string) []string {
	seps := make([]string, len(children))
	for i := 1; i < len(children); i++ {
		seps[i] = sepBetween(children[i-1], children[i], parentKind)
	}
	return seps
}

// mergeOrderedChildren merges an ordered child list: Base's children are
// the walked anchors; before each anchor,
// the insertions queued up on Left and Right since the previous anchor are
// merged into the gap (left before right, identical pairs deduped,
// same-signature divergent pairs conflicted), then the anchor's own merge
// result (possibly nil, possibly a nested conflict) is appended. A final
// gap after the last anchor is flushed at the end.
//
// Matched children always come out in Base order: a child the two sides
// reorder to different positions keeps its Base position instead of
// conflicting (see DESIGN.md).
func (mg *Merger) mergeOrderedChildren(ctx context.Context, baseNode, leftNode, rightNode *ast.AstNode) ([]*MergeNode, error) {
	leftIndexOf := indexByRef(leftNode.Children)
	rightIndexOf := indexByRef(rightNode.Children)

	var children []*MergeNode
	leftPtr, rightPtr := 0, 0

	for _, bc := range baseNode.Children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var leftGap, rightGap []ast.Ref
		if leftRef, ok := mg.MBL.Other(bc); ok {
			if idx, ok := leftIndexOf[leftRef]; ok && idx >= leftPtr {
				leftGap = mg.insertionsIn(leftNode.Children[leftPtr:idx], mg.ScriptL.OtherInserts)
				leftPtr = idx + 1
			}
		}
		if rightRef, ok := mg.MBR.Other(bc); ok {
			if idx, ok := rightIndexOf[rightRef]; ok && idx >= rightPtr {
				rightGap = mg.insertionsIn(rightNode.Children[rightPtr:idx], mg.ScriptR.OtherInserts)
				rightPtr = idx + 1
			}
		}
		children = append(children, mg.mergeGap(leftGap, rightGap)...)

		merged, err := mg.mergeNode(ctx, bc)
		if err != nil {
			return nil, err
		}
		if merged != nil {
			children = append(children, merged)
		}
	}

	leftGap := mg.insertionsIn(leftNode.Children[leftPtr:], mg.ScriptL.OtherInserts)
	rightGap := mg.insertionsIn(rightNode.Children[rightPtr:], mg.ScriptR.OtherInserts)
	children = append(children, mg.mergeGap(leftGap, rightGap)...)

	return children, nil
}

func indexByRef(refs []ast.Ref) map[ast.Ref]int {
	m := make(map[ast.Ref]int, len(refs))
	for i, r := range refs {
		m[r] = i
	}
	return m
}

// insertionsIn returns, in order, every ref in refs that has no Base
// preimage (an Inserted node per pkg/editclass).
func (mg *Merger) insertionsIn(refs []ast.Ref, inserted map[ast.Ref]bool) []ast.Ref {
	var out []ast.Ref
	for _, ref := range refs {
		if inserted[ref] {
			out = append(out, ref)
		}
	}
	return out
}

// mergeGap combines the insertions both sides queued up for the same gap
// between two anchors: left insertions first, then right,
// except that a right insertion textually identical to a left one is
// deduped into the left position, and a right insertion sharing a
// signature with a left one but differing in content becomes a conflict in
// the left one's position.
func (mg *Merger) mergeGap(leftGap, rightGap []ast.Ref) []*MergeNode {
	usedRight := make(map[int]bool)
	var out []*MergeNode

	for _, li := range leftGap {
		key := mg.signatureKey(mg.Left, li)
		matchIdx := -1
		for j, ri := range rightGap {
			if !usedRight[j] && mg.signatureKey(mg.Right, ri) == key {
				matchIdx = j
				break
			}
		}
		if matchIdx < 0 {
			out = append(out, verbatim(mg.Left, li))
			continue
		}
		usedRight[matchIdx] = true
		ri := rightGap[matchIdx]
		leftText := mg.Left.Get(li).Text(mg.Left.Source)
		rightText := mg.Right.Get(ri).Text(mg.Right.Source)
		if leftText == rightText {
			out = append(out, verbatim(mg.Left, li))
			continue
		}
		conflict := &MergeNode{
			Kind:          Conflict,
			ConflictLeft:  leftText,
			HasLeft:       true,
			ConflictRight: rightText,
			HasRight:      true,
		}
		mg.recordConflict(conflict)
		out = append(out, conflict)
	}
	for j, ri := range rightGap {
		if !usedRight[j] {
			out = append(out, verbatim(mg.Right, ri))
		}
	}
	return out
}

// sepBetween picks the separator text between two already-resolved
// siblings: if both are verbatim slices of the same source and contiguous
// there, the exact original whitespace is reused; otherwise a profile-informed default.
func sepBetween(prev, cur *MergeNode, parentKind string) string {
	if prev.Kind == Verbatim && cur.Kind == Verbatim && prev.VerbatimSrc == cur.VerbatimSrc {
		p := prev.VerbatimSrc.Get(prev.VerbatimRef)
		c := cur.VerbatimSrc.Get(cur.VerbatimRef)
		if p.EndByte <= c.StartByte {
			// Only whitespace between them means nothing was dropped in
			// between; otherwise the gap holds a node the merge removed.
			if gap := prev.VerbatimSrc.Source.Text[p.EndByte:c.StartByte]; strings.TrimSpace(gap) == "" {
				return gap
			}
		}
	}
	return defaultSeparator(parentKind)
}

// defaultSeparator heuristically picks a sibling separator for gaps with no
// original whitespace to copy (a newly inserted node, or a reordered
// commutative group). Kinds whose name suggests a block/list/statement
// context get a newline; anything else gets a single space, matching how
// most grammars lay out single-line vs multi-line constructs.
func defaultSeparator(kind string) string {
	for _, marker := range []string{"block", "body", "list", "program", "suite", "source_file", "document"} {
		if containsFold(kind, marker) {
			return "\n"
		}
	}
	return " "
}

func containsFold(s, substr string) bool {
	return len(s) >= len(substr) && indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if foldEqual(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

func foldEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// mergeCommutativeChildren merges an unordered child list: surviving Base
// children keep their relative Base order, then
// left-only insertions in left order, then right-only insertions in right
// order, with same-signature insertions from both sides deduped (identical
// content) or turned into a local conflict (differing content). Insertions
// land before any trailing delimiter tokens (a closing ")" or "}" stays
// last even though, as an unordered set, the grammar's bracketing tokens
// ride along as ordinary children).
func (mg *Merger) mergeCommutativeChildren(ctx context.Context, baseNode, leftNode, rightNode *ast.AstNode) ([]*MergeNode, error) {
	var children []*MergeNode
	seen := make(map[string]int)

	for _, bc := range baseNode.Children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		merged, err := mg.mergeNode(ctx, bc)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			continue
		}
		children = append(children, merged)
		seen[mg.signatureKey(mg.Base, bc)]++
	}

	leftGap := mg.insertionsIn(leftNode.Children, mg.ScriptL.OtherInserts)
	rightGap := mg.insertionsIn(rightNode.Children, mg.ScriptR.OtherInserts)
	insertions := mg.mergeGap(leftGap, rightGap)
	for _, ins := range insertions {
		if ins.Kind == Verbatim {
			n := ins.VerbatimSrc.Get(ins.VerbatimRef)
			seen[mg.signatureKeyOf(n)]++
		}
	}

	cut := len(children) - trailingDelimiters(children)
	merged := make([]*MergeNode, 0, len(children)+len(insertions))
	merged = append(merged, children[:cut]...)
	merged = append(merged, insertions...)
	merged = append(merged, children[cut:]...)

	for _, count := range seen {
		if count > 1 {
			// Duplicate signatures after a commutative merge are flagged for
			// the caller rather than auto-conflicted.
			mg.stats.HasAdditionalIssues = true
			break
		}
	}

	return merged, nil
}

// trailingDelimiters counts how many nodes at the tail of children are
// verbatim delimiter tokens (leaves whose kind contains no letter, like ")"
// or "}"), so commutative insertions can be spliced in front of them.
func trailingDelimiters(children []*MergeNode) int {
	count := 0
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i]
		if c.Kind != Verbatim {
			break
		}
		n := c.VerbatimSrc.Get(c.VerbatimRef)
		if !n.IsLeaf() || containsLetter(n.Kind) {
			break
		}
		count++
	}
	return count
}

func containsLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			return true
		}
	}
	return false
}

// signatureKey identifies "the same" commutative-sibling across revisions:
// the language profile's signature when the kind has one, else a
// stringified structural hash.
func (mg *Merger) signatureKey(t *ast.Ast, ref ast.Ref) string {
	return mg.signatureKeyOf(t.Get(ref))
}

func (mg *Merger) signatureKeyOf(n *ast.AstNode) string {
	if n.HasSignature {
		return "sig:" + n.Kind + ":" + n.Signature
	}
	return fmt.Sprintf("hash:%d", n.Hash)
}
