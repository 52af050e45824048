package ast

// Height returns the subtree height rooted at ref: 0 for a leaf, else
// 1 + max(height of children). Used by the tree matcher's top-down phase
// to visit taller subtrees first.
func (a *Ast) Height(ref Ref) int {
	n := a.Get(ref)
	if n.IsLeaf() {
		return 0
	}
	best := 0
	for _, c := range n.Children {
		if h := a.Height(c); h > best {
			best = h
		}
	}
	return best + 1
}

// Size returns the number of nodes in the subtree rooted at ref, ref
// included.
func (a *Ast) Size(ref Ref) int {
	n := a.Get(ref)
	size := 1
	for _, c := range n.Children {
		size += a.Size(c)
	}
	return size
}

// PostOrder appends every descendant of ref (ref included) to out in
// post-order: children before parents, matching the order New itself
// builds nodes in.
func (a *Ast) PostOrder(ref Ref, out []Ref) []Ref {
	n := a.Get(ref)
	for _, c := range n.Children {
		out = a.PostOrder(c, out)
	}
	return append(out, ref)
}

// PreOrder appends every descendant of ref (ref included) to out in
// pre-order: parents before children.
func (a *Ast) PreOrder(ref Ref, out []Ref) []Ref {
	out = append(out, ref)
	n := a.Get(ref)
	for _, c := range n.Children {
		out = a.PreOrder(c, out)
	}
	return out
}

// StructurallyEqual reports whether the subtree rooted at refA (in a) is
// structurally identical to the one rooted at refB (in b): same kind and,
// recursively, the same ordered children, or identical text for leaves.
// Hash equality is checked first as a fast rejection; a 64-bit collision
// within one merge is possible, so a content comparison follows whenever
// the hashes agree.
func StructurallyEqual(a *Ast, refA Ref, b *Ast, refB Ref) bool {
	na, nb := a.Get(refA), b.Get(refB)
	if na.Hash != nb.Hash {
		return false
	}
	if na.Kind != nb.Kind {
		return false
	}
	if na.IsLeaf() != nb.IsLeaf() {
		return false
	}
	if na.IsLeaf() {
		return na.Text(a.Source) == nb.Text(b.Source)
	}
	if len(na.Children) != len(nb.Children) {
		return false
	}
	for i := range na.Children {
		if !StructurallyEqual(a, na.Children[i], b, nb.Children[i]) {
			return false
		}
	}
	return true
}

// DescendantSet returns the set of Refs in the subtree rooted at ref,
// ref included, as a map for fast membership tests (used by the matcher's
// bottom-up Dice-similarity phase).
func (a *Ast) DescendantSet(ref Ref) map[Ref]bool {
	set := make(map[Ref]bool)
	for _, r := range a.PreOrder(ref, nil) {
		set[r] = true
	}
	return set
}
