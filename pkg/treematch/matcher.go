package treematch

import (
	"context"
	"sort"

	"github.com/mergiraf/mergiraf/pkg/ast"
	"github.com/mergiraf/mergiraf/pkg/mergeerr"
)

// Match computes the Base↔Other matching: a top-down anchor
// pass over tall, structurally identical subtrees, followed by a bottom-up
// recovery pass over internal nodes whose descendants already carry enough
// matched mass. ctx is polled between the two phases and, within phase 2,
// between base subtrees, so a cascade deadline (pkg/cascade) can abandon a
// stuck match without leaking the partially built Matching.
func Match(ctx context.Context, base, other *ast.Ast, opts Options) (*Matching, error) {
	m := New()
	locked := make(map[ast.Ref]bool)

	topDown(base, other, opts, m, locked)

	if err := ctx.Err(); err != nil {
		return nil, mergeerr.Timeout()
	}

	// The two roots always correspond when their kinds agree: bottom-up
	// recovery needs the root pair in place since it never considers the
	// root itself, and a merge without matched roots cannot even start.
	if !m.IsBaseMatched(base.Root) && !m.IsOtherMatched(other.Root) &&
		base.Get(base.Root).Kind == other.Get(other.Root).Kind {
		m.Match(base.Root, other.Root)
	}

	bottomUp(ctx, base, other, opts, m)

	if err := ctx.Err(); err != nil {
		return nil, mergeerr.Timeout()
	}

	containerRecovery(base, other, m)

	return m, nil
}

// containerRecovery walks matched pairs from the root down and aligns
// children the hash and Dice phases left unmatched whenever the pairing is
// unambiguous: under a matched parent pair, an unmatched child kind with
// exactly one occurrence on each side can only correspond to itself. This
// recovers structural containers (an import list, a function body) whose
// contents changed too much for Dice similarity to clear its threshold,
// without ever guessing between multiple candidates.
func containerRecovery(base, other *ast.Ast, m *Matching) {
	var queue [][2]ast.Ref
	if o, ok := m.Other(base.Root); ok {
		queue = append(queue, [2]ast.Ref{base.Root, o})
	}

	for len(queue) > 0 {
		pair := queue[0]
		queue = queue[1:]
		bn, on := base.Get(pair[0]), other.Get(pair[1])

		baseByKind := make(map[string][]ast.Ref)
		for _, c := range bn.Children {
			if !m.IsBaseMatched(c) {
				k := base.Get(c).Kind
				baseByKind[k] = append(baseByKind[k], c)
			}
		}
		otherByKind := make(map[string][]ast.Ref)
		for _, c := range on.Children {
			if !m.IsOtherMatched(c) {
				k := other.Get(c).Kind
				otherByKind[k] = append(otherByKind[k], c)
			}
		}
		for kind, bcs := range baseByKind {
			ocs := otherByKind[kind]
			if len(bcs) == 1 && len(ocs) == 1 {
				m.Match(bcs[0], ocs[0])
			}
		}

		// Descend into matched child pairs, skipping matches that cross
		// into another parent (moves are not containers to align under).
		for _, c := range bn.Children {
			if o, ok := m.Other(c); ok && other.Get(o).Parent == pair[1] {
				queue = append(queue, [2]ast.Ref{c, o})
			}
		}
	}
}

// topDown implements phase 1: subtrees are grouped by
// structural hash and height, tallest first; a hash class present on both
// sides is matched (verifying actual structural equality, since a 64-bit
// hash collision is tolerated elsewhere but must never cause a false
// match), and every descendant pair is locked along with it.
func topDown(base, other *ast.Ast, opts Options, m *Matching, locked map[ast.Ref]bool) {
	maxHeight := base.Height(base.Root)
	if oh := other.Height(other.Root); oh > maxHeight {
		maxHeight = oh
	}

	for h := maxHeight; h >= opts.MinHeight; h-- {
		baseByHash := candidatesAtHeight(base, h, locked)
		otherByHash := candidatesAtHeight(other, h, locked)

		hashes := make([]uint64, 0, len(baseByHash))
		for hash := range baseByHash {
			if _, ok := otherByHash[hash]; ok {
				hashes = append(hashes, hash)
			}
		}
		sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

		for _, hash := range hashes {
			baseList := baseByHash[hash]
			otherList := otherByHash[hash]
			n := len(baseList)
			if len(otherList) < n {
				n = len(otherList)
			}
			for i := 0; i < n; i++ {
				b, o := baseList[i], otherList[i]
				if locked[b] || locked[o] {
					continue
				}
				if !ast.StructurallyEqual(base, b, other, o) {
					continue
				}
				lockMatch(base, other, b, o, m, locked)
			}
		}
	}
}

// candidatesAtHeight returns, grouped by structural hash and sorted by
// start byte for determinism, every non-locked node in t whose subtree
// height equals h.
func candidatesAtHeight(t *ast.Ast, h int, locked map[ast.Ref]bool) map[uint64][]ast.Ref {
	out := make(map[uint64][]ast.Ref)
	for _, ref := range t.PreOrder(t.Root, nil) {
		if locked[ref] {
			continue
		}
		if t.Height(ref) != h {
			continue
		}
		n := t.Get(ref)
		out[n.Hash] = append(out[n.Hash], ref)
	}
	for hash := range out {
		list := out[hash]
		sort.Slice(list, func(i, j int) bool { return t.Get(list[i]).StartByte < t.Get(list[j]).StartByte })
		out[hash] = list
	}
	return out
}

// lockMatch matches b to o and, since topDown only ever calls this after
// verifying StructurallyEqual, zips every descendant pair in post-order
// (identical shapes mean identical post-order lengths and kinds) and marks
// them all locked so phase 2 never revisits them.
func lockMatch(base, other *ast.Ast, b, o ast.Ref, m *Matching, locked map[ast.Ref]bool) {
	baseDesc := base.PostOrder(b, nil)
	otherDesc := other.PostOrder(o, nil)
	if len(baseDesc) != len(otherDesc) {
		// Shapes disagree despite StructurallyEqual's recursive check; this
		// would indicate a bug in that comparison, so fall back to matching
		// only the anchor itself rather than risk a bogus descendant pair.
		m.Match(b, o)
		locked[b], locked[o] = true, true
		return
	}
	for i := range baseDesc {
		m.Match(baseDesc[i], otherDesc[i])
		locked[baseDesc[i]] = true
		locked[otherDesc[i]] = true
	}
}

// bottomUp implements phase 2: for each unmatched internal
// Base node with at least one matched descendant, find the unmatched Other
// node of the same kind with highest Dice similarity over matched
// descendants, accepting it when the similarity clears opts.SimThreshold.
func bottomUp(ctx context.Context, base, other *ast.Ast, opts Options, m *Matching) {
	basePost := base.PostOrder(base.Root, nil)

	// Index every Other node by kind once, up front; the walk below skips
	// candidates that are already matched.
	byKind := make(map[string][]ast.Ref)
	for _, ref := range other.PreOrder(other.Root, nil) {
		k := other.Get(ref).Kind
		byKind[k] = append(byKind[k], ref)
	}

	for _, b := range basePost {
		if b == base.Root {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if m.IsBaseMatched(b) {
			continue
		}
		n := base.Get(b)
		if n.IsLeaf() {
			continue
		}
		baseDesc := base.DescendantSet(b)
		if countMatched(baseDesc, m, true) == 0 {
			continue
		}

		candidates := byKind[n.Kind]
		var bestOther ast.Ref
		bestSim := -1.0
		found := false
		for _, o := range candidates {
			if m.IsOtherMatched(o) {
				continue
			}
			otherDesc := other.DescendantSet(o)
			common := commonMatchedDescendants(baseDesc, otherDesc, m)
			if common == 0 {
				continue
			}
			sim := 2 * float64(common) / float64(len(baseDesc)+len(otherDesc))
			if sim > bestSim || (sim == bestSim && found && other.Get(o).StartByte < other.Get(bestOther).StartByte) {
				bestSim = sim
				bestOther = o
				found = true
			}
		}

		if !found || bestSim < opts.SimThreshold {
			continue
		}
		m.Match(b, bestOther)
		if opts.UseRTED {
			recover(base, other, b, bestOther, m, opts.MaxRecoverySize)
		}
	}
}

func countMatched(set map[ast.Ref]bool, m *Matching, base bool) int {
	count := 0
	for ref := range set {
		if base {
			if m.IsBaseMatched(ref) {
				count++
			}
		} else if m.IsOtherMatched(ref) {
			count++
		}
	}
	return count
}

func commonMatchedDescendants(baseDesc, otherDesc map[ast.Ref]bool, m *Matching) int {
	common := 0
	for b := range baseDesc {
		if o, ok := m.Other(b); ok && otherDesc[o] {
			common++
		}
	}
	return common
}

// recover is the bounded RTED-style refinement step: within
// a matched (b, o) pair whose combined size stays under maxSize, it walks
// both subtrees and greedily matches any remaining unmatched descendant
// pairs that share kind and structural hash, recovering leaf matches the
// coarser top-down/bottom-up passes missed.
func recover(base, other *ast.Ast, b, o ast.Ref, m *Matching, maxSize int) {
	baseDesc := base.PreOrder(b, nil)
	otherDesc := other.PreOrder(o, nil)
	if len(baseDesc)+len(otherDesc) > maxSize {
		return
	}

	otherByHash := make(map[uint64][]ast.Ref)
	for _, o2 := range otherDesc {
		if m.IsOtherMatched(o2) {
			continue
		}
		h := other.Get(o2).Hash
		otherByHash[h] = append(otherByHash[h], o2)
	}
	for h := range otherByHash {
		list := otherByHash[h]
		sort.Slice(list, func(i, j int) bool { return other.Get(list[i]).StartByte < other.Get(list[j]).StartByte })
		otherByHash[h] = list
	}

	for _, b2 := range baseDesc {
		if m.IsBaseMatched(b2) {
			continue
		}
		n := base.Get(b2)
		candidates := otherByHash[n.Hash]
		for i, o2 := range candidates {
			if m.IsOtherMatched(o2) {
				continue
			}
			if !ast.StructurallyEqual(base, b2, other, o2) {
				continue
			}
			m.Match(b2, o2)
			otherByHash[n.Hash] = append(candidates[:i:i], candidates[i+1:]...)
			break
		}
	}
}
