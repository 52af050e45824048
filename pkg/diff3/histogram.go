package diff3

// HistogramDiff computes a line-level edit script the way the histogram
// diff algorithm does: it repeatedly anchors on the rarest line shared by
// both sides (the line occurring the fewest times in each, ties broken by
// the earliest position), recurses on the regions before and after the
// anchor, and falls back to the Myers algorithm once a region is empty on
// one side, the two sides share no line, or the recursion depth bound is
// reached. The anchor need not be unique: a repeated line is used when no
// rarer one is shared. This tends to produce more intuitive hunks than
// plain Myers on files with long repeated runs (e.g. blank lines, closing
// braces) because rare lines are preferred over frequent ones as anchors.
func HistogramDiff(a, b []string) []DiffOp {
	return histogramDiff(a, b, 0)
}

// maxHistogramDepth bounds the anchor-recursion so adversarial inputs
// (every line identical) degrade to a single MyersDiff call instead of
// recursing without bound.
const maxHistogramDepth = 64

func histogramDiff(a, b []string, depth int) []DiffOp {
	if len(a) == 0 || len(b) == 0 || depth >= maxHistogramDepth {
		return MyersDiff(a, b)
	}

	ai, bi, ok := rarestCommonAnchor(a, b)
	if !ok {
		return MyersDiff(a, b)
	}

	var ops []DiffOp
	ops = append(ops, histogramDiff(a[:ai], b[:bi], depth+1)...)
	ops = append(ops, DiffOp{Type: Equal, Line: a[ai]})
	ops = append(ops, histogramDiff(a[ai+1:], b[bi+1:], depth+1)...)
	return ops
}

// rarestCommonAnchor finds the line occurring in both a and b whose combined
// occurrence count (count in a times count in b) is lowest, preferring the
// earliest position in a on ties. It returns false if no line is common to
// both.
func rarestCommonAnchor(a, b []string) (aIdx, bIdx int, ok bool) {
	bPositions := make(map[string][]int, len(b))
	for i, line := range b {
		bPositions[line] = append(bPositions[line], i)
	}
	aCounts := make(map[string]int, len(a))
	for _, line := range a {
		aCounts[line]++
	}

	bestScore := -1
	for i, line := range a {
		bIdxs, inB := bPositions[line]
		if !inB {
			continue
		}
		score := aCounts[line] * len(bIdxs)
		if bestScore == -1 || score < bestScore {
			bestScore = score
			aIdx = i
			bIdx = bIdxs[0]
			ok = true
			if bestScore == 1 {
				// Can't do better than a unique line on both sides.
				return aIdx, bIdx, true
			}
		}
	}
	return aIdx, bIdx, ok
}
