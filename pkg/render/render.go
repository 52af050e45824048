// Package render serializes a merge tree (pkg/treemerge) back to text,
// preserving whitespace, conflict-marker formatting, and the original
// newline convention.
package render

import (
	"strings"

	"github.com/mergiraf/mergiraf/pkg/diff3"
	"github.com/mergiraf/mergiraf/pkg/textnorm"
	"github.com/mergiraf/mergiraf/pkg/treemerge"
)

// Options holds the caller-facing display settings.
type Options struct {
	ConflictMarkerSize int // 0 means the default of 7, bumped when an input collides.
	Diff3              bool
	Compact            bool
	LeftRevisionName   string
	BaseRevisionName   string
	RightRevisionName  string
}

func (o Options) normalized(inputs ...string) Options {
	if o.ConflictMarkerSize <= 0 {
		o.ConflictMarkerSize = 7
	}
	byteInputs := make([][]byte, len(inputs))
	for i, in := range inputs {
		byteInputs[i] = []byte(in)
	}
	o.ConflictMarkerSize = diff3.BumpMarkerSize(o.ConflictMarkerSize, byteInputs...)
	if o.LeftRevisionName == "" {
		o.LeftRevisionName = "left"
	}
	if o.BaseRevisionName == "" {
		o.BaseRevisionName = "base"
	}
	if o.RightRevisionName == "" {
		o.RightRevisionName = "right"
	}
	return o
}

// Render serializes root to LF-normalized text, then re-applies style (the
// original newline convention) and trailingNewline (whether the original
// Base had one) before returning. base/left/right are the three
// LF-normalized revision texts the merge ran over, consulted only for the
// marker-length bump rule.
func Render(root *treemerge.MergeNode, opts Options, base, left, right string, style textnorm.Style, trailingNewline bool) string {
	opts = opts.normalized(base, left, right)

	var sb strings.Builder
	writeNode(&sb, root, opts)

	out := sb.String()
	out = ensureTrailingNewline(out, trailingNewline)
	return textnorm.ImitateNewlineStyle(out, style)
}

func writeNode(sb *strings.Builder, n *treemerge.MergeNode, opts Options) {
	switch n.Kind {
	case treemerge.Verbatim:
		sb.WriteString(n.Text())

	case treemerge.Rebuilt:
		sb.WriteString(n.Leading)
		for i, c := range n.Children {
			sb.WriteString(n.Seps[i])
			writeNode(sb, c, opts)
		}
		sb.WriteString(n.Trailing)

	case treemerge.Conflict:
		writeConflict(sb, n, opts)
	}
}

// writeConflict formats a conflict region with the exact marker grammar
// git tooling recognizes. In compact mode, lines common to every present
// alternative are peeled off the front and back first, so what remains
// between the markers neither starts nor ends with a line all alternatives
// share; lines common to all alternatives in the middle stay inside.
func writeConflict(sb *strings.Builder, n *treemerge.MergeNode, opts Options) {
	base, left, right := n.ConflictBase, n.ConflictLeft, n.ConflictRight
	if opts.Compact {
		var lead, trail string
		lead, trail, base, left, right = compactSplit(n)
		sb.WriteString(lead)
		defer sb.WriteString(trail)
	}

	// Markers must sit at the start of a line to stay recognizable by any
	// downstream conflict-marker parser, whatever structural position the
	// conflict node occupies.
	if out := sb.String(); out != "" && !strings.HasSuffix(out, "\n") {
		sb.WriteByte('\n')
	}

	marker := opts.ConflictMarkerSize
	sb.WriteString(strings.Repeat("<", marker))
	sb.WriteByte(' ')
	sb.WriteString(opts.LeftRevisionName)
	sb.WriteByte('\n')
	if n.HasLeft {
		writeWithTrailingNewline(sb, left)
	}

	if opts.Diff3 && n.HasBase {
		sb.WriteString(strings.Repeat("|", marker))
		sb.WriteByte(' ')
		sb.WriteString(opts.BaseRevisionName)
		sb.WriteByte('\n')
		writeWithTrailingNewline(sb, base)
	}

	sb.WriteString(strings.Repeat("=", marker))
	sb.WriteByte('\n')
	if n.HasRight {
		writeWithTrailingNewline(sb, right)
	}

	sb.WriteString(strings.Repeat(">", marker))
	sb.WriteByte(' ')
	sb.WriteString(opts.RightRevisionName)
	sb.WriteByte('\n')
}

func writeWithTrailingNewline(sb *strings.Builder, s string) {
	sb.WriteString(s)
	if s != "" && !strings.HasSuffix(s, "\n") {
		sb.WriteByte('\n')
	}
}

// compactSplit peels off the longest common run of leading and trailing
// lines shared by every alternative present in n, so the remaining
// conflict body neither starts nor ends with such a shared line.
func compactSplit(n *treemerge.MergeNode) (lead, trail, base, left, right string) {
	var sets [][]string
	if n.HasBase {
		sets = append(sets, splitKeepNewline(n.ConflictBase))
	}
	if n.HasLeft {
		sets = append(sets, splitKeepNewline(n.ConflictLeft))
	}
	if n.HasRight {
		sets = append(sets, splitKeepNewline(n.ConflictRight))
	}
	if len(sets) < 2 {
		return "", "", n.ConflictBase, n.ConflictLeft, n.ConflictRight
	}

	prefixLen := commonPrefixLen(sets)
	suffixLen := commonSuffixLen(sets, prefixLen)

	strip := func(lines []string) string {
		return strings.Join(lines[prefixLen:len(lines)-suffixLen], "")
	}

	if n.HasBase {
		base = strip(splitKeepNewline(n.ConflictBase))
	}
	if n.HasLeft {
		left = strip(splitKeepNewline(n.ConflictLeft))
	}
	if n.HasRight {
		right = strip(splitKeepNewline(n.ConflictRight))
	}
	lead = strings.Join(sets[0][:prefixLen], "")
	trail = strings.Join(sets[0][len(sets[0])-suffixLen:], "")
	return lead, trail, base, left, right
}

func splitKeepNewline(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for {
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:idx+1])
		s = s[idx+1:]
	}
	return lines
}

func commonPrefixLen(sets [][]string) int {
	shortest := minLen(sets)
	for i := 0; i < shortest; i++ {
		line := sets[0][i]
		for _, set := range sets[1:] {
			if set[i] != line {
				return i
			}
		}
	}
	return shortest
}

func commonSuffixLen(sets [][]string, afterPrefix int) int {
	shortest := minLen(sets) - afterPrefix
	for i := 0; i < shortest; i++ {
		line := sets[0][len(sets[0])-1-i]
		for _, set := range sets[1:] {
			if set[len(set)-1-i] != line {
				return i
			}
		}
	}
	return shortest
}

func minLen(sets [][]string) int {
	m := len(sets[0])
	for _, s := range sets[1:] {
		if len(s) < m {
			m = len(s)
		}
	}
	return m
}

func ensureTrailingNewline(s string, want bool) string {
	has := strings.HasSuffix(s, "\n")
	switch {
	case want && !has:
		return s + "\n"
	case !want && has:
		return strings.TrimSuffix(s, "\n")
	default:
		return s
	}
}
