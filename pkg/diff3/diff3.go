// Package diff3 implements the line-based merge stage of the pipeline: a
// three-way line diff with conflict markers, used both as the cascade's
// first, cheap attempt and as the fallback whenever structured merging
// cannot run.
package diff3

import (
	"bytes"
	"strings"
)

// HunkType classifies a hunk in a three-way merge result.
type HunkType int

const (
	HunkClean    HunkType = iota // Hunk was merged cleanly.
	HunkConflict                 // Hunk has a conflict that requires manual resolution.
)

// Hunk represents a contiguous section of the merge output.
type Hunk struct {
	Type                      HunkType
	Base, Left, Right, Merged []byte
}

// Result holds the outcome of a three-way line merge.
type Result struct {
	Merged       []byte // Full merged content (with conflict markers if conflicts exist).
	HasConflicts bool   // True if any hunk is a conflict.
	Hunks        []Hunk // Individual hunks in document order.
}

// DiffLine is a single line in the output of LineDiff.
type DiffLine struct {
	Type    DiffType
	Content string
}

// LineDiff computes a line-level diff between byte slices a and b.
func LineDiff(a, b []byte) []DiffLine {
	aLines := splitLines(string(a))
	bLines := splitLines(string(b))

	ops := HistogramDiff(aLines, bLines)

	result := make([]DiffLine, len(ops))
	for i, op := range ops {
		result[i] = DiffLine{Type: op.Type, Content: op.Line}
	}
	return result
}

// MarkerStyle selects how conflicting hunks are rendered.
type MarkerStyle int

const (
	// StyleClassic renders "<<<<<<<"/"======="/">>>>>>>" markers only.
	StyleClassic MarkerStyle = iota
	// StyleDiff3 additionally renders a "|||||||" base section.
	StyleDiff3
)

// Options configures Merge's conflict-marker rendering. The zero value
// renders classic 7-character markers labelled "left"/"right".
type Options struct {
	MarkerSize int // 0 means the default of 7, bumped per bumpMarkerSize.
	Style      MarkerStyle
	LeftLabel  string
	BaseLabel  string
	RightLabel string
}

func (o Options) normalized(inputs ...[]byte) Options {
	if o.MarkerSize <= 0 {
		o.MarkerSize = 7
	}
	o.MarkerSize = bumpMarkerSize(o.MarkerSize, inputs...)
	if o.LeftLabel == "" {
		o.LeftLabel = "left"
	}
	if o.BaseLabel == "" {
		o.BaseLabel = "base"
	}
	if o.RightLabel == "" {
		o.RightLabel = "right"
	}
	return o
}

// BumpMarkerSize is bumpMarkerSize's exported form, reused by the renderer
// (pkg/render) so structured and line-based merges apply the identical
// marker-length-sufficiency rule.
func BumpMarkerSize(size int, inputs ...[]byte) int {
	return bumpMarkerSize(size, inputs...)
}

// bumpMarkerSize enlarges size so that no marker run of that length already
// occurs in any of the given inputs.
func bumpMarkerSize(size int, inputs ...[]byte) int {
	for _, in := range inputs {
		for _, ch := range []byte{'<', '|', '=', '>'} {
			if run := longestRun(in, ch); run >= size {
				size = run + 1
			}
		}
	}
	return size
}

func longestRun(b []byte, ch byte) int {
	best, cur := 0, 0
	for _, c := range b {
		if c == ch {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
	}
	return best
}

// Merge performs a three-way merge of base, left, and right using default
// rendering options (classic markers, size 7, bumped as needed).
func Merge(base, left, right []byte) Result {
	return MergeWithOptions(base, left, right, Options{})
}

// MergeWithOptions performs a three-way line merge, rendering any conflicts
// with the given marker options.
//
// Algorithm:
//  1. Split base, left, right into lines.
//  2. Compute diff(base, left) and diff(base, right).
//  3. Convert each diff into a sequence of "chunks": contiguous runs of
//     unchanged or changed regions relative to the base.
//  4. Walk through base lines, consulting both chunk sequences to decide
//     how each base region is handled.
//  5. When both sides change the same base region differently, emit a conflict.
func MergeWithOptions(base, left, right []byte, opts Options) Result {
	opts = opts.normalized(base, left, right)

	baseLines := splitLines(string(base))
	leftLines := splitLines(string(left))
	rightLines := splitLines(string(right))

	leftChunks := buildChunks(baseLines, leftLines)
	rightChunks := buildChunks(baseLines, rightLines)

	return mergeChunks(baseLines, leftChunks, rightChunks, opts)
}

// splitLines splits s into lines. A trailing newline does not produce
// an extra empty element (matching standard text file conventions).
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// chunk represents a contiguous region relative to the base.
type chunk struct {
	baseStart, baseEnd int      // range [baseStart, baseEnd) in base
	lines              []string // replacement lines for this region
	changed            bool     // true if this region differs from base
}

// buildChunks converts a two-way diff (base -> side) into a list of chunks.
// Each chunk covers a contiguous range of base lines and carries the
// corresponding replacement lines from the side.
func buildChunks(base, side []string) []chunk {
	ops := HistogramDiff(base, side)

	var chunks []chunk
	baseIdx := 0

	i := 0
	for i < len(ops) {
		op := ops[i]

		if op.Type == Equal {
			chunks = append(chunks, chunk{
				baseStart: baseIdx,
				baseEnd:   baseIdx + 1,
				lines:     []string{op.Line},
				changed:   false,
			})
			baseIdx++
			i++
			continue
		}

		chunkStart := baseIdx
		var sideLines []string

		for i < len(ops) && ops[i].Type != Equal {
			if ops[i].Type == Delete {
				baseIdx++
			} else {
				sideLines = append(sideLines, ops[i].Line)
			}
			i++
		}

		chunks = append(chunks, chunk{
			baseStart: chunkStart,
			baseEnd:   baseIdx,
			lines:     sideLines,
			changed:   true,
		})
	}

	return chunks
}

// mergeChunks walks two chunk sequences (left and right) in parallel,
// aligned by base-line positions, to produce the merge result.
func mergeChunks(baseLines []string, leftChunks, rightChunks []chunk, opts Options) Result {
	var merged bytes.Buffer
	var hunks []Hunk
	hasConflicts := false

	li := 0 // index into leftChunks
	ri := 0 // index into rightChunks

	for li < len(leftChunks) || ri < len(rightChunks) {
		var lc, rc *chunk
		if li < len(leftChunks) {
			lc = &leftChunks[li]
		}
		if ri < len(rightChunks) {
			rc = &rightChunks[ri]
		}

		if lc == nil {
			writeChunk(&merged, rc)
			hunks = append(hunks, makeCleanHunk(baseLines, nil, rc))
			ri++
			continue
		}
		if rc == nil {
			writeChunk(&merged, lc)
			hunks = append(hunks, makeCleanHunk(baseLines, lc, nil))
			li++
			continue
		}

		if lc.baseStart == rc.baseStart && lc.baseEnd == rc.baseEnd {
			switch {
			case !lc.changed && !rc.changed:
				writeChunk(&merged, lc)
				hunks = append(hunks, makeCleanHunk(baseLines, lc, nil))
			case lc.changed && !rc.changed:
				writeChunk(&merged, lc)
				hunks = append(hunks, makeCleanHunk(baseLines, lc, nil))
			case !lc.changed && rc.changed:
				writeChunk(&merged, rc)
				hunks = append(hunks, makeCleanHunk(baseLines, nil, rc))
			default:
				if linesEqual(lc.lines, rc.lines) {
					writeChunk(&merged, lc)
					hunks = append(hunks, makeCleanHunk(baseLines, lc, rc))
				} else {
					hasConflicts = true
					writeConflict(&merged, baseLines[lc.baseStart:lc.baseEnd], lc.lines, rc.lines, opts)
					hunks = append(hunks, makeConflictHunk(baseLines, lc, rc))
				}
			}
			li++
			ri++
			continue
		}

		// Chunks are misaligned: one side's change spans multiple
		// base-aligned chunks on the other side. Gather the full
		// overlapping region from both sides before deciding.
		regionEnd := maxInt(lc.baseEnd, rc.baseEnd)

		var leftRegion, rightRegion []chunk
		for {
			for li < len(leftChunks) && leftChunks[li].baseStart < regionEnd {
				leftRegion = append(leftRegion, leftChunks[li])
				if leftChunks[li].baseEnd > regionEnd {
					regionEnd = leftChunks[li].baseEnd
				}
				li++
			}

			for ri < len(rightChunks) && rightChunks[ri].baseStart < regionEnd {
				rightRegion = append(rightRegion, rightChunks[ri])
				if rightChunks[ri].baseEnd > regionEnd {
					regionEnd = rightChunks[ri].baseEnd
				}
				ri++
			}

			// Stop once the right side's growth left no further left chunk
			// inside the region.
			if li >= len(leftChunks) || leftChunks[li].baseStart >= regionEnd {
				break
			}
		}

		regionStart := minInt(lc.baseStart, rc.baseStart)
		leftOut := assembleRegion(leftRegion)
		rightOut := assembleRegion(rightRegion)
		anyLeftChanged := anyChanged(leftRegion)
		anyRightChanged := anyChanged(rightRegion)
		baseRegion := baseLines[regionStart:regionEnd]

		switch {
		case !anyLeftChanged && !anyRightChanged:
			writeLines(&merged, baseRegion)
			hunks = append(hunks, Hunk{Type: HunkClean, Base: joinLines(baseRegion), Merged: joinLines(baseRegion)})
		case anyLeftChanged && !anyRightChanged:
			writeLines(&merged, leftOut)
			hunks = append(hunks, Hunk{Type: HunkClean, Base: joinLines(baseRegion), Left: joinLines(leftOut), Merged: joinLines(leftOut)})
		case !anyLeftChanged && anyRightChanged:
			writeLines(&merged, rightOut)
			hunks = append(hunks, Hunk{Type: HunkClean, Base: joinLines(baseRegion), Right: joinLines(rightOut), Merged: joinLines(rightOut)})
		default:
			if linesEqual(leftOut, rightOut) {
				writeLines(&merged, leftOut)
				hunks = append(hunks, Hunk{Type: HunkClean, Base: joinLines(baseRegion), Left: joinLines(leftOut), Merged: joinLines(leftOut)})
			} else {
				hasConflicts = true
				writeConflict(&merged, baseRegion, leftOut, rightOut, opts)
				hunks = append(hunks, Hunk{Type: HunkConflict, Base: joinLines(baseRegion), Left: joinLines(leftOut), Right: joinLines(rightOut)})
			}
		}
	}

	return Result{
		Merged:       merged.Bytes(),
		HasConflicts: hasConflicts,
		Hunks:        hunks,
	}
}

func writeChunk(buf *bytes.Buffer, c *chunk) {
	writeLines(buf, c.lines)
}

func writeLines(buf *bytes.Buffer, lines []string) {
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
}

func writeConflict(buf *bytes.Buffer, baseLines, leftLines, rightLines []string, opts Options) {
	marker := strings.Repeat("<", opts.MarkerSize)
	buf.WriteString(marker)
	buf.WriteByte(' ')
	buf.WriteString(opts.LeftLabel)
	buf.WriteByte('\n')
	writeLines(buf, leftLines)

	if opts.Style == StyleDiff3 {
		buf.WriteString(strings.Repeat("|", opts.MarkerSize))
		buf.WriteByte(' ')
		buf.WriteString(opts.BaseLabel)
		buf.WriteByte('\n')
		writeLines(buf, baseLines)
	}

	buf.WriteString(strings.Repeat("=", opts.MarkerSize))
	buf.WriteByte('\n')
	writeLines(buf, rightLines)

	buf.WriteString(strings.Repeat(">", opts.MarkerSize))
	buf.WriteByte(' ')
	buf.WriteString(opts.RightLabel)
	buf.WriteByte('\n')
}

func makeCleanHunk(baseLines []string, lc, rc *chunk) Hunk {
	h := Hunk{Type: HunkClean}
	switch {
	case lc != nil:
		h.Merged = joinLines(lc.lines)
		if lc.baseStart < lc.baseEnd {
			h.Base = joinLines(baseLines[lc.baseStart:lc.baseEnd])
		}
		if lc.changed {
			h.Left = joinLines(lc.lines)
		}
	case rc != nil:
		h.Merged = joinLines(rc.lines)
		if rc.baseStart < rc.baseEnd {
			h.Base = joinLines(baseLines[rc.baseStart:rc.baseEnd])
		}
		if rc.changed {
			h.Right = joinLines(rc.lines)
		}
	}
	return h
}

func makeConflictHunk(baseLines []string, lc, rc *chunk) Hunk {
	h := Hunk{
		Type:  HunkConflict,
		Left:  joinLines(lc.lines),
		Right: joinLines(rc.lines),
	}
	if lc.baseStart < lc.baseEnd {
		h.Base = joinLines(baseLines[lc.baseStart:lc.baseEnd])
	}
	return h
}

func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	var buf bytes.Buffer
	writeLines(&buf, lines)
	return buf.Bytes()
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func assembleRegion(chunks []chunk) []string {
	var lines []string
	for _, c := range chunks {
		lines = append(lines, c.lines...)
	}
	return lines
}

func anyChanged(chunks []chunk) bool {
	for _, c := range chunks {
		if c.changed {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
