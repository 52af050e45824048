package diff3

import (
	"bytes"
	"strings"
)

// ConflictRegion is a single parsed conflict from an already-conflicted
// file: the three (or, in diff3 style, four) sections a previous merge
// wrote out as "<<<<<<<"/"|||||||"/"======="/">>>>>>>" blocks.
type ConflictRegion struct {
	LeftLabel  string // text following "<<<<<<<" on its marker line, if any.
	BaseLabel  string // text following "|||||||", only set when present.
	RightLabel string // text following ">>>>>>>", if any.
	Left       []byte
	Base       []byte // nil when the file used classic (non-diff3) markers.
	Right      []byte
	HasBase    bool
}

// ParsedFile is the result of splitting a conflicted file into its
// non-conflicting runs and conflict regions, in document order.
type ParsedFile struct {
	// Plain holds the non-conflicting runs and Conflicts the conflict
	// regions, each in document order; Order says how the two interleave.
	Plain     [][]byte
	Conflicts []ConflictRegion
	// Order records, for each position, whether it is a plain run (false)
	// or a conflict (true); len(Order) == len(Plain)+len(Conflicts).
	Order []bool
}

// ExtractRevisions reassembles the three synthetic revisions (base, left,
// right) a conflicted file would have come from, by taking each conflict
// region's corresponding side and leaving plain runs untouched on all
// three. This lets a conflicted file re-enter the cascade (pkg/cascade) as
// an ordinary three-way merge input.
func ExtractRevisions(data []byte) (base, left, right []byte, ok bool) {
	parsed, found := ParseConflicts(data)
	if !found {
		return nil, nil, nil, false
	}

	var baseBuf, leftBuf, rightBuf bytes.Buffer
	plainIdx, conflictIdx := 0, 0
	for _, isConflict := range parsed.Order {
		if !isConflict {
			p := parsed.Plain[plainIdx]
			plainIdx++
			baseBuf.Write(p)
			leftBuf.Write(p)
			rightBuf.Write(p)
			continue
		}
		c := parsed.Conflicts[conflictIdx]
		conflictIdx++
		leftBuf.Write(c.Left)
		rightBuf.Write(c.Right)
		if c.HasBase {
			baseBuf.Write(c.Base)
		} else {
			// No recorded base section: the best available approximation
			// is the left side, since classic markers don't retain it.
			baseBuf.Write(c.Left)
		}
	}

	return baseBuf.Bytes(), leftBuf.Bytes(), rightBuf.Bytes(), true
}

// ParseConflicts splits data on conflict markers. found is false when data
// contains no "<<<<<<<" marker line at all.
func ParseConflicts(data []byte) (ParsedFile, bool) {
	lines := splitLinesKeepEmpty(string(data))

	var out ParsedFile
	var plainRun []string
	found := false

	flushPlain := func() {
		if len(plainRun) > 0 {
			out.Plain = append(out.Plain, joinLines(plainRun))
			out.Order = append(out.Order, false)
			plainRun = nil
		}
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		if strings.HasPrefix(line, "<<<<<<<") {
			found = true
			flushPlain()

			region := ConflictRegion{LeftLabel: strings.TrimSpace(strings.TrimPrefix(line, "<<<<<<<"))}
			i++

			for i < len(lines) && !strings.HasPrefix(lines[i], "|||||||") && !strings.HasPrefix(lines[i], "=======") {
				region.Left = append(region.Left, lines[i]+"\n"...)
				i++
			}

			if i < len(lines) && strings.HasPrefix(lines[i], "|||||||") {
				region.HasBase = true
				region.BaseLabel = strings.TrimSpace(strings.TrimPrefix(lines[i], "|||||||"))
				i++
				for i < len(lines) && !strings.HasPrefix(lines[i], "=======") {
					region.Base = append(region.Base, lines[i]+"\n"...)
					i++
				}
			}

			if i < len(lines) && strings.HasPrefix(lines[i], "=======") {
				i++
			}

			for i < len(lines) && !strings.HasPrefix(lines[i], ">>>>>>>") {
				region.Right = append(region.Right, lines[i]+"\n"...)
				i++
			}

			if i < len(lines) && strings.HasPrefix(lines[i], ">>>>>>>") {
				region.RightLabel = strings.TrimSpace(strings.TrimPrefix(lines[i], ">>>>>>>"))
				i++
			}

			out.Conflicts = append(out.Conflicts, region)
			out.Order = append(out.Order, true)
			continue
		}

		plainRun = append(plainRun, line)
		i++
	}
	flushPlain()

	return out, found
}

// splitLinesKeepEmpty splits s into lines the same way splitLines does: a
// trailing newline does not produce an extra empty element, while empty
// lines elsewhere are kept, so marker scanning sees every physical line.
func splitLinesKeepEmpty(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
