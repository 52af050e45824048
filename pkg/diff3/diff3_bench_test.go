package diff3

import (
	"fmt"
	"strings"
	"testing"
)

// benchLines builds n numbered lines.
func benchLines(n int) []byte {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "line %04d\n", i)
	}
	return []byte(b.String())
}

// benchReplace swaps a single line of src.
func benchReplace(src []byte, old, replacement string) []byte {
	return []byte(strings.Replace(string(src), old+"\n", replacement+"\n", 1))
}

func BenchmarkMergeClean(b *testing.B) {
	base := benchLines(1000)
	left := benchReplace(base, "line 0050", "line 0050 edited on the left")
	right := benchReplace(base, "line 0950", "line 0950 edited on the right")

	b.SetBytes(int64(len(base)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := Merge(base, left, right)
		if r.HasConflicts {
			b.Fatal("expected clean merge")
		}
	}
}

func BenchmarkMergeConflict(b *testing.B) {
	base := benchLines(1000)
	left := benchReplace(base, "line 0500", "line 0500 left")
	right := benchReplace(base, "line 0500", "line 0500 right")

	b.SetBytes(int64(len(base)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := Merge(base, left, right)
		if !r.HasConflicts {
			b.Fatal("expected conflict")
		}
	}
}

func BenchmarkMergeDiff3Style(b *testing.B) {
	base := benchLines(200)
	left := benchReplace(base, "line 0100", "line 0100 left")
	right := benchReplace(base, "line 0100", "line 0100 right")
	opts := Options{Style: StyleDiff3}

	b.SetBytes(int64(len(base)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := MergeWithOptions(base, left, right, opts)
		if !r.HasConflicts {
			b.Fatal("expected conflict")
		}
	}
}

// BenchmarkHistogramDiff exercises the anchor-recursion path: most lines
// are highly repeated closers with a sprinkling of unique lines to anchor
// on, the shape histogram diffing exists for.
func BenchmarkHistogramDiff(b *testing.B) {
	var aLines, bLines []string
	for i := 0; i < 200; i++ {
		aLines = append(aLines, fmt.Sprintf("unique %d", i), "{", "body", "}")
	}
	bLines = append(bLines, aLines...)
	bLines[401] = "replaced"

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ops := HistogramDiff(aLines, bLines)
		if len(ops) == 0 {
			b.Fatal("expected non-empty diff")
		}
	}
}

func BenchmarkMyersDiff(b *testing.B) {
	const n = 500
	a := make([]string, n)
	for i := 0; i < n; i++ {
		a[i] = fmt.Sprintf("line %04d", i)
	}
	bLines := make([]string, n)
	copy(bLines, a)
	bLines[250] = "modified"

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ops := MyersDiff(a, bLines)
		if len(ops) == 0 {
			b.Fatal("expected non-empty diff")
		}
	}
}
