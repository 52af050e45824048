package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mergiraf/mergiraf/pkg/textnorm"
	"github.com/mergiraf/mergiraf/pkg/treemerge"
)

func conflictNode(base, left, right string) *treemerge.MergeNode {
	return &treemerge.MergeNode{
		Kind:          treemerge.Conflict,
		ConflictBase:  base,
		HasBase:       true,
		ConflictLeft:  left,
		HasLeft:       true,
		ConflictRight: right,
		HasRight:      true,
	}
}

func TestRender_ClassicConflict(t *testing.T) {
	root := conflictNode("orig\n", "mine\n", "theirs\n")

	out := Render(root, Options{}, "orig\n", "mine\n", "theirs\n", textnorm.Lf, true)

	assert.Equal(t, "<<<<<<< left\nmine\n=======\ntheirs\n>>>>>>> right\n", out)
}

func TestRender_Diff3Conflict(t *testing.T) {
	root := conflictNode("orig\n", "mine\n", "theirs\n")

	out := Render(root, Options{Diff3: true}, "orig\n", "mine\n", "theirs\n", textnorm.Lf, true)

	assert.Equal(t, "<<<<<<< left\nmine\n||||||| base\norig\n=======\ntheirs\n>>>>>>> right\n", out)
}

func TestRender_CustomLabels(t *testing.T) {
	root := conflictNode("o\n", "m\n", "t\n")

	out := Render(root, Options{
		LeftRevisionName:  "HEAD",
		RightRevisionName: "feature",
	}, "o\n", "m\n", "t\n", textnorm.Lf, true)

	assert.Contains(t, out, "<<<<<<< HEAD\n")
	assert.Contains(t, out, ">>>>>>> feature\n")
}

func TestRender_MarkerBump(t *testing.T) {
	// The left input already contains a run of nine '<', so markers must
	// grow to at least ten characters to stay unambiguous.
	left := "<<<<<<<<< not a marker\n"
	root := conflictNode("o\n", left, "t\n")

	out := Render(root, Options{}, "o\n", left, "t\n", textnorm.Lf, true)

	assert.Contains(t, out, strings.Repeat("<", 10)+" left\n")
	assert.Contains(t, out, strings.Repeat("=", 10)+"\n")
	assert.Contains(t, out, strings.Repeat(">", 10)+" right\n")
}

func TestRender_CompactPeelsCommonLines(t *testing.T) {
	root := conflictNode(
		"shared\nbase only\ntail\n",
		"shared\nleft only\ntail\n",
		"shared\nright only\ntail\n",
	)

	out := Render(root, Options{Compact: true}, "", "", "", textnorm.Lf, true)

	// Common lines migrate outside the markers.
	assert.True(t, strings.HasPrefix(out, "shared\n<<<<<<<"), "got %q", out)
	assert.Contains(t, out, ">>>>>>> right\ntail\n")
	assert.Contains(t, out, "left only\n")
	assert.Contains(t, out, "right only\n")
	// The peeled lines appear exactly once.
	assert.Equal(t, 1, strings.Count(out, "shared\n"))
	assert.Equal(t, 1, strings.Count(out, "tail\n"))
}

func TestRender_ConflictStartsOnFreshLine(t *testing.T) {
	root := &treemerge.MergeNode{
		Kind:        treemerge.Rebuilt,
		RebuiltKind: "source_file",
		Children: []*treemerge.MergeNode{
			conflictNode("b\n", "l\n", "r\n"),
		},
		Seps:    []string{""},
		Leading: "prefix ",
	}

	out := Render(root, Options{}, "", "", "", textnorm.Lf, true)

	assert.Contains(t, out, "prefix \n<<<<<<< left\n")
}

func TestRender_NewlineStyle(t *testing.T) {
	root := conflictNode("o\n", "m\n", "t\n")

	out := Render(root, Options{}, "o\n", "m\n", "t\n", textnorm.CrLf, true)

	assert.Contains(t, out, "<<<<<<< left\r\nm\r\n")
	assert.True(t, strings.HasSuffix(out, ">>>>>>> right\r\n"))
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")
}

func TestRender_TrailingNewline(t *testing.T) {
	root := conflictNode("o", "m", "t")

	withNl := Render(root, Options{}, "o", "m", "t", textnorm.Lf, true)
	assert.True(t, strings.HasSuffix(withNl, "\n"))

	withoutNl := Render(root, Options{}, "o", "m", "t", textnorm.Lf, false)
	assert.False(t, strings.HasSuffix(withoutNl, "\n"))
}
