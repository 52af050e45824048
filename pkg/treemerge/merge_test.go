package treemerge_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergiraf/mergiraf/pkg/ast"
	"github.com/mergiraf/mergiraf/pkg/editclass"
	"github.com/mergiraf/mergiraf/pkg/lang"
	"github.com/mergiraf/mergiraf/pkg/render"
	"github.com/mergiraf/mergiraf/pkg/textnorm"
	"github.com/mergiraf/mergiraf/pkg/treematch"
	"github.com/mergiraf/mergiraf/pkg/treemerge"
)

// mergeGo runs the structured pipeline (parse, match, classify, merge,
// render) over three Go revisions and returns the rendered text plus the
// merge statistics.
func mergeGo(t *testing.T, base, left, right string) (string, treemerge.Stats) {
	t.Helper()
	ctx := context.Background()
	profile, err := lang.DetectFromFilename("main.go")
	require.NoError(t, err)

	baseAst, err := ast.New(ctx, "main.go", base, profile, ast.NewArena(64))
	require.NoError(t, err)
	leftAst, err := ast.New(ctx, "main.go", left, profile, ast.NewArena(64))
	require.NoError(t, err)
	rightAst, err := ast.New(ctx, "main.go", right, profile, ast.NewArena(64))
	require.NoError(t, err)

	mbl, err := treematch.Match(ctx, baseAst, leftAst, treematch.Default())
	require.NoError(t, err)
	mbr, err := treematch.Match(ctx, baseAst, rightAst, treematch.Default())
	require.NoError(t, err)

	scriptL := editclass.Classify(baseAst, leftAst, mbl)
	scriptR := editclass.Classify(baseAst, rightAst, mbr)

	merger := treemerge.New(baseAst, leftAst, rightAst, mbl, mbr, scriptL, scriptR, profile)
	root, stats, err := merger.Merge(ctx)
	require.NoError(t, err)

	out := render.Render(root, render.Options{}, base, left, right, textnorm.Lf, strings.HasSuffix(base, "\n"))
	return out, stats
}

func TestMerge_BothUnchanged(t *testing.T) {
	src := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	out, stats := mergeGo(t, src, src, src)

	assert.Equal(t, src, out)
	assert.Zero(t, stats.ConflictCount)
	assert.Zero(t, stats.ConflictMass)
}

func TestMerge_LeftOnlyChange(t *testing.T) {
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	left := "package main\n\nfunc a() int {\n\treturn 2\n}\n"
	out, stats := mergeGo(t, base, left, base)

	assert.Equal(t, left, out)
	assert.Zero(t, stats.ConflictCount)
}

func TestMerge_RightOnlyChange(t *testing.T) {
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	right := "package main\n\nfunc a() int {\n\treturn 2\n}\n"
	out, stats := mergeGo(t, base, base, right)

	assert.Equal(t, right, out)
	assert.Zero(t, stats.ConflictCount)
}

func TestMerge_CoincidingChange(t *testing.T) {
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	both := "package main\n\nfunc a() int {\n\treturn 2\n}\n"
	out, stats := mergeGo(t, base, both, both)

	assert.Equal(t, both, out)
	assert.Zero(t, stats.ConflictCount)
}

func TestMerge_IndependentFunctions(t *testing.T) {
	base := `package main

func first() int {
	a := 1
	b := 2
	return a + b
}

func second() int {
	c := 3
	d := 4
	return c + d
}
`
	left := strings.Replace(base, "return a + b", "return a * b", 1)
	right := strings.Replace(base, "return c + d", "return c * d", 1)

	out, stats := mergeGo(t, base, left, right)

	assert.Zero(t, stats.ConflictCount)
	assert.Contains(t, out, "return a * b")
	assert.Contains(t, out, "return c * d")
}

func TestMerge_SameSignatureAdds(t *testing.T) {
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	left := base + "\nfunc b() int {\n\treturn 2\n}\n"
	right := base + "\nfunc b() int {\n\treturn 3\n}\n"

	out, stats := mergeGo(t, base, left, right)

	assert.Equal(t, 1, stats.ConflictCount)
	assert.Contains(t, out, "<<<<<<<")
	assert.Contains(t, out, ">>>>>>>")
	assert.Contains(t, out, "return 2")
	assert.Contains(t, out, "return 3")
	// The untouched function stays clean, outside the conflict.
	assert.Contains(t, strings.SplitN(out, "<<<<<<<", 2)[0], "return 1")
}

func TestMerge_DistinctAddsBothKept(t *testing.T) {
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	left := base + "\nfunc b() int {\n\treturn 2\n}\n"
	right := base + "\nfunc c() int {\n\treturn 3\n}\n"

	out, stats := mergeGo(t, base, left, right)

	assert.Zero(t, stats.ConflictCount)
	assert.Contains(t, out, "func b()")
	assert.Contains(t, out, "func c()")
	// Left insertions come before right insertions at the same gap.
	assert.Less(t, strings.Index(out, "func b()"), strings.Index(out, "func c()"))
}

func TestMerge_IdenticalAddsDeduped(t *testing.T) {
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	both := base + "\nfunc b() int {\n\treturn 2\n}\n"

	out, stats := mergeGo(t, base, both, both)

	assert.Zero(t, stats.ConflictCount)
	assert.Equal(t, 1, strings.Count(out, "func b()"))
}

func TestMerge_DeleteVsUntouched(t *testing.T) {
	base := `package main

func keep() int {
	x := 10
	y := 20
	return x + y
}

func drop() int {
	return 99
}
`
	left := `package main

func keep() int {
	x := 10
	y := 20
	return x + y
}
`
	out, stats := mergeGo(t, base, left, base)

	assert.Zero(t, stats.ConflictCount)
	assert.NotContains(t, out, "func drop()")
	assert.Contains(t, out, "func keep()")
}

func TestMerge_CommentExtension(t *testing.T) {
	base := "package main\n\n// helper\nfunc a() int {\n\treturn 1\n}\n"
	left := "package main\n\n// helper, exported later\nfunc a() int {\n\treturn 1\n}\n"
	right := "package main\n\n// helper, exported later on purpose\nfunc a() int {\n\treturn 1\n}\n"

	out, stats := mergeGo(t, base, left, right)

	assert.Zero(t, stats.ConflictCount)
	assert.Contains(t, out, "// helper, exported later on purpose")
}

func TestMerge_CommutativeImports(t *testing.T) {
	base := `package main

import (
	"aaa"
	"bbb"
	"ccc"
)

func main() {}
`
	left := `package main

import (
	"aaa"
	"ccc"
	"ddd"
)

func main() {}
`
	right := `package main

import (
	"aaa"
	"bbb"
	"eee"
)

func main() {}
`
	out, stats := mergeGo(t, base, left, right)

	assert.Zero(t, stats.ConflictCount)
	assert.Contains(t, out, `"aaa"`)
	assert.NotContains(t, out, `"bbb"`)
	assert.NotContains(t, out, `"ccc"`)
	assert.Contains(t, out, `"ddd"`)
	assert.Contains(t, out, `"eee"`)

	// Base survivors first, then left-only insertions, then right-only.
	assert.Less(t, strings.Index(out, `"aaa"`), strings.Index(out, `"ddd"`))
	assert.Less(t, strings.Index(out, `"ddd"`), strings.Index(out, `"eee"`))
	// Insertions land inside the import block, before the closing paren.
	assert.Less(t, strings.Index(out, `"eee"`), strings.Index(out, ")"))
}
