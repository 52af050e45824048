package editclass

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergiraf/mergiraf/pkg/ast"
	"github.com/mergiraf/mergiraf/pkg/lang"
	"github.com/mergiraf/mergiraf/pkg/treematch"
)

func classifyGo(t *testing.T, baseSrc, otherSrc string) (*ast.Ast, *ast.Ast, *Script) {
	t.Helper()
	profile, err := lang.DetectFromFilename("main.go")
	require.NoError(t, err)

	base, err := ast.New(context.Background(), "main.go", baseSrc, profile, ast.NewArena(64))
	require.NoError(t, err)
	other, err := ast.New(context.Background(), "main.go", otherSrc, profile, ast.NewArena(64))
	require.NoError(t, err)

	m, err := treematch.Match(context.Background(), base, other, treematch.Default())
	require.NoError(t, err)

	return base, other, Classify(base, other, m)
}

func TestClassify_Identical(t *testing.T) {
	src := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	base, _, script := classifyGo(t, src, src)

	for _, ref := range base.PreOrder(base.Root, nil) {
		assert.Equal(t, Unchanged, script.BaseEdits[ref])
	}
	assert.Empty(t, script.OtherInserts)
}

func TestClassify_ModifiedRoot(t *testing.T) {
	base, _, script := classifyGo(t,
		"package main\n\nfunc a() int {\n\tx := 1\n\ty := 2\n\treturn x + y\n}\n",
		"package main\n\nfunc a() int {\n\tx := 1\n\ty := 2\n\treturn x - y\n}\n")

	assert.Equal(t, Modified, script.BaseEdits[base.Root])
}

func TestClassify_DeletedAndInserted(t *testing.T) {
	base, other, script := classifyGo(t,
		"package main\n\nfunc gone() int {\n\treturn 42\n}\n",
		"package main\n\nvar kept = \"something else entirely\"\n")

	baseFn := findByKind(t, base, "function_declaration")
	assert.Equal(t, Deleted, script.BaseEdits[baseFn])

	otherVar := findByKind(t, other, "var_declaration")
	assert.True(t, script.OtherInserts[otherVar])
}

func TestClassify_EveryBaseNodeLabelled(t *testing.T) {
	base, _, script := classifyGo(t,
		"package main\n\nfunc a() { println(1) }\n",
		"package main\n\nfunc a() { println(2) }\n")

	for _, ref := range base.PreOrder(base.Root, nil) {
		_, ok := script.BaseEdits[ref]
		assert.True(t, ok, "base node %d has no classification", ref)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "unchanged", Unchanged.String())
	assert.Equal(t, "modified", Modified.String())
	assert.Equal(t, "moved", Moved.String())
	assert.Equal(t, "deleted", Deleted.String())
	assert.Equal(t, "inserted", Inserted.String())
}

func findByKind(t *testing.T, tree *ast.Ast, kind string) ast.Ref {
	t.Helper()
	for _, ref := range tree.PreOrder(tree.Root, nil) {
		if tree.Get(ref).Kind == kind {
			return ref
		}
	}
	t.Fatalf("no %s node found", kind)
	return ast.NilRef
}
