package cascade

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergiraf/mergiraf/pkg/mergeerr"
	"github.com/mergiraf/mergiraf/pkg/revision"
	"github.com/mergiraf/mergiraf/pkg/settings"
)

func TestMerge_RoundTripIdentity(t *testing.T) {
	src := "package main\n\nfunc a() int {\n\treturn 1\n}\n"

	res := Merge(context.Background(), "main.go", src, src, src, Options{})

	assert.Equal(t, src, res.Contents)
	assert.Zero(t, res.ConflictCount)
	assert.Zero(t, res.ConflictMass)
	assert.Equal(t, settings.MethodFullyStructured, res.Method)
	assert.False(t, res.HasAdditionalIssues)
}

func TestMerge_Idempotence(t *testing.T) {
	x := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	y := "package main\n\nfunc a() int {\n\treturn 2\n}\n"

	res := Merge(context.Background(), "main.go", x, y, y, Options{})
	assert.Equal(t, y, res.Contents)
	assert.Zero(t, res.ConflictCount)

	res = Merge(context.Background(), "main.go", x, x, y, Options{})
	assert.Equal(t, y, res.Contents)
	assert.Zero(t, res.ConflictCount)

	res = Merge(context.Background(), "main.go", x, y, x, Options{})
	assert.Equal(t, y, res.Contents)
	assert.Zero(t, res.ConflictCount)
}

// Independent edits to the same line conflict for a line-based merge but
// resolve structurally: the heart of the tool.
func TestMerge_ResolvesLineLevelConflict(t *testing.T) {
	base := "package main\n\nimport (\n\t\"aaa\"\n\t\"bbb\"\n\t\"ccc\"\n)\n\nfunc main() {}\n"
	left := "package main\n\nimport (\n\t\"aaa\"\n\t\"ccc\"\n\t\"ddd\"\n)\n\nfunc main() {}\n"
	right := "package main\n\nimport (\n\t\"aaa\"\n\t\"bbb\"\n\t\"eee\"\n)\n\nfunc main() {}\n"

	res := Merge(context.Background(), "main.go", base, left, right, Options{})

	assert.Zero(t, res.ConflictCount, "contents:\n%s", res.Contents)
	assert.Contains(t, res.Contents, `"aaa"`)
	assert.Contains(t, res.Contents, `"ddd"`)
	assert.Contains(t, res.Contents, `"eee"`)
	assert.NotContains(t, res.Contents, `"bbb"`)
	assert.NotContains(t, res.Contents, "<<<<<<<")
	assert.Equal(t, settings.MethodFullyStructured, res.Method)
}

func TestMerge_SideCommutativity(t *testing.T) {
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	left := base + "\nfunc b() int {\n\treturn 2\n}\n"
	right := base + "\nfunc b() int {\n\treturn 3\n}\n"

	ab := Merge(context.Background(), "main.go", base, left, right, Options{})
	ba := Merge(context.Background(), "main.go", base, right, left, Options{})

	assert.Equal(t, ab.ConflictCount, ba.ConflictCount)
	assert.Equal(t, ab.ConflictMass, ba.ConflictMass)
}

func TestMerge_UnsupportedLanguageFallsBack(t *testing.T) {
	base := "alpha\nbeta\n"
	left := "alpha changed\nbeta\n"
	right := "alpha\nbeta changed\n"

	res := Merge(context.Background(), "notes.unknownext", base, left, right, Options{})

	assert.Equal(t, settings.MethodLineBased, res.Method)
	assert.Zero(t, res.ConflictCount)
	assert.Contains(t, res.Contents, "alpha changed")
	assert.Contains(t, res.Contents, "beta changed")
}

func TestMerge_ParseErrorFallsBack(t *testing.T) {
	base := "this is { not go\n"
	left := "this is { not go at all\n"
	right := "this is { not go\n"

	res := Merge(context.Background(), "main.go", base, left, right, Options{})

	assert.Equal(t, settings.MethodLineBased, res.Method)
	assert.Equal(t, "this is { not go at all\n", res.Contents)
}

func TestMerge_TimeoutFallsBack(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("package main\n")
	for i := 0; i < 300; i++ {
		sb.WriteString("\nfunc f")
		sb.WriteString(strings.Repeat("x", i%7+1))
		sb.WriteString(nameOf(i))
		sb.WriteString("() int {\n\ta := 1\n\tb := 2\n\treturn a + b\n}\n")
	}
	base := sb.String()
	left := strings.Replace(base, "a := 1", "a := 10", 1)
	right := strings.Replace(base, "b := 2", "b := 20", 500)

	line := Merge(context.Background(), "main.go", base, left, right, Options{
		Timeout: time.Nanosecond,
	})

	assert.Equal(t, settings.MethodLineBased, line.Method)
}

func TestMerge_DisablingEnvVar(t *testing.T) {
	t.Setenv(DisablingEnvVar, "1")

	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	left := strings.Replace(base, "return 1", "return 2", 1)

	res := Merge(context.Background(), "main.go", base, left, base, Options{})

	assert.Equal(t, settings.MethodLineBased, res.Method)
	assert.Equal(t, left, res.Contents)
}

func TestMerge_NewlineStylePreserved(t *testing.T) {
	base := "package main\r\n\r\nfunc a() int {\r\n\treturn 1\r\n}\r\n"
	left := strings.ReplaceAll(base, "return 1", "return 2")

	res := Merge(context.Background(), "main.go", base, left, base, Options{})

	assert.Equal(t, left, res.Contents)
	assert.NotContains(t, strings.ReplaceAll(res.Contents, "\r\n", ""), "\n")
}

func TestMerge_ConflictKeepsBothSides(t *testing.T) {
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	left := base + "\nfunc b() int {\n\treturn 2\n}\n"
	right := base + "\nfunc b() int {\n\treturn 3\n}\n"

	res := Merge(context.Background(), "main.go", base, left, right, Options{})

	assert.Equal(t, 1, res.ConflictCount)
	assert.Greater(t, res.ConflictMass, 0)
	assert.Contains(t, res.Contents, "<<<<<<<")
	assert.Contains(t, res.Contents, "return 2")
	assert.Contains(t, res.Contents, "return 3")
}

func TestResolve_ConflictedFileReEntry(t *testing.T) {
	conflicted := `package main

func a() int {
	return 1
}

<<<<<<< left
func b() int {
	return 2
}
||||||| base
=======
func b() int {
	return 3
}
>>>>>>> right
`
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n\n"
	left := base + "func b() int {\n\treturn 2\n}\n"
	right := base + "func b() int {\n\treturn 3\n}\n"

	direct := Merge(context.Background(), "main.go", base, left, right, Options{})
	resolved := Resolve(context.Background(), "main.go", conflicted, nil, Options{})

	assert.Equal(t, direct.Contents, resolved.Contents)
	assert.Equal(t, direct.ConflictCount, resolved.ConflictCount)
}

func TestResolve_SolvableConflict(t *testing.T) {
	conflicted := `package main

<<<<<<< left
func a() int {
	return 10
}
||||||| base
func a() int {
	return 1
}
=======
func a() int {
	return 1
}

func c() int {
	return 3
}
>>>>>>> right
`
	res := Resolve(context.Background(), "main.go", conflicted, nil, Options{})

	assert.Zero(t, res.ConflictCount, "contents:\n%s", res.Contents)
	assert.NotContains(t, res.Contents, "<<<<<<<")
	assert.Contains(t, res.Contents, "return 10")
	assert.Contains(t, res.Contents, "func c()")
}

func TestResolve_NoMarkersNoProvider(t *testing.T) {
	plain := "package main\n\nfunc a() int {\n\treturn 1\n}\n"

	res := Resolve(context.Background(), "main.go", plain, nil, Options{})

	assert.Equal(t, plain, res.Contents)
	assert.Zero(t, res.ConflictCount)
}

// fakeProvider serves fixed revision texts, standing in for the git-backed
// provider in re-entry tests.
type fakeProvider struct {
	texts map[revision.Tag]string
	err   error
}

func (f *fakeProvider) Fetch(_ context.Context, _ string, rev revision.Tag) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[rev], nil
}

func TestResolve_ProviderSuppliesRevisions(t *testing.T) {
	base := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	left := strings.Replace(base, "return 1", "return 2", 1)
	prov := &fakeProvider{texts: map[revision.Tag]string{
		revision.Base:  base,
		revision.Left:  left,
		revision.Right: base,
	}}

	// No markers in the input: the provider is the only source of truth.
	res := Resolve(context.Background(), "main.go", base, prov, Options{})

	assert.Equal(t, left, res.Contents)
	assert.Zero(t, res.ConflictCount)
}

func TestResolve_ProviderErrorDegradesGracefully(t *testing.T) {
	plain := "package main\n\nfunc a() int {\n\treturn 1\n}\n"
	prov := &fakeProvider{err: mergeerr.Provider(mergeerr.ProviderNotConflicted, "main.go", nil)}

	res := Resolve(context.Background(), "main.go", plain, prov, Options{})

	assert.Equal(t, plain, res.Contents)
	assert.Zero(t, res.ConflictCount)
}

func TestResolve_AdoptsExistingLabels(t *testing.T) {
	conflicted := `package main

<<<<<<< HEAD
func a() int {
	return 2
}
||||||| merged common ancestors
func a() int {
	return 1
}
=======
func a() int {
	return 3
}
>>>>>>> feature
`
	res := Resolve(context.Background(), "main.go", conflicted, nil, Options{})

	if res.ConflictCount > 0 {
		assert.Contains(t, res.Contents, "<<<<<<< HEAD")
		assert.Contains(t, res.Contents, ">>>>>>> feature")
	}
}

func nameOf(i int) string {
	const letters = "abcdefghij"
	var sb strings.Builder
	for {
		sb.WriteByte(letters[i%10])
		i /= 10
		if i == 0 {
			return sb.String()
		}
	}
}
