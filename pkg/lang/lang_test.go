package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFromFilename_ByExtension(t *testing.T) {
	p, err := DetectFromFilename("main.go")
	require.NoError(t, err)
	assert.Equal(t, "go", p.Name)

	p, err = DetectFromFilename("component.tsx")
	require.NoError(t, err)
	assert.Equal(t, "typescript", p.Name)
}

func TestDetectFromFilename_Alias(t *testing.T) {
	p, err := DetectFromFilename("module.mjs")
	require.NoError(t, err)
	assert.Equal(t, "javascript", p.Name)

	p, err = DetectFromFilename("stub.pyi")
	require.NoError(t, err)
	assert.Equal(t, "python", p.Name)
}

func TestDetectFromFilename_SpecialFilename(t *testing.T) {
	p, err := DetectFromFilename("go.mod")
	require.NoError(t, err)
	assert.Equal(t, "go", p.Name)
}

func TestDetectFromFilename_CaseInsensitive(t *testing.T) {
	p, err := DetectFromFilename("Main.GO")
	require.NoError(t, err)
	assert.Equal(t, "go", p.Name)
}

func TestDetectFromFilename_Unsupported(t *testing.T) {
	_, err := DetectFromFilename("notes.xyz123")
	assert.Error(t, err)
}

func TestProfile_SignatureField(t *testing.T) {
	p, _ := ByName("go")
	field, ok := p.SignatureField("function_declaration")
	require.True(t, ok)
	assert.Equal(t, "name", field)

	_, ok = p.SignatureField("block")
	assert.False(t, ok)
}

func TestProfile_CommutativeAndLeaf(t *testing.T) {
	p, _ := ByName("go")
	assert.True(t, p.IsCommutative("import_spec_list"))
	assert.False(t, p.IsCommutative("function_declaration"))
	assert.True(t, p.IsLeaf("identifier"))
	assert.True(t, p.IsComment("comment"))
}
