package mergeerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := ParseError("foo.go", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestIsTimeout(t *testing.T) {
	wrapped := fmt.Errorf("cascade: %w", Timeout())
	assert.True(t, IsTimeout(wrapped))
	assert.False(t, IsTimeout(errors.New("something else")))
}

func TestIsProviderNotConflicted(t *testing.T) {
	err := Provider(ProviderNotConflicted, "foo.go", nil)
	assert.True(t, IsProviderNotConflicted(err))

	other := Provider(ProviderIoError, "foo.go", nil)
	assert.False(t, IsProviderNotConflicted(other))
}

func TestError_IsMatchesByKind(t *testing.T) {
	a := UnsupportedLanguage("foo.xyz")
	b := UnsupportedLanguage("bar.xyz")
	assert.True(t, errors.Is(a, b))

	c := ParseError("foo.go", nil)
	assert.False(t, errors.Is(a, c))
}

func TestError_IsMatchesSubKind(t *testing.T) {
	a := Provider(ProviderNotInCache, "foo.go", nil)
	bTarget := &Error{Kind: KindProviderError, Sub: ProviderNotInCache}
	assert.True(t, errors.Is(a, bTarget))

	cTarget := &Error{Kind: KindProviderError, Sub: ProviderIoError}
	assert.False(t, errors.Is(a, cTarget))
}
