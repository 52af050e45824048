package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergiraf/mergiraf/pkg/mergeerr"
	"github.com/mergiraf/mergiraf/pkg/revision"
)

func subKindOf(t *testing.T, err error) mergeerr.ProviderSubKind {
	t.Helper()
	var e *mergeerr.Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, mergeerr.KindProviderError, e.Kind)
	return e.Sub
}

func TestClassifyGitError(t *testing.T) {
	cause := errors.New("exit status 128")

	err := classifyGitError("a.go", "fatal: not a git repository (or any of the parent directories): .git", cause)
	assert.Equal(t, mergeerr.ProviderNotAGitRepository, subKindOf(t, err))

	err = classifyGitError("a.go", "git checkout-index: a.go is not in the cache", cause)
	assert.Equal(t, mergeerr.ProviderNotInCache, subKindOf(t, err))

	err = classifyGitError("a.go", "git checkout-index: a.go does not exist at stage 1", cause)
	assert.Equal(t, mergeerr.ProviderNotInCache, subKindOf(t, err))

	err = classifyGitError("a.go", "error: pathspec 'a.go' did not match any file(s)", cause)
	assert.Equal(t, mergeerr.ProviderNotConflicted, subKindOf(t, err))

	err = classifyGitError("a.go", "some unexpected failure", cause)
	assert.Equal(t, mergeerr.ProviderIoError, subKindOf(t, err))
}

func TestClassifyGitError_KeepsCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := classifyGitError("a.go", "whatever", cause)

	assert.ErrorIs(t, err, cause)
}

func TestStageArg(t *testing.T) {
	assert.Equal(t, "1", stageArg(revision.Base))
	assert.Equal(t, "2", stageArg(revision.Left))
	assert.Equal(t, "3", stageArg(revision.Right))
}
