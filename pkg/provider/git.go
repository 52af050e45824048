package provider

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mergiraf/mergiraf/pkg/mergeerr"
	"github.com/mergiraf/mergiraf/pkg/revision"
)

// Git is the default Provider: it shells out to the host git binary to
// read the staged copies of a conflicted file (stage 1 = base, 2 = ours,
// 3 = theirs), treating the VCS as an opaque subprocess rather than
// reimplementing its object store. Logger, when non-nil, receives a debug
// line per fetch; failures are reported through the returned error only.
type Git struct {
	// Dir is the working directory git commands run in; empty means the
	// process working directory.
	Dir    string
	Logger *logrus.Entry
}

// NewGit returns a Git provider rooted at dir.
func NewGit(dir string, logger *logrus.Entry) *Git {
	return &Git{Dir: dir, Logger: logger}
}

// Fetch extracts the contents of path at the given index stage via
// `git checkout-index --temp`, which writes the blob to a temporary file
// whose name git prints on stdout. The temporary file is removed before
// returning on every path, so no provider state outlives the call.
func (g *Git) Fetch(ctx context.Context, path string, rev revision.Tag) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "checkout-index", "--temp",
		"--stage="+stageArg(rev), "--", path)
	cmd.Dir = g.Dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", classifyGitError(path, stderr.String(), err)
	}

	// checkout-index prints "<tempfile>\t<path>" per extracted entry.
	tempName, _, found := strings.Cut(strings.TrimSpace(stdout.String()), "\t")
	if !found || tempName == "" {
		return "", mergeerr.Provider(mergeerr.ProviderNotConflicted, path, nil)
	}
	tempPath := tempName
	if g.Dir != "" {
		tempPath = filepath.Join(g.Dir, tempName)
	}
	defer os.Remove(tempPath)

	data, err := os.ReadFile(tempPath)
	if err != nil {
		return "", mergeerr.Provider(mergeerr.ProviderIoError, path, err)
	}

	if g.Logger != nil {
		g.Logger.WithFields(logrus.Fields{
			"path":     path,
			"revision": rev.String(),
			"bytes":    len(data),
		}).Debug("fetched staged revision from git")
	}
	return string(data), nil
}

func stageArg(rev revision.Tag) string {
	switch rev.GitStage() {
	case 2:
		return "2"
	case 3:
		return "3"
	default:
		return "1"
	}
}

// classifyGitError maps git's stderr chatter onto the provider error
// taxonomy: outside a work tree, path not staged, or no
// higher-stage entries for the path.
func classifyGitError(path, stderr string, cause error) error {
	msg := strings.ToLower(stderr)
	switch {
	case strings.Contains(msg, "not a git repository"):
		return mergeerr.Provider(mergeerr.ProviderNotAGitRepository, path, cause)
	case strings.Contains(msg, "is not in the cache"), strings.Contains(msg, "does not exist at stage"):
		return mergeerr.Provider(mergeerr.ProviderNotInCache, path, cause)
	case strings.Contains(msg, "no such file"), strings.Contains(msg, "pathspec"):
		return mergeerr.Provider(mergeerr.ProviderNotConflicted, path, cause)
	default:
		return mergeerr.Provider(mergeerr.ProviderIoError, path, cause)
	}
}
