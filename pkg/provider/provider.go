// Package provider abstracts revision retrieval: the capability the cascade
// (pkg/cascade) consults to recover Base/Left/Right text when it is only
// handed a single conflicted file and a path. Errors from a Provider are
// never fatal to the caller: they only degrade structured merging.
package provider

import (
	"context"

	"github.com/mergiraf/mergiraf/pkg/revision"
)

// Provider is a read-only oracle over a version-control system's staged
// revisions. Implementations must be safe to call concurrently across
// independent merge invocations.
type Provider interface {
	// Fetch returns the text of path at the given revision, or an error
	// built with pkg/mergeerr's Provider constructor.
	Fetch(ctx context.Context, path string, rev revision.Tag) (string, error)
}
