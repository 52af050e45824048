// Package mergeerr defines the error taxonomy shared by every component of
// the merge pipeline: unsupported languages, parse failures,
// revision-provider failures, cascade timeouts, and internal invariant
// violations. Every component returns these through the ordinary Go `error`
// interface with wrapped causes, so callers keep using errors.Is/errors.As.
package mergeerr

import (
	"errors"
	"fmt"
)

// Kind identifies which branch of the taxonomy an error belongs to.
type Kind int

const (
	// KindUnsupportedLanguage: no language profile matches the file.
	KindUnsupportedLanguage Kind = iota
	// KindParseError: the language grammar produced an ERROR node, or the
	// parser itself failed.
	KindParseError
	// KindProviderError: fetching a revision's content failed.
	KindProviderError
	// KindTimeout: the cascade's deadline elapsed before structured merging
	// could finish.
	KindTimeout
	// KindInternal: an invariant the pipeline assumes was violated (arena
	// corruption, a matcher producing an invalid pairing, and so on).
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedLanguage:
		return "unsupported_language"
	case KindParseError:
		return "parse_error"
	case KindProviderError:
		return "provider_error"
	case KindTimeout:
		return "timeout"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ProviderSubKind narrows KindProviderError failures.
type ProviderSubKind int

const (
	ProviderSubKindNone ProviderSubKind = iota
	// ProviderNotAGitRepository: the path given isn't inside a git work tree.
	ProviderNotAGitRepository
	// ProviderNotInCache: the path has no entry in git's index at the
	// requested stage.
	ProviderNotInCache
	// ProviderNotConflicted: the caller asked to resolve a file that git
	// doesn't currently consider conflicted.
	ProviderNotConflicted
	// ProviderIoError: a filesystem or subprocess I/O failure.
	ProviderIoError
)

func (s ProviderSubKind) String() string {
	switch s {
	case ProviderNotAGitRepository:
		return "not_a_git_repository"
	case ProviderNotInCache:
		return "not_in_cache"
	case ProviderNotConflicted:
		return "not_conflicted"
	case ProviderIoError:
		return "io_error"
	default:
		return "none"
	}
}

// Error is the concrete error type every component returns. It carries the
// Kind (and, for provider errors, a ProviderSubKind) alongside a wrapped
// cause so errors.Unwrap keeps working.
type Error struct {
	Kind    Kind
	Sub     ProviderSubKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
		}
		return e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by Kind (and Sub, when the target also sets one), so callers
// can write errors.Is(err, mergeerr.Timeout()) without caring about the
// wrapped message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if t.Sub != ProviderSubKindNone && e.Sub != t.Sub {
		return false
	}
	return true
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// UnsupportedLanguage reports that no registered language profile covers
// the given path.
func UnsupportedLanguage(path string) error {
	return newErr(KindUnsupportedLanguage, "no language profile for %q", path)
}

// ParseError wraps a grammar/parser failure for the given revision.
func ParseError(path string, cause error) error {
	return wrapErr(KindParseError, cause, "parse %q", path)
}

// ParseErrorNode reports a CST ERROR node encountered during parsing,
// without an underlying Go error to wrap.
func ParseErrorNode(path string, nodeKind string, byteOffset int) error {
	return newErr(KindParseError, "error node %q in %q at byte %d", nodeKind, path, byteOffset)
}

// Provider wraps a revision-provider failure with its sub-kind.
func Provider(sub ProviderSubKind, path string, cause error) error {
	return &Error{
		Kind:    KindProviderError,
		Sub:     sub,
		Message: fmt.Sprintf("fetch %q", path),
		Cause:   cause,
	}
}

// Timeout reports that the cascade's deadline elapsed.
func Timeout() error {
	return &Error{Kind: KindTimeout}
}

// Internal wraps an invariant violation; these should never surface from a
// correct pipeline, but are returned (not panicked) so callers can log and
// fall back to the line-based result.
func Internal(format string, args ...any) error {
	return newErr(KindInternal, format, args...)
}

// KindOf extracts the Kind from err, returning (KindInternal, false) if err
// is not one of ours.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindInternal, false
}

// IsTimeout reports whether err is (or wraps) a cascade timeout.
func IsTimeout(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindTimeout
}

// IsProviderNotConflicted reports whether err is a provider error whose
// sub-kind is ProviderNotConflicted, the case callers treat as "nothing to
// do" rather than a hard failure.
func IsProviderNotConflicted(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindProviderError && e.Sub == ProviderNotConflicted
}
