// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains the closed error taxonomy shared by all operations.
// All errors can be checked using errors.Is() for programmatic handling.
package gitkit

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies one member of the closed error taxonomy. Every classified
// failure carries exactly one Kind; callers can switch on it or match the
// corresponding sentinel with errors.Is().
type Kind int

const (
	// KindOperationFailed is the fallback for failures matching no more
	// specific kind. It carries the engine message verbatim and is the
	// minority path, not the default.
	KindOperationFailed Kind = iota

	// KindRepositoryNotFound reports that no valid repository exists at the
	// requested path or URL.
	KindRepositoryNotFound

	// KindInvalidRepository reports a repository that opened but is
	// structurally unusable for the requested operation.
	KindInvalidRepository

	// KindConfigKeyNotFound reports a config key absent from every searched
	// scope.
	KindConfigKeyNotFound

	// KindInvalidReference reports a ref name or revision that could not be
	// resolved.
	KindInvalidReference

	// KindCannotGetHead through KindCannotWriteTree report a required
	// intermediate engine object that could not be obtained. These are
	// "should not normally happen" faults, surfaced rather than retried.
	KindCannotGetHead
	KindCannotGetIndex
	KindCannotCreateWalker
	KindCannotGetStatus
	KindCannotWriteTree

	// KindNothingToCommit reports that neither staged nor working-tree
	// changes exist at commit (or stash) time.
	KindNothingToCommit

	// KindCommitFailed, KindAddFileFailed and KindCheckoutFailed report the
	// named mutating operation failing in the engine.
	KindCommitFailed
	KindAddFileFailed
	KindCheckoutFailed

	// KindRemoteNotFound reports an operation referencing a remote that does
	// not exist; Error.Remote echoes the requested name.
	KindRemoteNotFound

	// KindPushFailed, KindPullFailed and KindCloneFailed report network
	// operations failing; Error.Detail carries the engine message verbatim.
	KindPushFailed
	KindPullFailed
	KindCloneFailed

	// KindMergeConflict reports unresolved conflicts, or a fast-forward-only
	// merge that found no fast-forward path.
	KindMergeConflict

	// KindAuthentication reports a rejected or missing credential, detected
	// by engine sentinel or by the message heuristic in translate.go.
	KindAuthentication

	// KindNetwork reports a transport failure not classified as an
	// authentication problem; Error.Code carries the status when known.
	KindNetwork
)

// String returns the name used in rendered error messages.
func (k Kind) String() string {
	switch k {
	case KindRepositoryNotFound:
		return "repository not found"
	case KindInvalidRepository:
		return "invalid repository"
	case KindConfigKeyNotFound:
		return "config key not found"
	case KindInvalidReference:
		return "invalid reference"
	case KindCannotGetHead:
		return "cannot get HEAD"
	case KindCannotGetIndex:
		return "cannot get index"
	case KindCannotCreateWalker:
		return "cannot create commit walker"
	case KindCannotGetStatus:
		return "cannot get status"
	case KindCannotWriteTree:
		return "cannot write tree"
	case KindNothingToCommit:
		return "nothing to commit"
	case KindCommitFailed:
		return "commit failed"
	case KindAddFileFailed:
		return "add file failed"
	case KindCheckoutFailed:
		return "checkout failed"
	case KindRemoteNotFound:
		return "remote not found"
	case KindPushFailed:
		return "push failed"
	case KindPullFailed:
		return "pull failed"
	case KindCloneFailed:
		return "clone failed"
	case KindMergeConflict:
		return "merge conflict"
	case KindAuthentication:
		return "authentication error"
	case KindNetwork:
		return "network error"
	default:
		return "operation failed"
	}
}

// Error is a classified operation failure. Contextual fields are filled at
// the failure site so callers can build their own messages without touching
// the engine after its resources are released.
type Error struct {
	// Kind is the taxonomy member this failure belongs to.
	Kind Kind

	// Path, Key, Remote, Branch and Target carry operation context; only the
	// fields relevant to the failing call are set.
	Path   string
	Key    string
	Remote string
	Branch string
	Target string

	// Code is the transport status code when one could be extracted from the
	// engine message, zero otherwise.
	Code int

	// Detail carries the engine's message verbatim.
	Detail string

	cause error
}

// Error renders the kind, the contextual fields, and the engine detail.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())

	for _, part := range []struct{ label, value string }{
		{"path", e.Path},
		{"key", e.Key},
		{"remote", e.Remote},
		{"branch", e.Branch},
		{"target", e.Target},
	} {
		if part.value != "" {
			fmt.Fprintf(&b, ": %s %q", part.label, part.value)
		}
	}

	if e.Code != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Code)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	return b.String()
}

// Unwrap exposes the engine error for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same Kind, so a rich translated error matches
// its bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is() matching, one per taxonomy kind. The
// translator returns richer values carrying context; they match these by
// kind.
var (
	ErrOperationFailed    = &Error{Kind: KindOperationFailed}
	ErrRepositoryNotFound = &Error{Kind: KindRepositoryNotFound}
	ErrInvalidRepository  = &Error{Kind: KindInvalidRepository}
	ErrConfigKeyNotFound  = &Error{Kind: KindConfigKeyNotFound}
	ErrInvalidReference   = &Error{Kind: KindInvalidReference}
	ErrCannotGetHead      = &Error{Kind: KindCannotGetHead}
	ErrCannotGetIndex     = &Error{Kind: KindCannotGetIndex}
	ErrCannotCreateWalker = &Error{Kind: KindCannotCreateWalker}
	ErrCannotGetStatus    = &Error{Kind: KindCannotGetStatus}
	ErrCannotWriteTree    = &Error{Kind: KindCannotWriteTree}
	ErrNothingToCommit    = &Error{Kind: KindNothingToCommit}
	ErrCommitFailed       = &Error{Kind: KindCommitFailed}
	ErrAddFileFailed      = &Error{Kind: KindAddFileFailed}
	ErrCheckoutFailed     = &Error{Kind: KindCheckoutFailed}
	ErrRemoteNotFound     = &Error{Kind: KindRemoteNotFound}
	ErrPushFailed         = &Error{Kind: KindPushFailed}
	ErrPullFailed         = &Error{Kind: KindPullFailed}
	ErrCloneFailed        = &Error{Kind: KindCloneFailed}
	ErrMergeConflict      = &Error{Kind: KindMergeConflict}
	ErrAuthentication     = &Error{Kind: KindAuthentication}
	ErrNetwork            = &Error{Kind: KindNetwork}
)

// ErrAlreadyUpToDate is returned when fetch, pull, push, or merge operations
// result in no changes because the local and remote states are already
// synchronized. It is a status, not a taxonomy failure.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrNoCredential is the credential bridge's "no credential available"
// sentinel, returned when every resolution strategy has been exhausted.
// Network operations classify it as an authentication error.
var ErrNoCredential = errors.New("no credential available")

// ErrNoWorktree is returned when an operation requiring a worktree is called
// on a bare repository.
var ErrNoWorktree = errors.New("operation requires a worktree")

// ErrNotFastForward is returned when a pull, push, or merge cannot complete
// as a fast-forward because the histories have diverged.
var ErrNotFastForward = errors.New("not a fast-forward")

// ErrNoStash is returned when a stash operation targets a repository with
// no stash entries.
var ErrNoStash = errors.New("no stash entries")

// ErrDetachedHead is returned when an operation requires HEAD to point at a
// branch but the repository is in detached HEAD state.
var ErrDetachedHead = errors.New("HEAD is detached")

// ErrBranchExists is returned when attempting to create a branch that
// already exists.
var ErrBranchExists = errors.New("branch already exists")

// ErrBranchMissing is returned when attempting to operate on a branch that
// does not exist.
var ErrBranchMissing = errors.New("branch does not exist")

// ErrRemoteExists is returned when attempting to create a remote that
// already exists.
var ErrRemoteExists = errors.New("remote already exists")

// ErrTagExists is returned when attempting to create a tag that already
// exists.
var ErrTagExists = errors.New("tag already exists")

// ErrTagMissing is returned when attempting to operate on a tag that does
// not exist.
var ErrTagMissing = errors.New("tag does not exist")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
