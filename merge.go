// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains merge operations. Only fast-forward merges are
// supported by the engine; diverged histories report a conflict instead of
// producing a merge commit.
package gitkit

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// MergeStrategy represents the different types of merge strategies.
// Currently, only FastForwardOnly is supported by go-git.
type MergeStrategy int8

const (
	// FastForwardOnly represents a merge strategy that only allows
	// fast-forward merges. This will fail if a merge commit would be
	// required.
	FastForwardOnly MergeStrategy = iota
)

// String returns a human-readable string representation of the
// MergeStrategy.
func (s MergeStrategy) String() string {
	switch s {
	case FastForwardOnly:
		return "fast-forward-only"
	default:
		return "unknown"
	}
}

// Merge fast-forwards the current branch to the given revision.
// Returns ErrAlreadyUpToDate when the revision is already reachable from
// HEAD. Diverged histories fail with a merge conflict error before any
// repository state is touched.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Merge(ctx context.Context, rev string) error {
	if err := ctx.Err(); err != nil {
		return WrapError(err, "context cancelled")
	}

	if rev == "" {
		return fail(KindInvalidReference, errors.New("revision cannot be empty"), errCtx{})
	}

	head, err := r.repo.Head()
	if err != nil {
		return fail(KindCannotGetHead, err, errCtx{})
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return fail(KindInvalidReference, err, errCtx{target: rev})
	}

	if *hash == head.Hash() {
		return ErrAlreadyUpToDate
	}

	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return fail(KindCannotGetHead, err, errCtx{})
	}

	targetCommit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return fail(KindInvalidReference, err, errCtx{target: rev})
	}

	reachable, err := targetCommit.IsAncestor(headCommit)
	if err != nil {
		return translate(err, errCtx{target: rev})
	}
	if reachable {
		return ErrAlreadyUpToDate
	}

	fastForwardable, err := headCommit.IsAncestor(targetCommit)
	if err != nil {
		return translate(err, errCtx{target: rev})
	}
	if !fastForwardable {
		return fail(KindMergeConflict,
			errors.New("histories have diverged; fast-forward not possible"),
			errCtx{target: rev})
	}

	ref := plumbing.NewHashReference("", *hash)
	if err := r.repo.Merge(*ref, git.MergeOptions{Strategy: git.FastForwardMerge}); err != nil {
		return translate(err, errCtx{target: rev})
	}

	r.logger.DebugContext(ctx, "fast-forwarded", "to", hash.String())

	return nil
}

// MergeBase returns the best common ancestor of two revisions, the commit a
// three-way merge between them would use as its base.
func (r *Repo) MergeBase(ctx context.Context, a, b string) (ObjectID, error) {
	commitA, err := r.revisionCommit(a)
	if err != nil {
		return ObjectID{}, err
	}

	commitB, err := r.revisionCommit(b)
	if err != nil {
		return ObjectID{}, err
	}

	bases, err := commitA.MergeBase(commitB)
	if err != nil {
		return ObjectID{}, translate(err, errCtx{})
	}
	if len(bases) == 0 {
		return ObjectID{}, fail(KindOperationFailed,
			errors.New("revisions have no common ancestor"),
			errCtx{target: a + ".." + b})
	}

	return NewObjectID(bases[0].Hash), nil
}

// revisionCommit resolves a revision to its commit object.
func (r *Repo) revisionCommit(rev string) (*object.Commit, error) {
	if rev == "" {
		return nil, fail(KindInvalidReference, errors.New("revision cannot be empty"), errCtx{})
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fail(KindInvalidReference, err, errCtx{target: rev})
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fail(KindInvalidReference, err, errCtx{target: rev})
	}

	return commit, nil
}
