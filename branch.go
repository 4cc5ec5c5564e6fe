// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains branch operations: listing, creation, checkout,
// deletion, renaming, and remote branch handling.
package gitkit

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// CurrentBranch returns the name of the currently checked out branch.
// It returns ErrDetachedHead when HEAD points directly at a commit.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fail(KindCannotGetHead, err, errCtx{})
	}

	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}

	return head.Name().Short(), nil
}

// headBranchName returns the branch HEAD points at, or the empty string when
// HEAD is detached or unborn.
func (r *Repo) headBranchName() plumbing.ReferenceName {
	head, err := r.repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return ""
	}
	return head.Name()
}

// branchRecord materializes one branch head into an owned record while the
// reference is valid. The subject is looked up from the tip commit; refs
// pointing at non-commits produce an empty subject.
func (r *Repo) branchRecord(ref *plumbing.Reference, current plumbing.ReferenceName, upstream string) BranchRecord {
	record := BranchRecord{
		Name:      ref.Name().Short(),
		IsCurrent: ref.Name() == current,
		Upstream:  upstream,
		Head:      NewObjectID(ref.Hash()),
	}

	if commit, err := r.repo.CommitObject(ref.Hash()); err == nil {
		record.Subject, _ = splitMessage(commit.Message)
	}

	return record
}

// upstreamFor renders a branch's configured upstream as "remote/branch",
// empty when tracking is not configured.
func upstreamFor(cfg *config.Config, name string) string {
	if cfg == nil {
		return ""
	}
	b, ok := cfg.Branches[name]
	if !ok || b.Remote == "" || b.Merge == "" {
		return ""
	}
	return b.Remote + "/" + b.Merge.Short()
}

// Branches lists the local branches as owned records, sorted by the
// engine's reference order. The current branch is flagged; upstreams come
// from the repository configuration.
func (r *Repo) Branches(ctx context.Context) ([]BranchRecord, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fail(KindCannotCreateWalker, err, errCtx{})
	}

	cfg, _ := r.repo.Config()
	current := r.headBranchName()

	var records []BranchRecord
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		records = append(records, r.branchRecord(ref, current, upstreamFor(cfg, ref.Name().Short())))
		return nil
	})
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	return records, nil
}

// RemoteBranches lists remote-tracking branches as owned records carrying
// remote-qualified names such as "origin/main". Symbolic entries like
// "origin/HEAD" are skipped.
func (r *Repo) RemoteBranches(ctx context.Context) ([]BranchRecord, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, fail(KindCannotCreateWalker, err, errCtx{})
	}

	var records []BranchRecord
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsRemote() || ref.Type() != plumbing.HashReference {
			return nil
		}
		records = append(records, r.branchRecord(ref, "", ""))
		return nil
	})
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	return records, nil
}

// CreateBranch creates a new branch pointing at the given revision.
// If trackRemote is true, tracking against the default remote is configured
// so the branch reports an upstream. If force is true, an existing branch
// with the same name is overwritten.
func (r *Repo) CreateBranch(ctx context.Context, name, startRev string, trackRemote, force bool) error {
	if err := ctx.Err(); err != nil {
		return WrapError(err, "context cancelled")
	}

	if name == "" {
		return fail(KindInvalidReference, errors.New("branch name cannot be empty"), errCtx{})
	}

	if startRev == "" {
		return fail(KindInvalidReference, errors.New("start revision cannot be empty"), errCtx{})
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(startRev))
	if err != nil {
		return fail(KindInvalidReference, err, errCtx{target: startRev})
	}

	branchRefName := plumbing.NewBranchReferenceName(name)
	if _, refErr := r.repo.Reference(branchRefName, true); refErr == nil && !force {
		return WrapError(ErrBranchExists, "branch already exists")
	}

	newRef := plumbing.NewHashReference(branchRefName, *hash)
	if err := r.repo.Storer.SetReference(newRef); err != nil {
		return translate(err, errCtx{branch: name})
	}

	if trackRemote {
		trackErr := r.repo.CreateBranch(&config.Branch{
			Name:   name,
			Remote: DefaultRemoteName,
			Merge:  branchRefName,
		})
		if trackErr != nil && !errors.Is(trackErr, git.ErrBranchExists) {
			return WrapError(trackErr, "failed to configure branch tracking")
		}
	}

	r.logger.DebugContext(ctx, "branch created", "branch", name, "at", hash.String())

	return nil
}

// CheckoutBranch switches to the specified branch.
// If createIfMissing is true, the branch is created from current HEAD when
// absent. If force is true, uncommitted changes are discarded.
func (r *Repo) CheckoutBranch(ctx context.Context, name string, createIfMissing, force bool) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	if name == "" {
		return fail(KindInvalidReference, errors.New("branch name cannot be empty"), errCtx{})
	}

	branchRefName := plumbing.NewBranchReferenceName(name)

	if _, err := r.repo.Reference(branchRefName, true); err != nil {
		if !createIfMissing {
			return WrapError(ErrBranchMissing, "branch does not exist")
		}

		head, headErr := r.repo.Head()
		if headErr != nil {
			return fail(KindCannotGetHead, headErr, errCtx{})
		}

		newRef := plumbing.NewHashReference(branchRefName, head.Hash())
		if setErr := r.repo.Storer.SetReference(newRef); setErr != nil {
			return translate(setErr, errCtx{branch: name})
		}
	}

	checkoutOpts := &git.CheckoutOptions{
		Branch: branchRefName,
		Force:  force,
	}
	if err := r.worktree.Checkout(checkoutOpts); err != nil {
		return fail(KindCheckoutFailed, err, errCtx{target: name})
	}

	return nil
}

// CheckoutCommit checks out the given revision directly, leaving the
// repository in detached HEAD state.
func (r *Repo) CheckoutCommit(ctx context.Context, rev string) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return fail(KindInvalidReference, err, errCtx{target: rev})
	}

	if err := r.worktree.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
		return fail(KindCheckoutFailed, err, errCtx{target: rev})
	}

	return nil
}

// DeleteBranch deletes the specified local branch and its tracking
// configuration. Deleting the currently checked out branch is refused.
func (r *Repo) DeleteBranch(ctx context.Context, name string) error {
	if name == "" {
		return fail(KindInvalidReference, errors.New("branch name cannot be empty"), errCtx{})
	}

	branchRefName := plumbing.NewBranchReferenceName(name)

	if _, err := r.repo.Reference(branchRefName, true); err != nil {
		return WrapError(ErrBranchMissing, "branch does not exist")
	}

	// Refuse to delete the checked out branch. CurrentBranch can fail in an
	// empty repository, which is fine for this check.
	if current, err := r.CurrentBranch(ctx); err == nil && current == name {
		return fail(KindOperationFailed,
			errors.New("cannot delete the currently checked out branch"),
			errCtx{branch: name})
	}

	if err := r.repo.Storer.RemoveReference(branchRefName); err != nil {
		return translate(err, errCtx{branch: name})
	}

	// Tracking configuration may or may not exist.
	_ = r.repo.DeleteBranch(name)

	return nil
}

// RenameBranch renames a local branch, moving its tracking configuration
// and repointing HEAD when the renamed branch is checked out.
func (r *Repo) RenameBranch(ctx context.Context, oldName, newName string) error {
	if oldName == "" || newName == "" {
		return fail(KindInvalidReference, errors.New("branch names cannot be empty"), errCtx{})
	}
	if oldName == newName {
		return nil
	}

	oldRefName := plumbing.NewBranchReferenceName(oldName)
	newRefName := plumbing.NewBranchReferenceName(newName)

	oldRef, err := r.repo.Reference(oldRefName, true)
	if err != nil {
		return WrapError(ErrBranchMissing, "branch does not exist")
	}

	if _, err := r.repo.Reference(newRefName, true); err == nil {
		return WrapError(ErrBranchExists, "branch already exists")
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(newRefName, oldRef.Hash())); err != nil {
		return translate(err, errCtx{branch: newName})
	}

	// Move tracking configuration to the new name when present.
	if cfg, cfgErr := r.repo.Config(); cfgErr == nil {
		if b, ok := cfg.Branches[oldName]; ok {
			delete(cfg.Branches, oldName)
			b.Name = newName
			cfg.Branches[newName] = b
			if setErr := r.repo.SetConfig(cfg); setErr != nil {
				return WrapError(setErr, "failed to move branch configuration")
			}
		}
	}

	if r.headBranchName() == oldRefName {
		headRef := plumbing.NewSymbolicReference(plumbing.HEAD, newRefName)
		if setErr := r.repo.Storer.SetReference(headRef); setErr != nil {
			return translate(setErr, errCtx{branch: newName})
		}
	}

	if err := r.repo.Storer.RemoveReference(oldRefName); err != nil {
		return translate(err, errCtx{branch: oldName})
	}

	r.logger.DebugContext(ctx, "branch renamed", "from", oldName, "to", newName)

	return nil
}

// CheckoutRemoteBranch creates a local branch from a remote-tracking branch
// and checks it out. If localName is empty, the remote branch's own name is
// used. If track is true, the local branch is configured to track the
// remote branch.
func (r *Repo) CheckoutRemoteBranch(ctx context.Context, remote, remoteBranch, localName string, track bool) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	if remote == "" {
		return fail(KindRemoteNotFound, errors.New("remote name cannot be empty"), errCtx{})
	}

	if remoteBranch == "" {
		return fail(KindInvalidReference, errors.New("remote branch name cannot be empty"), errCtx{})
	}

	if localName == "" {
		localName = remoteBranch
	}

	remoteBranchRef := plumbing.NewRemoteReferenceName(remote, remoteBranch)
	remoteRef, err := r.repo.Reference(remoteBranchRef, true)
	if err != nil {
		return fail(KindInvalidReference, err, errCtx{target: remote + "/" + remoteBranch})
	}

	localBranchRef := plumbing.NewBranchReferenceName(localName)
	newRef := plumbing.NewHashReference(localBranchRef, remoteRef.Hash())
	if err := r.repo.Storer.SetReference(newRef); err != nil {
		return translate(err, errCtx{branch: localName})
	}

	if track {
		trackErr := r.repo.CreateBranch(&config.Branch{
			Name:   localName,
			Remote: remote,
			Merge:  plumbing.NewBranchReferenceName(remoteBranch),
		})
		if trackErr != nil && !errors.Is(trackErr, git.ErrBranchExists) {
			return WrapError(trackErr, "failed to configure branch tracking")
		}
	}

	if err := r.worktree.Checkout(&git.CheckoutOptions{Branch: localBranchRef}); err != nil {
		return fail(KindCheckoutFailed, err, errCtx{target: localName})
	}

	return nil
}
