// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains synchronization operations (fetch, pull, push).
package gitkit

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// tagsRefSpec pushes every local tag.
const tagsRefSpec = config.RefSpec("refs/tags/*:refs/tags/*")

// Fetch fetches changes from the specified remote. It supports pruning
// stale remote branches and shallow fetching when depth > 0.
// Returns ErrAlreadyUpToDate if there are no changes to fetch.
//
// Context timeout/cancellation is honored during the fetch operation.
func (r *Repo) Fetch(ctx context.Context, remote string, prune bool, depth int) error {
	if remote == "" {
		remote = DefaultRemoteName
	}

	fetchOpts := &git.FetchOptions{
		RemoteName: remote,
		Prune:      prune,
		Depth:      depth,
	}

	auth, err := r.authForRemote(remote)
	if err != nil {
		return err
	}
	fetchOpts.Auth = auth

	if r.options.Progress != nil {
		fetchOpts.Progress = &progressWriter{fn: r.options.Progress}
	}

	if err := r.repo.FetchContext(ctx, fetchOpts); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		return translate(err, errCtx{fallback: KindNetwork, remote: remote})
	}

	r.logger.DebugContext(ctx, "fetched from remote", "remote", remote, "prune", prune, "depth", depth)

	return nil
}

// PullFFOnly performs a fast-forward only pull from the specified remote.
// It fetches changes and updates the current branch only if it's a
// fast-forward merge.
// Returns ErrNotFastForward if a merge commit would be required.
// Returns ErrAlreadyUpToDate if there are no changes to pull.
//
// Context timeout/cancellation is honored during the pull operation.
func (r *Repo) PullFFOnly(ctx context.Context, remote string) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	if remote == "" {
		remote = DefaultRemoteName
	}

	pullOpts := &git.PullOptions{
		RemoteName: remote,
		Depth:      r.options.ShallowDepth,
	}

	auth, err := r.authForRemote(remote)
	if err != nil {
		return err
	}
	pullOpts.Auth = auth

	if r.options.Progress != nil {
		pullOpts.Progress = &progressWriter{fn: r.options.Progress}
	}

	if err := r.worktree.PullContext(ctx, pullOpts); err != nil {
		switch {
		case errors.Is(err, git.NoErrAlreadyUpToDate):
			return ErrAlreadyUpToDate
		case errors.Is(err, git.ErrNonFastForwardUpdate):
			return ErrNotFastForward
		default:
			return translate(err, errCtx{fallback: KindPullFailed, remote: remote})
		}
	}

	r.logger.DebugContext(ctx, "pulled from remote", "remote", remote)

	return nil
}

// FetchAndMerge fetches changes from the specified remote and merges
// fromRef into the current branch using the given strategy. Only
// fast-forward merges are supported by the engine.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) FetchAndMerge(ctx context.Context, remote, fromRef string, strategy MergeStrategy) error {
	if remote == "" {
		remote = DefaultRemoteName
	}

	if err := r.Fetch(ctx, remote, false, 0); err != nil && !errors.Is(err, ErrAlreadyUpToDate) {
		return WrapError(err, "failed to fetch before merge")
	}

	switch strategy {
	case FastForwardOnly:
		return r.Merge(ctx, fromRef)
	default:
		return fail(KindOperationFailed, errors.New("unsupported merge strategy"), errCtx{target: fromRef})
	}
}

// Push pushes the current branch to the specified remote. It supports force
// pushing when force is true.
// Returns ErrNotFastForward if the push would overwrite remote changes and
// force is false.
// Returns ErrAlreadyUpToDate if there are no changes to push.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) Push(ctx context.Context, remote string, force bool) error {
	return r.push(ctx, remote, force, nil)
}

// PushTags pushes all local tags to the specified remote.
// Returns ErrAlreadyUpToDate if the remote already has every tag.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) PushTags(ctx context.Context, remote string) error {
	return r.push(ctx, remote, false, []config.RefSpec{tagsRefSpec})
}

func (r *Repo) push(ctx context.Context, remote string, force bool, refSpecs []config.RefSpec) error {
	if remote == "" {
		remote = DefaultRemoteName
	}

	pushOpts := &git.PushOptions{
		RemoteName: remote,
		Force:      force,
		RefSpecs:   refSpecs,
	}

	auth, err := r.authForRemote(remote)
	if err != nil {
		return err
	}
	pushOpts.Auth = auth

	if r.options.Progress != nil {
		pushOpts.Progress = &progressWriter{fn: r.options.Progress}
	}

	if err := r.repo.PushContext(ctx, pushOpts); err != nil {
		switch {
		case errors.Is(err, git.NoErrAlreadyUpToDate):
			return ErrAlreadyUpToDate
		case errors.Is(err, git.ErrNonFastForwardUpdate):
			return ErrNotFastForward
		default:
			return translate(err, errCtx{fallback: KindPushFailed, remote: remote})
		}
	}

	r.logger.DebugContext(ctx, "pushed to remote", "remote", remote, "force", force)

	return nil
}

// authForRemote resolves the credential for a remote through the configured
// AuthProvider, keyed by the remote's first URL. A nil provider yields nil
// auth, letting the transport try anonymously.
func (r *Repo) authForRemote(remote string) (transport.AuthMethod, error) {
	if r.options.Auth == nil {
		return nil, nil
	}

	remoteConfig, err := r.repo.Remote(remote)
	if err != nil {
		return nil, fail(KindRemoteNotFound, err, errCtx{remote: remote})
	}

	urls := remoteConfig.Config().URLs
	if len(urls) == 0 {
		return nil, fail(KindRemoteNotFound, errors.New("remote has no configured URLs"), errCtx{remote: remote})
	}

	method, err := r.options.Auth.Method(urls[0])
	if err != nil {
		return nil, translate(err, errCtx{fallback: KindAuthentication, remote: remote})
	}

	return method, nil
}
