// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains worktree operations: staging, status, commit, checkout
// of paths, and reset.
package gitkit

import (
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// expandWorktreePaths expands glob patterns against the worktree and drops
// empty entries. When requireExists is set, literal paths that do not exist
// are silently dropped, matching git add behavior for missing files.
func (r *Repo) expandWorktreePaths(paths []string, requireExists bool) ([]string, error) {
	workdirFS, err := r.workdirFS()
	if err != nil {
		return nil, err
	}

	var expanded []string
	for _, p := range paths {
		if p == "" {
			continue
		}

		if strings.ContainsAny(p, "*?[") {
			matches, globErr := util.Glob(workdirFS, p)
			if globErr != nil {
				return nil, WrapErrorf(globErr, "invalid glob pattern %q", p)
			}
			expanded = append(expanded, matches...)
			continue
		}

		if requireExists {
			if _, statErr := workdirFS.Stat(p); statErr != nil {
				continue
			}
		}
		expanded = append(expanded, p)
	}

	return expanded, nil
}

// Add stages files in the worktree for the next commit.
// It supports glob patterns; files that don't exist are silently ignored,
// matching git add behavior.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	if len(paths) == 0 {
		return nil // No paths to add, not an error
	}

	toAdd, err := r.expandWorktreePaths(paths, true)
	if err != nil {
		return err
	}

	for _, p := range toAdd {
		if _, addErr := r.worktree.Add(p); addErr != nil {
			return fail(KindAddFileFailed, addErr, errCtx{path: p})
		}
	}

	return nil
}

// Remove removes files from the index and worktree.
// It supports glob patterns; files that aren't tracked are silently ignored,
// matching git rm behavior.
func (r *Repo) Remove(ctx context.Context, paths ...string) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	if len(paths) == 0 {
		return nil
	}

	toRemove, err := r.expandWorktreePaths(paths, false)
	if err != nil {
		return err
	}

	for _, p := range toRemove {
		if _, rmErr := r.worktree.Remove(p); rmErr != nil {
			// Untracked paths surface as entry/file lookups failing; those
			// are ignored like git rm does.
			msg := rmErr.Error()
			if strings.Contains(msg, "entry not found") || strings.Contains(msg, "does not exist") {
				continue
			}
			return fail(KindAddFileFailed, rmErr, errCtx{path: p})
		}
	}

	return nil
}

// Unstage unstages files from the index without modifying the worktree.
// It resets the index entries for the given paths back to HEAD. Files that
// aren't staged are silently ignored.
func (r *Repo) Unstage(ctx context.Context, paths ...string) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	if len(paths) == 0 {
		return nil
	}

	expanded, err := r.expandWorktreePaths(paths, false)
	if err != nil {
		return err
	}

	status, err := r.worktree.Status()
	if err != nil {
		return fail(KindCannotGetStatus, err, errCtx{})
	}

	var staged []string
	for _, p := range expanded {
		fileStatus := status.File(p)
		if fileStatus.Staging != git.Untracked && fileStatus.Staging != git.Unmodified {
			staged = append(staged, p)
		}
	}

	if len(staged) == 0 {
		return nil
	}

	head, err := r.repo.Head()
	if err != nil {
		return fail(KindCannotGetHead, err, errCtx{})
	}

	resetOpts := &git.ResetOptions{
		Commit: head.Hash(),
		Mode:   git.MixedReset,
		Files:  staged,
	}
	if err := r.worktree.Reset(resetOpts); err != nil {
		return translate(err, errCtx{fallback: KindCannotGetIndex})
	}

	return nil
}

// statusChangeKind maps an engine status code into the closed change table.
func statusChangeKind(code git.StatusCode) changeKind {
	switch code {
	case git.Added:
		return changeAdded
	case git.Deleted:
		return changeDeleted
	case git.Modified:
		return changeModified
	case git.Renamed:
		return changeRenamed
	case git.Copied:
		return changeCopied
	case git.Untracked:
		return changeUntracked
	default:
		return changeUnknown
	}
}

// Status reports the repository status partitioned into index-relative
// (staged) and worktree-relative (unstaged) sets. A file with independent
// changes in both areas appears in both sets. Entries are sorted by path
// for stable output; codes come from the closed change table.
func (r *Repo) Status(ctx context.Context) (*StatusRecord, error) {
	if r.worktree == nil {
		return nil, ErrNoWorktree
	}

	status, err := r.worktree.Status()
	if err != nil {
		return nil, fail(KindCannotGetStatus, err, errCtx{})
	}

	paths := make([]string, 0, len(status))
	for p := range status {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	record := &StatusRecord{}
	for _, p := range paths {
		fileStatus := status[p]

		if fileStatus.Staging != git.Untracked && fileStatus.Staging != git.Unmodified {
			record.Staged = append(record.Staged, FileStatus{
				Path: p,
				Code: statusChangeKind(fileStatus.Staging).code(),
			})
		}
		if fileStatus.Worktree != git.Unmodified {
			record.Unstaged = append(record.Unstaged, FileStatus{
				Path: p,
				Code: statusChangeKind(fileStatus.Worktree).code(),
			})
		}
	}

	return record, nil
}

// Commit creates a new commit with the specified message and
// author/committer and returns its id.
//
// Without CommitOpts.All only staged changes are committed. When neither
// staged nor (with All) working-tree changes exist, ErrNothingToCommit is
// returned unless AllowEmpty or Amend is set.
func (r *Repo) Commit(ctx context.Context, msg string, who Signature, opts CommitOpts) (ObjectID, error) {
	if r.worktree == nil {
		return ObjectID{}, ErrNoWorktree
	}

	if msg == "" {
		return ObjectID{}, fail(KindCommitFailed, errors.New("commit message cannot be empty"), errCtx{})
	}

	if who.Name == "" || who.Email == "" {
		return ObjectID{}, fail(KindCommitFailed, errors.New("committer name and email are required"), errCtx{})
	}

	status, err := r.worktree.Status()
	if err != nil {
		return ObjectID{}, fail(KindCannotGetStatus, err, errCtx{})
	}

	changes := 0
	for _, fileStatus := range status {
		if fileStatus.Staging != git.Untracked && fileStatus.Staging != git.Unmodified {
			changes++
			continue
		}
		if opts.All && fileStatus.Worktree != git.Untracked && fileStatus.Worktree != git.Unmodified {
			changes++
		}
	}

	if changes == 0 && !opts.AllowEmpty && !opts.Amend {
		return ObjectID{}, fail(KindNothingToCommit, nil, errCtx{})
	}

	when := who.When
	if when.IsZero() {
		when = time.Now()
	}
	sig := &object.Signature{Name: who.Name, Email: who.Email, When: when}

	commitOpts := &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		All:               opts.All,
		AllowEmptyCommits: opts.AllowEmpty,
		Amend:             opts.Amend,
	}

	hash, err := r.worktree.Commit(msg, commitOpts)
	if err != nil {
		return ObjectID{}, translate(err, errCtx{fallback: KindCommitFailed})
	}

	r.logger.DebugContext(ctx, "commit created", "id", hash.String(), "subject", msg)

	return NewObjectID(hash), nil
}

// CheckoutPaths restores the given worktree files from the index, discarding
// unstaged modifications to them. Glob patterns are matched against index
// entries. A literal path with no index entry fails with CheckoutFailed.
func (r *Repo) CheckoutPaths(ctx context.Context, paths ...string) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	if len(paths) == 0 {
		return nil
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fail(KindCannotGetIndex, err, errCtx{})
	}

	workdirFS, err := r.workdirFS()
	if err != nil {
		return err
	}

	for _, p := range paths {
		if p == "" {
			continue
		}

		entries, matchErr := matchIndexEntries(idx, p)
		if matchErr != nil {
			return fail(KindCheckoutFailed, matchErr, errCtx{target: p})
		}

		for _, entry := range entries {
			blob, blobErr := r.repo.BlobObject(entry.Hash)
			if blobErr != nil {
				return fail(KindCheckoutFailed, blobErr, errCtx{target: entry.Name})
			}

			content, readErr := readBlob(blob)
			if readErr != nil {
				return fail(KindCheckoutFailed, readErr, errCtx{target: entry.Name})
			}

			mode, modeErr := entry.Mode.ToOSFileMode()
			if modeErr != nil {
				mode = 0o644
			}

			if writeErr := util.WriteFile(workdirFS, entry.Name, content, mode); writeErr != nil {
				return fail(KindCheckoutFailed, writeErr, errCtx{target: entry.Name})
			}
		}
	}

	return nil
}

// matchIndexEntries resolves one checkout pathspec against the index:
// literal lookup first, then glob matching when the spec contains pattern
// characters.
func matchIndexEntries(idx *index.Index, spec string) ([]*index.Entry, error) {
	if !strings.ContainsAny(spec, "*?[") {
		entry, err := idx.Entry(spec)
		if err != nil {
			return nil, err
		}
		return []*index.Entry{entry}, nil
	}

	var out []*index.Entry
	for _, entry := range idx.Entries {
		ok, err := path.Match(spec, entry.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, entry)
		}
	}
	if len(out) == 0 {
		return nil, index.ErrEntryNotFound
	}
	return out, nil
}

// readBlob copies a blob's content out while its reader is valid.
func readBlob(blob *object.Blob) ([]byte, error) {
	reader, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	return io.ReadAll(reader)
}

// ResetMode selects how much repository state Reset touches.
type ResetMode int

const (
	// MixedReset moves HEAD and resets the index, leaving the worktree.
	MixedReset ResetMode = iota

	// SoftReset moves HEAD only.
	SoftReset

	// HardReset moves HEAD and resets both index and worktree.
	HardReset
)

// String returns the git-style name of the mode.
func (m ResetMode) String() string {
	switch m {
	case SoftReset:
		return "soft"
	case HardReset:
		return "hard"
	default:
		return "mixed"
	}
}

// Reset moves the current branch to the given revision. The mode selects
// whether the index and worktree follow, mirroring git reset --soft,
// --mixed and --hard.
func (r *Repo) Reset(ctx context.Context, rev string, mode ResetMode) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return fail(KindInvalidReference, err, errCtx{target: rev})
	}

	engineMode := git.MixedReset
	switch mode {
	case SoftReset:
		engineMode = git.SoftReset
	case HardReset:
		engineMode = git.HardReset
	case MixedReset:
	}

	resetOpts := &git.ResetOptions{
		Commit: *hash,
		Mode:   engineMode,
	}
	if err := r.worktree.Reset(resetOpts); err != nil {
		return translate(err, errCtx{target: rev})
	}

	r.logger.DebugContext(ctx, "reset", "rev", rev, "mode", mode.String())

	return nil
}

// Clean removes untracked files (and, when dirs is set, untracked
// directories) from the worktree.
func (r *Repo) Clean(ctx context.Context, dirs bool) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}

	if err := r.worktree.Clean(&git.CleanOptions{Dir: dirs}); err != nil {
		return translate(err, errCtx{})
	}

	return nil
}
