// Package gitkit provides typed, safe Git repository operations over go-git.
// This file implements stash operations on top of the engine's object
// storage. The engine has no stash support of its own, so stash entries are
// regular commits chained through refs/stash: parent 0 is the commit the
// entry was saved on, parent 1 the previous stash entry when one exists.
package gitkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// stashRefName is where the newest stash entry is anchored.
const stashRefName = plumbing.ReferenceName("refs/stash")

// StashSave records the dirty worktree state as a new stash entry and
// resets the worktree to HEAD. With includeUntracked, untracked files are
// captured and removed as well. An empty message produces the conventional
// "WIP on branch" form. Returns the id of the stash commit.
//
// Saving with a clean worktree fails with a nothing-to-commit error.
func (r *Repo) StashSave(ctx context.Context, message string, who Signature, includeUntracked bool) (ObjectID, error) {
	if r.worktree == nil {
		return ObjectID{}, ErrNoWorktree
	}
	if who.Name == "" || who.Email == "" {
		return ObjectID{}, fail(KindCommitFailed,
			errors.New("stash requires a signature name and email"), errCtx{})
	}

	head, err := r.repo.Head()
	if err != nil {
		return ObjectID{}, fail(KindCannotGetHead, err, errCtx{})
	}

	status, err := r.worktree.Status()
	if err != nil {
		return ObjectID{}, fail(KindCannotGetStatus, err, errCtx{})
	}

	var untracked []string
	hasTracked := false
	for p, fileStatus := range status {
		if fileStatus.Staging == git.Untracked && fileStatus.Worktree == git.Untracked {
			untracked = append(untracked, p)
			continue
		}
		if fileStatus.Staging != git.Unmodified || fileStatus.Worktree != git.Unmodified {
			hasTracked = true
		}
	}

	if !hasTracked && (!includeUntracked || len(untracked) == 0) {
		return ObjectID{}, fail(KindNothingToCommit, errors.New("no local changes to save"), errCtx{})
	}

	if includeUntracked {
		sort.Strings(untracked)
		for _, p := range untracked {
			if _, addErr := r.worktree.Add(p); addErr != nil {
				return ObjectID{}, fail(KindAddFileFailed, addErr, errCtx{path: p})
			}
		}
	}

	baseCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return ObjectID{}, fail(KindCannotGetHead, err, errCtx{})
	}

	branch := "(no branch)"
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}
	if message == "" {
		subject, _ := splitMessage(baseCommit.Message)
		message = fmt.Sprintf("WIP on %s: %s %s", branch, NewObjectID(head.Hash()).Short(), subject)
	} else {
		message = fmt.Sprintf("On %s: %s", branch, message)
	}

	when := who.When
	if when.IsZero() {
		when = time.Now()
	}
	sig := &object.Signature{Name: who.Name, Email: who.Email, When: when}

	// Commit the dirty state. This moves the current branch; the hard reset
	// below moves it back once the stash ref holds the commit.
	wipHash, err := r.worktree.Commit(message, &git.CommitOptions{
		All:       true,
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		return ObjectID{}, translate(err, errCtx{fallback: KindCommitFailed})
	}

	stashHash := wipHash
	if prev, refErr := r.repo.Reference(stashRefName, true); refErr == nil {
		wipCommit, commitErr := r.repo.CommitObject(wipHash)
		if commitErr != nil {
			return ObjectID{}, translate(commitErr, errCtx{})
		}
		stashHash, err = r.writeStashCommit(wipCommit, head.Hash(), prev.Hash())
		if err != nil {
			return ObjectID{}, err
		}
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(stashRefName, stashHash)); err != nil {
		return ObjectID{}, translate(err, errCtx{})
	}

	if err := r.worktree.Reset(&git.ResetOptions{Mode: git.HardReset, Commit: head.Hash()}); err != nil {
		return ObjectID{}, translate(err, errCtx{})
	}

	r.logger.DebugContext(ctx, "stash saved", "id", stashHash.String(), "branch", branch)

	return NewObjectID(stashHash), nil
}

// Stashes lists the stash entries as owned records, newest first. A
// repository without stashes yields an empty list.
func (r *Repo) Stashes(ctx context.Context) ([]StashRecord, error) {
	chain, err := r.stashChain()
	if err != nil {
		if errors.Is(err, ErrNoStash) {
			return nil, nil
		}
		return nil, err
	}

	records := make([]StashRecord, 0, len(chain))
	for i, commit := range chain {
		subject, _ := splitMessage(commit.Message)
		records = append(records, StashRecord{
			Index:     i,
			ID:        NewObjectID(commit.Hash),
			Message:   subject,
			Branch:    stashBranch(subject),
			CreatedAt: commit.Committer.When,
		})
	}

	return records, nil
}

// StashApply restores the stash entry at the given index into the worktree
// without removing it from the stash. Before any file is written, every
// touched path is checked against local state; a conflicting local change
// aborts the whole apply with a merge conflict error.
func (r *Repo) StashApply(ctx context.Context, index int) error {
	if r.worktree == nil {
		return ErrNoWorktree
	}
	if err := ctx.Err(); err != nil {
		return WrapError(err, "context cancelled")
	}

	stashCommit, err := r.stashCommitAt(index)
	if err != nil {
		return err
	}

	writes, err := r.planStashApply(stashCommit, index)
	if err != nil {
		return err
	}

	wtFS := r.worktree.Filesystem
	for _, w := range writes {
		if w.delete {
			if removeErr := wtFS.Remove(w.path); removeErr != nil {
				return translate(removeErr, errCtx{path: w.path})
			}
			continue
		}

		mode, modeErr := w.mode.ToOSFileMode()
		if modeErr != nil {
			mode = 0o644
		}
		if writeErr := util.WriteFile(wtFS, w.path, w.data, mode); writeErr != nil {
			return translate(writeErr, errCtx{path: w.path})
		}
	}

	r.logger.DebugContext(ctx, "stash applied", "index", index, "files", len(writes))

	return nil
}

// StashPop applies the stash entry at the given index and drops it on
// success. A conflicting apply leaves the stash untouched.
func (r *Repo) StashPop(ctx context.Context, index int) error {
	if err := r.StashApply(ctx, index); err != nil {
		return err
	}
	return r.StashDrop(ctx, index)
}

// StashDrop removes the stash entry at the given index, relinking the
// entries above it.
func (r *Repo) StashDrop(ctx context.Context, index int) error {
	chain, err := r.stashChain()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(chain) {
		return stashOutOfRange(index)
	}

	var below plumbing.Hash
	if index+1 < len(chain) {
		below = chain[index+1].Hash
	}

	// Entries newer than the dropped one chain through it, so they are
	// rewritten bottom-up against the surviving tail.
	for i := index - 1; i >= 0; i-- {
		commit := chain[i]
		parents := []plumbing.Hash{commit.ParentHashes[0]}
		if !below.IsZero() {
			parents = append(parents, below)
		}
		below, err = r.writeStashCommit(commit, parents...)
		if err != nil {
			return err
		}
	}

	if below.IsZero() {
		if err := r.repo.Storer.RemoveReference(stashRefName); err != nil {
			return translate(err, errCtx{})
		}
	} else {
		if err := r.repo.Storer.SetReference(plumbing.NewHashReference(stashRefName, below)); err != nil {
			return translate(err, errCtx{})
		}
	}

	r.logger.DebugContext(ctx, "stash dropped", "index", index)

	return nil
}

// pendingWrite is one worktree mutation a stash apply will perform once the
// conflict scan has passed.
type pendingWrite struct {
	path   string
	data   []byte
	mode   filemode.FileMode
	delete bool
}

// planStashApply diffs the stash entry against its base and verifies every
// touched path against current worktree content. It returns the writes to
// perform, or a conflict error naming the first conflicting path.
func (r *Repo) planStashApply(stashCommit *object.Commit, index int) ([]pendingWrite, error) {
	if len(stashCommit.ParentHashes) == 0 {
		return nil, fail(KindOperationFailed, errors.New("stash entry has no base commit"),
			errCtx{target: stashName(index)})
	}

	baseCommit, err := r.repo.CommitObject(stashCommit.ParentHashes[0])
	if err != nil {
		return nil, translate(err, errCtx{target: stashName(index)})
	}

	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, translate(err, errCtx{})
	}
	stashTree, err := stashCommit.Tree()
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	changes, err := object.DiffTree(baseTree, stashTree)
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	wtFS := r.worktree.Filesystem
	var writes []pendingWrite
	for _, change := range changes {
		p := change.To.Name
		if p == "" {
			p = change.From.Name
		}

		var baseData []byte
		baseOK := change.From.Name != ""
		if baseOK {
			if baseData, err = r.blobData(change.From.TreeEntry.Hash); err != nil {
				return nil, translate(err, errCtx{path: p})
			}
		}

		var stashData []byte
		stashOK := change.To.Name != ""
		if stashOK {
			if stashData, err = r.blobData(change.To.TreeEntry.Hash); err != nil {
				return nil, translate(err, errCtx{path: p})
			}
		}

		current, readErr := util.ReadFile(wtFS, p)
		curOK := readErr == nil

		// Already in the stashed state, or deleted on both sides.
		if (curOK && stashOK && bytes.Equal(current, stashData)) || (!curOK && !stashOK) {
			continue
		}

		matchesBase := (curOK && baseOK && bytes.Equal(current, baseData)) || (!curOK && !baseOK)
		if !matchesBase {
			return nil, fail(KindMergeConflict,
				fmt.Errorf("local changes to %q would be overwritten by stash", p),
				errCtx{path: p})
		}

		if stashOK {
			writes = append(writes, pendingWrite{path: p, data: stashData, mode: change.To.TreeEntry.Mode})
		} else {
			writes = append(writes, pendingWrite{path: p, delete: true})
		}
	}

	return writes, nil
}

// stashChain walks refs/stash through each entry's second parent and
// returns the stash commits newest first. Returns ErrNoStash when the ref
// does not exist.
func (r *Repo) stashChain() ([]*object.Commit, error) {
	ref, err := r.repo.Reference(stashRefName, true)
	if err != nil {
		return nil, ErrNoStash
	}

	var chain []*object.Commit
	current := ref.Hash()
	for {
		commit, commitErr := r.repo.CommitObject(current)
		if commitErr != nil {
			return nil, translate(commitErr, errCtx{})
		}
		chain = append(chain, commit)

		if len(commit.ParentHashes) < 2 {
			return chain, nil
		}
		current = commit.ParentHashes[1]
	}
}

// stashCommitAt returns the stash commit at the given index.
func (r *Repo) stashCommitAt(index int) (*object.Commit, error) {
	chain, err := r.stashChain()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(chain) {
		return nil, stashOutOfRange(index)
	}
	return chain[index], nil
}

// writeStashCommit encodes a copy of the given commit with replaced
// parents and stores it, returning the new id.
func (r *Repo) writeStashCommit(c *object.Commit, parents ...plumbing.Hash) (plumbing.Hash, error) {
	rewritten := &object.Commit{
		Author:       c.Author,
		Committer:    c.Committer,
		Message:      c.Message,
		TreeHash:     c.TreeHash,
		ParentHashes: parents,
	}

	obj := r.repo.Storer.NewEncodedObject()
	if err := rewritten.Encode(obj); err != nil {
		return plumbing.ZeroHash, translate(err, errCtx{})
	}

	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, translate(err, errCtx{})
	}

	return hash, nil
}

func stashOutOfRange(index int) error {
	return fail(KindOperationFailed,
		fmt.Errorf("stash index %d out of range", index),
		errCtx{target: stashName(index)})
}

// stashName renders the git-style stash revision name.
func stashName(index int) string {
	return fmt.Sprintf("stash@{%d}", index)
}

// stashBranch extracts the branch name from a conventional stash subject,
// empty when the subject does not carry one.
func stashBranch(subject string) string {
	rest, ok := strings.CutPrefix(subject, "WIP on ")
	if !ok {
		rest, ok = strings.CutPrefix(subject, "On ")
	}
	if !ok {
		return ""
	}
	if i := strings.Index(rest, ":"); i > 0 {
		return rest[:i]
	}
	return ""
}
