// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains history operations: commit iteration, log pagination,
// and commit record materialization.
package gitkit

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit/internal/guard"
)

// DefaultPageSize is the page size used by Commits when pagination is
// requested without an explicit size.
const DefaultPageSize = 50

// LogFilter configures which commits to include in log operations.
// Use this to filter commits by time range, author, paths, or to page
// through the history.
type LogFilter struct {
	// Since limits the log to commits after the specified time.
	Since *time.Time

	// Until limits the log to commits before the specified time.
	Until *time.Time

	// Author filters commits whose author or committer name/email contains
	// the given substring.
	Author string

	// Path filters commits that modified the specified path(s). A filter
	// entry matches the exact path or any path under it as a directory.
	Path []string

	// MaxCount limits the number of commits returned by Log.
	// If 0, all matching commits are returned.
	MaxCount int

	// Page selects a 1-based page of results in Commits. When set, PageSize
	// determines the page length (DefaultPageSize when 0) and Skip/Limit
	// are ignored.
	Page     int
	PageSize int

	// Skip and Limit window the results in Commits directly. Limit 0 means
	// no limit.
	Skip  int
	Limit int
}

// window returns the skip/limit pair the filter describes. Page-based
// addressing takes precedence over Skip/Limit.
func (f LogFilter) window() (skip, limit int) {
	if f.Page > 0 {
		size := f.PageSize
		if size <= 0 {
			size = DefaultPageSize
		}
		return (f.Page - 1) * size, size
	}
	return f.Skip, f.Limit
}

// CommitIter iterates over commits returned by Log without materializing
// the whole history. Close must be called when done; pairing the iterator
// with a guard keeps early returns safe.
type CommitIter struct {
	iter object.CommitIter
}

// Next returns the next commit in the iteration, or nil when the iteration
// is complete.
func (ci *CommitIter) Next() (*object.Commit, error) {
	commit, err := ci.iter.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, WrapError(err, "failed to get next commit")
	}
	return commit, nil
}

// ForEach executes the provided function for each commit in the iterator.
// Iteration stops if the function returns an error.
func (ci *CommitIter) ForEach(fn func(*object.Commit) error) error {
	return WrapError(ci.iter.ForEach(fn), "failed to iterate commits")
}

// Close closes the iterator and releases any associated resources.
func (ci *CommitIter) Close() {
	ci.iter.Close()
}

// Log returns a commit iterator for the repository with the specified
// filters applied. The returned CommitIter must be closed when no longer
// needed to free walker resources.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Log(ctx context.Context, f LogFilter) (*CommitIter, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError(err, "context cancelled")
	}

	logOpts := &git.LogOptions{
		Since: f.Since,
		Until: f.Until,
	}

	if len(f.Path) > 0 {
		paths := make([]string, len(f.Path))
		copy(paths, f.Path)
		logOpts.PathFilter = func(path string) bool {
			for _, filter := range paths {
				if path == filter || strings.HasPrefix(path, filter+"/") {
					return true
				}
			}
			return false
		}
	}

	if f.MaxCount > 0 {
		// Consistent ordering so the cut-off is deterministic.
		logOpts.Order = git.LogOrderCommitterTime
	}

	iter, err := r.repo.Log(logOpts)
	if err != nil {
		return nil, fail(KindCannotCreateWalker, err, errCtx{})
	}

	commitIter := &CommitIter{iter: iter}

	if f.Author != "" {
		commitIter = &CommitIter{iter: &authorFilteredCommitIter{
			iter:   commitIter,
			author: f.Author,
		}}
	}

	if f.MaxCount > 0 {
		commitIter = &CommitIter{iter: &limitedCommitIter{
			iter:     commitIter,
			maxCount: f.MaxCount,
		}}
	}

	return commitIter, nil
}

// Commits materializes a window of the commit history as owned records,
// newest first. Branch and tag decorations are attached to the commits they
// point at, and conventional commit metadata is extracted best effort.
func (r *Repo) Commits(ctx context.Context, f LogFilter) ([]CommitRecord, error) {
	g := guard.New()
	defer g.Release()

	iter, err := r.Log(ctx, f)
	if err != nil {
		return nil, err
	}
	g.Add(iter.Close)

	branches, tags := r.decorations()
	skip, limit := f.window()

	var records []CommitRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, WrapError(err, "context cancelled")
		}

		commit, err := iter.Next()
		if err != nil {
			return nil, translate(err, errCtx{})
		}
		if commit == nil {
			break
		}

		if skip > 0 {
			skip--
			continue
		}

		records = append(records, newCommitRecord(commit, branches, tags))

		if limit > 0 && len(records) >= limit {
			break
		}
	}

	return records, nil
}

// CommitInfo returns the commit the given revision resolves to as an owned
// record, with branch and tag decorations attached.
func (r *Repo) CommitInfo(ctx context.Context, rev string) (*CommitRecord, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fail(KindInvalidReference, err, errCtx{target: rev})
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fail(KindInvalidReference, err, errCtx{target: rev})
	}

	branches, tags := r.decorations()
	record := newCommitRecord(commit, branches, tags)
	return &record, nil
}

// HeadCommit returns the record for the commit HEAD points at.
func (r *Repo) HeadCommit(ctx context.Context) (*CommitRecord, error) {
	return r.CommitInfo(ctx, "HEAD")
}

// newCommitRecord copies commit data into an owned record while the
// underlying object is valid.
func newCommitRecord(commit *object.Commit, branches, tags map[plumbing.Hash][]string) CommitRecord {
	subject, body := splitMessage(commit.Message)

	record := CommitRecord{
		ID:           NewObjectID(commit.Hash),
		Author:       commit.Author.Name,
		Email:        commit.Author.Email,
		AuthoredAt:   commit.Author.When,
		CommittedAt:  commit.Committer.When,
		Subject:      subject,
		Body:         body,
		Branches:     copyStrings(branches[commit.Hash]),
		Tags:         copyStrings(tags[commit.Hash]),
		Conventional: classifyConventional(commit.Message),
	}

	for _, parent := range commit.ParentHashes {
		record.Parents = append(record.Parents, NewObjectID(parent))
	}

	return record
}

// decorations builds hash-to-label maps for branch heads and tags. The
// branch HEAD points at is labelled "HEAD -> name". Reference walk failures
// degrade to empty decorations rather than failing the log.
func (r *Repo) decorations() (branches, tags map[plumbing.Hash][]string) {
	branches = make(map[plumbing.Hash][]string)
	tags = make(map[plumbing.Hash][]string)

	current := r.headBranchName()

	if iter, err := r.repo.Branches(); err == nil {
		_ = iter.ForEach(func(ref *plumbing.Reference) error {
			label := ref.Name().Short()
			if ref.Name() == current {
				label = "HEAD -> " + label
			}
			branches[ref.Hash()] = append(branches[ref.Hash()], label)
			return nil
		})
	}

	if iter, err := r.repo.Tags(); err == nil {
		_ = iter.ForEach(func(ref *plumbing.Reference) error {
			target := ref.Hash()
			// Annotated tags point at a tag object; decorate the commit it
			// references instead.
			if tag, tagErr := r.repo.TagObject(ref.Hash()); tagErr == nil {
				target = tag.Target
			}
			tags[target] = append(tags[target], ref.Name().Short())
			return nil
		})
	}

	return branches, tags
}

// limitedCommitIter wraps a CommitIter to limit the number of commits
// returned.
type limitedCommitIter struct {
	iter     *CommitIter
	maxCount int
	count    int
}

// Next returns the next commit or nil once the limit is reached.
func (l *limitedCommitIter) Next() (*object.Commit, error) {
	if l.count >= l.maxCount {
		return nil, io.EOF
	}
	commit, err := l.iter.Next()
	if err != nil {
		return nil, err
	}
	if commit == nil {
		return nil, io.EOF
	}
	l.count++
	return commit, nil
}

// ForEach executes the function for each commit up to the limit.
func (l *limitedCommitIter) ForEach(fn func(*object.Commit) error) error {
	for l.count < l.maxCount {
		commit, err := l.iter.Next()
		if err != nil {
			return err
		}
		if commit == nil {
			break
		}
		if err := fn(commit); err != nil {
			return err
		}
		l.count++
	}
	return nil
}

// Close closes the underlying iterator.
func (l *limitedCommitIter) Close() {
	l.iter.Close()
}

// authorFilteredCommitIter wraps a CommitIter to filter commits by author
// or committer substring.
type authorFilteredCommitIter struct {
	iter   *CommitIter
	author string
}

func (a *authorFilteredCommitIter) matches(commit *object.Commit) bool {
	return strings.Contains(commit.Author.Name, a.author) ||
		strings.Contains(commit.Author.Email, a.author) ||
		strings.Contains(commit.Committer.Name, a.author) ||
		strings.Contains(commit.Committer.Email, a.author)
}

// Next returns the next commit that matches the author filter.
func (a *authorFilteredCommitIter) Next() (*object.Commit, error) {
	for {
		commit, err := a.iter.Next()
		if err != nil {
			return nil, err
		}
		if commit == nil {
			return nil, io.EOF
		}
		if a.matches(commit) {
			return commit, nil
		}
	}
}

// ForEach executes the function for each commit that matches the author
// filter.
func (a *authorFilteredCommitIter) ForEach(fn func(*object.Commit) error) error {
	for {
		commit, err := a.iter.Next()
		if err != nil {
			return err
		}
		if commit == nil {
			return nil
		}
		if a.matches(commit) {
			if err := fn(commit); err != nil {
				return err
			}
		}
	}
}

// Close closes the underlying iterator.
func (a *authorFilteredCommitIter) Close() {
	a.iter.Close()
}
