// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains diff operations: revision comparison, per-file change
// records, and staged/worktree deltas.
package gitkit

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	textdiff "github.com/input-output-hk/catalyst-forge-libs/gitkit/internal/diff"
	"github.com/input-output-hk/catalyst-forge-libs/gitkit/internal/guard"
)

// PatchText represents unified diff text between two revisions.
// It contains the formatted diff output that can be displayed to users
// or processed by other tools.
type PatchText struct {
	// Text contains the unified diff in string format.
	Text string

	// IsBinary indicates whether the diff contains binary files.
	// When true, the diff text contains binary markers instead of hunks
	// for those files.
	IsBinary bool

	// FileCount indicates the number of files that have changes.
	FileCount int
}

// ChangeFilter is a predicate for filtering changes in diffs. It returns
// true if the change should be included. A change must pass ALL filters to
// be included.
type ChangeFilter func(*object.Change) bool

// Diff computes the diff between two revisions and returns unified diff
// text. The revisions 'a' and 'b' can be any valid git revision specifiers
// (commit hashes, branch names, tags, etc.). Renames are detected.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Diff(ctx context.Context, a, b string, filters ...ChangeFilter) (*PatchText, error) {
	changes, err := r.treeChanges(ctx, a, b)
	if err != nil {
		return nil, err
	}

	filtered := applyChangeFilters(changes, filters)

	patch, err := filtered.PatchContext(ctx)
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	text := patch.String()
	return &PatchText{
		Text:      text,
		IsBinary:  textdiff.ContainsBinaryFiles(text),
		FileCount: textdiff.CountChangedFiles(text),
	}, nil
}

// DiffFiles computes the per-file changes between two revisions as owned
// records. Renames are detected and rendered as "old -> new" paths.
func (r *Repo) DiffFiles(ctx context.Context, a, b string, filters ...ChangeFilter) ([]DiffFileRecord, error) {
	changes, err := r.treeChanges(ctx, a, b)
	if err != nil {
		return nil, err
	}

	return r.changeRecords(ctx, applyChangeFilters(changes, filters))
}

// CommitDiffFiles computes the per-file changes a commit introduced over
// its first parent. Root commits diff against the empty tree, so every file
// reports as added.
func (r *Repo) CommitDiffFiles(ctx context.Context, rev string) ([]DiffFileRecord, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fail(KindInvalidReference, err, errCtx{target: rev})
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fail(KindInvalidReference, err, errCtx{target: rev})
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, translate(err, errCtx{target: rev})
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return nil, translate(parentErr, errCtx{target: rev})
		}
		parentTree, parentErr = parent.Tree()
		if parentErr != nil {
			return nil, translate(parentErr, errCtx{target: rev})
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, &object.DiffTreeOptions{DetectRenames: true})
	if err != nil {
		return nil, translate(err, errCtx{target: rev})
	}

	return r.changeRecords(ctx, changes)
}

// FileDiff computes the change record for a single path between two
// revisions. It returns an error when the path changed in neither.
func (r *Repo) FileDiff(ctx context.Context, a, b, path string) (*DiffFileRecord, error) {
	if path == "" {
		return nil, fail(KindOperationFailed, errors.New("path cannot be empty"), errCtx{})
	}

	records, err := r.DiffFiles(ctx, a, b, PathFilter(path))
	if err != nil {
		return nil, err
	}

	for i := range records {
		p := records[i].Path
		if p == path || strings.HasPrefix(p, path+" -> ") || strings.HasSuffix(p, " -> "+path) {
			return &records[i], nil
		}
	}

	return nil, fail(KindOperationFailed, errors.New("path has no changes between revisions"), errCtx{path: path})
}

// StagedDiffFiles computes the per-file changes between HEAD and the index,
// the delta a plain commit would record. With an unborn HEAD every staged
// file reports as added. Results are sorted by path.
func (r *Repo) StagedDiffFiles(ctx context.Context) ([]DiffFileRecord, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fail(KindCannotGetIndex, err, errCtx{})
	}

	headFiles, err := r.headTreeFiles()
	if err != nil {
		return nil, err
	}

	indexFiles := make(map[string]blobState, len(idx.Entries))
	for _, entry := range idx.Entries {
		indexFiles[entry.Name] = blobState{hash: entry.Hash, mode: entry.Mode}
	}

	paths := make([]string, 0, len(headFiles)+len(indexFiles))
	for p := range headFiles {
		paths = append(paths, p)
	}
	for p := range indexFiles {
		if _, dup := headFiles[p]; !dup {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var records []DiffFileRecord
	for _, p := range paths {
		head, inHead := headFiles[p]
		staged, inIndex := indexFiles[p]

		var record DiffFileRecord
		switch {
		case inHead && !inIndex:
			record, err = r.blobDiffRecord(changeDeleted, p, "", head.hash, plumbing.ZeroHash)
		case !inHead && inIndex:
			record, err = r.blobDiffRecord(changeAdded, "", p, plumbing.ZeroHash, staged.hash)
		case head.hash == staged.hash && head.mode == staged.mode:
			continue
		case head.hash == staged.hash:
			// Content unchanged, file mode flipped.
			record = DiffFileRecord{Path: p, Code: changeTypeChange.code()}
		default:
			record, err = r.blobDiffRecord(changeModified, p, p, head.hash, staged.hash)
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// WorktreeDiffFiles computes the per-file changes between the index and the
// working tree, the delta "git add ." would stage. With explicit paths the
// result is restricted to them, and requested paths that are excluded by
// gitignore rules report with the ignored code instead of a patch.
func (r *Repo) WorktreeDiffFiles(ctx context.Context, paths ...string) ([]DiffFileRecord, error) {
	if r.worktree == nil {
		return nil, ErrNoWorktree
	}

	status, err := r.worktree.Status()
	if err != nil {
		return nil, fail(KindCannotGetStatus, err, errCtx{})
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fail(KindCannotGetIndex, err, errCtx{})
	}

	requested := make(map[string]bool, len(paths))
	for _, p := range paths {
		requested[p] = true
	}

	statusPaths := make([]string, 0, len(status))
	for p := range status {
		statusPaths = append(statusPaths, p)
	}
	sort.Strings(statusPaths)

	var records []DiffFileRecord
	seen := make(map[string]bool)
	for _, p := range statusPaths {
		if len(requested) > 0 && !requested[p] {
			continue
		}
		fileStatus := status[p]
		if fileStatus.Worktree == git.Unmodified {
			continue
		}
		seen[p] = true

		record, recErr := r.worktreeFileRecord(p, statusChangeKind(fileStatus.Worktree), idx)
		if recErr != nil {
			return nil, recErr
		}
		records = append(records, record)
	}

	// Ignored files never reach the status map; report explicitly requested
	// ones so callers can tell "ignored" from "clean".
	if len(requested) > 0 {
		if matcher := r.ignoreMatcher(); matcher != nil {
			sortedReq := make([]string, len(paths))
			copy(sortedReq, paths)
			sort.Strings(sortedReq)
			for _, p := range sortedReq {
				if seen[p] {
					continue
				}
				if _, statErr := r.worktree.Filesystem.Stat(p); statErr != nil {
					continue
				}
				if matcher.Match(strings.Split(p, "/"), false) {
					records = append(records, DiffFileRecord{Path: p, Code: changeIgnored.code()})
				}
			}
		}
	}

	return records, nil
}

// treeChanges resolves two revisions to trees and computes their changes
// with rename detection.
func (r *Repo) treeChanges(ctx context.Context, a, b string) (object.Changes, error) {
	if a == "" {
		return nil, fail(KindInvalidReference, errors.New("revision 'a' cannot be empty"), errCtx{})
	}
	if b == "" {
		return nil, fail(KindInvalidReference, errors.New("revision 'b' cannot be empty"), errCtx{})
	}

	treeA, err := r.getTreeForRevision(a)
	if err != nil {
		return nil, WrapErrorf(err, "failed to get tree for revision %q", a)
	}

	treeB, err := r.getTreeForRevision(b)
	if err != nil {
		return nil, WrapErrorf(err, "failed to get tree for revision %q", b)
	}

	changes, err := object.DiffTreeWithOptions(ctx, treeA, treeB, &object.DiffTreeOptions{DetectRenames: true})
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	return changes, nil
}

// getTreeForRevision resolves a revision and returns its tree.
func (r *Repo) getTreeForRevision(rev string) (*object.Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fail(KindInvalidReference, err, errCtx{target: rev})
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, translate(err, errCtx{target: rev})
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, translate(err, errCtx{target: rev})
	}

	return tree, nil
}

// changeRecords materializes engine changes into owned records.
func (r *Repo) changeRecords(ctx context.Context, changes object.Changes) ([]DiffFileRecord, error) {
	records := make([]DiffFileRecord, 0, len(changes))
	for _, change := range changes {
		record, err := r.changeRecord(ctx, change)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// changeRecord copies one engine change into an owned record while the
// underlying objects are valid.
func (r *Repo) changeRecord(ctx context.Context, change *object.Change) (DiffFileRecord, error) {
	kind, err := changeKindOf(change)
	if err != nil {
		return DiffFileRecord{}, translate(err, errCtx{path: renderPath(change.From.Name, change.To.Name)})
	}

	patch, err := change.PatchContext(ctx)
	if err != nil {
		return DiffFileRecord{}, translate(err, errCtx{path: renderPath(change.From.Name, change.To.Name)})
	}

	record := DiffFileRecord{
		Path: renderPath(change.From.Name, change.To.Name),
		Code: kind.code(),
	}

	if patch != nil {
		record.Patch = patch.String()
		for _, filePatch := range patch.FilePatches() {
			if filePatch.IsBinary() {
				record.Binary = true
				break
			}
		}
	}

	return record, nil
}

// changeKindOf maps an engine change action into the closed change table.
// A modify whose sides carry different paths is a detected rename.
func changeKindOf(change *object.Change) (changeKind, error) {
	action, err := change.Action()
	if err != nil {
		return changeUnknown, err
	}

	switch action {
	case merkletrie.Insert:
		return changeAdded, nil
	case merkletrie.Delete:
		return changeDeleted, nil
	default:
		if change.From.Name != "" && change.To.Name != "" && change.From.Name != change.To.Name {
			return changeRenamed, nil
		}
		return changeModified, nil
	}
}

// blobState pairs the hash and mode one side of a staged comparison holds.
type blobState struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

// headTreeFiles maps the HEAD tree's files by path. An unborn HEAD yields
// an empty map.
func (r *Repo) headTreeFiles() (map[string]blobState, error) {
	files := make(map[string]blobState)

	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return files, nil
		}
		return nil, fail(KindCannotGetHead, err, errCtx{})
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fail(KindCannotGetHead, err, errCtx{})
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fail(KindCannotGetHead, err, errCtx{})
	}

	g := guard.New()
	defer g.Release()

	iter := tree.Files()
	g.Add(iter.Close)

	for {
		file, iterErr := iter.Next()
		if errors.Is(iterErr, io.EOF) {
			break
		}
		if iterErr != nil {
			return nil, translate(iterErr, errCtx{})
		}
		files[file.Name] = blobState{hash: file.Hash, mode: file.Mode}
	}

	return files, nil
}

// blobDiffRecord renders a record for two blob states held in object
// storage. A zero hash marks that side as absent.
func (r *Repo) blobDiffRecord(kind changeKind, fromName, toName string, from, to plumbing.Hash) (DiffFileRecord, error) {
	var fromFile, toFile textdiff.File

	if !from.IsZero() {
		data, err := r.blobData(from)
		if err != nil {
			return DiffFileRecord{}, translate(err, errCtx{path: fromName})
		}
		fromFile = textdiff.File{Name: fromName, Data: data}
	}
	if !to.IsZero() {
		data, err := r.blobData(to)
		if err != nil {
			return DiffFileRecord{}, translate(err, errCtx{path: toName})
		}
		toFile = textdiff.File{Name: toName, Data: data}
	}

	record := DiffFileRecord{
		Path: renderPath(fromName, toName),
		Code: kind.code(),
	}

	if textdiff.IsBinary(fromFile.Data) || textdiff.IsBinary(toFile.Data) {
		record.Binary = true
		record.Patch = textdiff.BinaryNotice(fromFile, toFile)
		return record, nil
	}

	text, err := textdiff.Unified(fromFile, toFile)
	if err != nil {
		return DiffFileRecord{}, WrapError(err, "failed to render patch")
	}
	record.Patch = text

	return record, nil
}

// worktreeFileRecord renders a record for one changed working tree file,
// diffing the index blob against the on-disk content.
func (r *Repo) worktreeFileRecord(p string, kind changeKind, idx *index.Index) (DiffFileRecord, error) {
	var fromFile, toFile textdiff.File

	entry, err := idx.Entry(p)
	switch {
	case err == nil:
		data, blobErr := r.blobData(entry.Hash)
		if blobErr != nil {
			return DiffFileRecord{}, translate(blobErr, errCtx{path: p})
		}
		fromFile = textdiff.File{Name: p, Data: data}
	case errors.Is(err, index.ErrEntryNotFound):
		// Untracked: nothing on the index side.
	default:
		return DiffFileRecord{}, fail(KindCannotGetIndex, err, errCtx{path: p})
	}

	if kind != changeDeleted {
		data, readErr := util.ReadFile(r.worktree.Filesystem, p)
		if readErr != nil {
			return DiffFileRecord{}, translate(readErr, errCtx{path: p, fallback: KindOperationFailed})
		}
		toFile = textdiff.File{Name: p, Data: data}
	}

	record := DiffFileRecord{Path: p, Code: kind.code()}

	if textdiff.IsBinary(fromFile.Data) || textdiff.IsBinary(toFile.Data) {
		record.Binary = true
		record.Patch = textdiff.BinaryNotice(fromFile, toFile)
		return record, nil
	}

	text, err := textdiff.Unified(fromFile, toFile)
	if err != nil {
		return DiffFileRecord{}, WrapError(err, "failed to render patch")
	}
	record.Patch = text

	return record, nil
}

// blobData reads a blob's full content from object storage.
func (r *Repo) blobData(hash plumbing.Hash) ([]byte, error) {
	blob, err := r.repo.BlobObject(hash)
	if err != nil {
		return nil, err
	}
	return readBlob(blob)
}

// ignoreMatcher loads the worktree's gitignore patterns. Pattern read
// failures degrade to no matcher.
func (r *Repo) ignoreMatcher() gitignore.Matcher {
	patterns, err := gitignore.ReadPatterns(r.worktree.Filesystem, nil)
	if err != nil || len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}

// applyChangeFilters applies all filters to changes and returns the ones
// that pass.
func applyChangeFilters(changes object.Changes, filters []ChangeFilter) object.Changes {
	if len(filters) == 0 {
		return changes
	}
	var filtered object.Changes
	for _, change := range changes {
		if shouldIncludeChange(change, filters) {
			filtered = append(filtered, change)
		}
	}
	return filtered
}

// shouldIncludeChange checks if a change passes all filters.
func shouldIncludeChange(change *object.Change, filters []ChangeFilter) bool {
	for _, filter := range filters {
		if filter != nil && !filter(change) {
			return false
		}
	}
	return true
}
