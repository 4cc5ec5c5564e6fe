// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains tag operations: creation, deletion, listing, and
// record materialization.
package gitkit

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TagFilter is a predicate function for filtering tags.
// It returns true if the tag should be included in the results.
// Filters are applied progressively - if any filter returns false, the tag
// is excluded.
type TagFilter func(name string, ref *plumbing.Reference) bool

// CreateTag creates a new tag at the specified target revision.
// If message is provided and annotated is true, an annotated tag object is
// created carrying the tagger identity. Otherwise a lightweight tag is
// created. The target can be any valid revision specifier.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) CreateTag(ctx context.Context, name, target, message string, annotated bool, tagger Signature) error {
	if name == "" {
		return fail(KindInvalidReference, errors.New("tag name cannot be empty"), errCtx{})
	}

	if target == "" {
		return fail(KindInvalidReference, errors.New("target revision cannot be empty"), errCtx{})
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(target))
	if err != nil {
		return fail(KindInvalidReference, err, errCtx{target: target})
	}

	tagRefName := plumbing.NewTagReferenceName(name)
	if _, refErr := r.repo.Reference(tagRefName, true); refErr == nil {
		return WrapError(ErrTagExists, "tag already exists")
	}

	if annotated && message != "" {
		if tagger.Name == "" || tagger.Email == "" {
			return fail(KindOperationFailed,
				errors.New("annotated tags require a tagger name and email"),
				errCtx{target: name})
		}
		when := tagger.When
		if when.IsZero() {
			when = time.Now()
		}

		tagOpts := &git.CreateTagOptions{
			Tagger: &object.Signature{
				Name:  tagger.Name,
				Email: tagger.Email,
				When:  when,
			},
			Message: message,
		}

		if _, tagErr := r.repo.CreateTag(name, *hash, tagOpts); tagErr != nil {
			return translate(tagErr, errCtx{target: name})
		}
	} else {
		tagRef := plumbing.NewHashReference(tagRefName, *hash)
		if setErr := r.repo.Storer.SetReference(tagRef); setErr != nil {
			return translate(setErr, errCtx{target: name})
		}
	}

	r.logger.DebugContext(ctx, "tag created", "tag", name, "target", hash.String(), "annotated", annotated)

	return nil
}

// DeleteTag deletes the specified tag from the repository.
// Returns ErrTagMissing if the tag does not exist.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) DeleteTag(ctx context.Context, name string) error {
	if name == "" {
		return fail(KindInvalidReference, errors.New("tag name cannot be empty"), errCtx{})
	}

	tagRefName := plumbing.NewTagReferenceName(name)
	if _, err := r.repo.Reference(tagRefName, true); err != nil {
		return WrapError(ErrTagMissing, "tag does not exist")
	}

	if err := r.repo.Storer.RemoveReference(tagRefName); err != nil {
		return translate(err, errCtx{target: name})
	}

	return nil
}

// Tags returns a list of tag names that pass all the provided filters.
// If no filters are provided, all tags are returned. A tag must pass ALL
// filters to be included. Results are sorted alphabetically.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Tags(ctx context.Context, filters ...TagFilter) ([]string, error) {
	refs, err := r.repo.Tags()
	if err != nil {
		return nil, fail(KindCannotCreateWalker, err, errCtx{})
	}

	var tags []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		tagName := ref.Name().Short()
		if shouldIncludeTag(tagName, ref, filters) {
			tags = append(tags, tagName)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	sort.Strings(tags)

	return tags, nil
}

// TagRecords materializes all tags as owned records, sorted by name. For
// annotated tags the record carries the tag message and tagger, and Target
// is the commit the tag object points at.
func (r *Repo) TagRecords(ctx context.Context) ([]TagRecord, error) {
	refs, err := r.repo.Tags()
	if err != nil {
		return nil, fail(KindCannotCreateWalker, err, errCtx{})
	}

	var records []TagRecord
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		records = append(records, r.tagRecord(ref))
		return nil
	})
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	return records, nil
}

// TagInfo returns one tag as an owned record.
// Returns ErrTagMissing if the tag does not exist.
func (r *Repo) TagInfo(ctx context.Context, name string) (*TagRecord, error) {
	if name == "" {
		return nil, fail(KindInvalidReference, errors.New("tag name cannot be empty"), errCtx{})
	}

	ref, err := r.repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err != nil {
		return nil, WrapError(ErrTagMissing, "tag does not exist")
	}

	record := r.tagRecord(ref)
	return &record, nil
}

// tagRecord copies one tag reference into an owned record while the
// reference is valid.
func (r *Repo) tagRecord(ref *plumbing.Reference) TagRecord {
	record := TagRecord{
		Name:   ref.Name().Short(),
		Target: NewObjectID(ref.Hash()),
	}

	// Annotated tags point at a tag object carrying message and tagger.
	if tag, err := r.repo.TagObject(ref.Hash()); err == nil {
		record.Annotated = true
		record.Target = NewObjectID(tag.Target)
		record.Message = strings.TrimSpace(tag.Message)
		record.Tagger = tag.Tagger.Name + " <" + tag.Tagger.Email + ">"
	}

	return record
}

// shouldIncludeTag checks if a tag passes all filters.
func shouldIncludeTag(name string, ref *plumbing.Reference, filters []TagFilter) bool {
	for _, filter := range filters {
		if filter != nil && !filter(name, ref) {
			return false
		}
	}
	return true
}

// Common TagFilter implementations for convenience

// TagPatternFilter returns a filter that matches tags against a glob
// pattern. Supports * (matches any number of characters) and ? (matches a
// single character). For example: "v1.*" matches "v1.0", "v1.1", etc.
func TagPatternFilter(pattern string) TagFilter {
	return func(name string, ref *plumbing.Reference) bool {
		return matchesTagPattern(name, pattern)
	}
}

// matchesTagPattern checks if a tag name matches the given pattern.
func matchesTagPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if strings.Contains(pattern, "*") {
		return matchesStarPattern(name, pattern)
	}

	if strings.Contains(pattern, "?") {
		return matchesQuestionPattern(name, pattern)
	}

	return name == pattern
}

// TagPrefixFilter returns a filter that matches tags with the given prefix.
// For example: "v" matches "v1.0", "v2.0", etc.
func TagPrefixFilter(prefix string) TagFilter {
	return func(name string, ref *plumbing.Reference) bool {
		return strings.HasPrefix(name, prefix)
	}
}

// TagSuffixFilter returns a filter that matches tags with the given suffix.
// For example: "-rc" matches "v1.0-rc", "v2.0-rc", etc.
func TagSuffixFilter(suffix string) TagFilter {
	return func(name string, ref *plumbing.Reference) bool {
		return strings.HasSuffix(name, suffix)
	}
}

// TagExcludeFilter returns a filter that excludes tags matching the given
// pattern. For example: TagExcludeFilter("*-rc") excludes all release
// candidates.
func TagExcludeFilter(pattern string) TagFilter {
	return func(name string, ref *plumbing.Reference) bool {
		return !matchesTagPattern(name, pattern)
	}
}

// TagAnnotatedFilter returns a filter that keeps only annotated tags, or
// only lightweight tags when annotated is false.
func (r *Repo) TagAnnotatedFilter(annotated bool) TagFilter {
	return func(name string, ref *plumbing.Reference) bool {
		_, err := r.repo.TagObject(ref.Hash())
		return (err == nil) == annotated
	}
}
