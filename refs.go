// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains reference operations for listing and resolving refs.
package gitkit

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// RefKind represents the type of git reference.
// This is used to classify references when listing or resolving them.
type RefKind int

const (
	// RefBranch indicates a local branch reference (refs/heads/*).
	RefBranch RefKind = iota

	// RefRemoteBranch indicates a remote branch reference (refs/remotes/*/*).
	RefRemoteBranch

	// RefTag indicates a tag reference (refs/tags/*).
	RefTag

	// RefRemote indicates a generic remote reference.
	RefRemote

	// RefCommit indicates a commit hash (not a symbolic reference).
	RefCommit

	// RefOther indicates any other type of reference.
	RefOther
)

// String returns a human-readable string representation of the RefKind.
func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefRemoteBranch:
		return "remote-branch"
	case RefTag:
		return "tag"
	case RefRemote:
		return "remote"
	case RefCommit:
		return "commit"
	case RefOther:
		return "other"
	default:
		return "unknown"
	}
}

// ResolvedRef represents a resolved reference with its kind and id.
// This is returned when resolving revision specifiers like branch names,
// tags, or commit hashes.
type ResolvedRef struct {
	// Kind indicates the type of reference (branch, tag, commit, etc.).
	Kind RefKind

	// ID is the commit the revision resolves to.
	ID ObjectID

	// CanonicalName is the canonical reference name (e.g.,
	// "refs/heads/main"). For commit hashes it is the full hex id.
	CanonicalName string
}

// Refs returns a list of references that match the specified kind and
// pattern. The pattern supports glob-style matching with * and ?
// wildcards. Results are sorted alphabetically.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Refs(ctx context.Context, kind RefKind, pattern string) ([]string, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, fail(KindCannotCreateWalker, err, errCtx{})
	}

	var matchingRefs []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !matchesRefKind(ref, kind) {
			return nil
		}

		shortName := ref.Name().Short()
		if pattern != "" && !matchesRefPattern(shortName, pattern) {
			return nil
		}

		matchingRefs = append(matchingRefs, shortName)
		return nil
	})
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	sort.Strings(matchingRefs)

	return matchingRefs, nil
}

// Resolve resolves a revision specification to a ResolvedRef containing the
// kind, id, and canonical name. The revision can be any valid git revision
// syntax (commit hash, branch name, tag, HEAD, etc.).
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Resolve(ctx context.Context, rev string) (*ResolvedRef, error) {
	if rev == "" {
		return nil, fail(KindInvalidReference, errors.New("revision cannot be empty"), errCtx{})
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fail(KindInvalidReference, err, errCtx{target: rev})
	}

	kind, canonicalName := r.classifyResolvedRevision(rev, hash)

	return &ResolvedRef{
		Kind:          kind,
		ID:            NewObjectID(*hash),
		CanonicalName: canonicalName,
	}, nil
}

// classifyResolvedRevision determines the RefKind and canonical name for a
// resolved revision.
func (r *Repo) classifyResolvedRevision(rev string, hash *plumbing.Hash) (RefKind, string) {
	if plumbing.IsHash(rev) {
		return RefCommit, hash.String()
	}

	if rev == "HEAD" {
		return RefOther, "HEAD"
	}

	refs, err := r.repo.References()
	if err != nil {
		return RefCommit, hash.String()
	}

	var foundRef *plumbing.Reference
	_ = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name().Short() == rev || ref.Name().String() == rev {
			foundRef = ref
			return storer.ErrStop
		}
		return nil
	})

	if foundRef != nil {
		switch {
		case foundRef.Name().IsBranch():
			return RefBranch, foundRef.Name().String()
		case foundRef.Name().IsTag():
			return RefTag, foundRef.Name().String()
		case foundRef.Name().IsRemote():
			return RefRemoteBranch, foundRef.Name().String()
		default:
			return RefOther, foundRef.Name().String()
		}
	}

	// Abbreviated hashes and other revision syntax resolve without a ref.
	return RefCommit, hash.String()
}

// matchesRefKind checks if a reference matches the specified RefKind.
func matchesRefKind(ref *plumbing.Reference, kind RefKind) bool {
	switch kind {
	case RefBranch:
		return ref.Name().IsBranch()
	case RefRemoteBranch:
		// Remote HEAD pointers are symbolic, not branch heads.
		return ref.Name().IsRemote() && ref.Type() == plumbing.HashReference
	case RefTag:
		return ref.Name().IsTag()
	case RefRemote:
		return ref.Name().IsRemote()
	case RefCommit:
		// Commit hashes are not stored as refs.
		return false
	case RefOther:
		return !ref.Name().IsBranch() && !ref.Name().IsTag() && !ref.Name().IsRemote()
	default:
		return false
	}
}

// matchesRefPattern checks if a reference name matches the given pattern.
func matchesRefPattern(name, pattern string) bool {
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

// matchesStarPattern matches names with * wildcards.
func matchesStarPattern(name, pattern string) bool {
	switch {
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") && strings.Count(pattern, "*") == 2:
		middle := strings.TrimPrefix(strings.TrimSuffix(pattern, "*"), "*")
		return strings.Contains(name, middle)
	case strings.HasPrefix(pattern, "*") && strings.Count(pattern, "*") == 1:
		return strings.HasSuffix(name, strings.TrimPrefix(pattern, "*"))
	case strings.HasSuffix(pattern, "*") && strings.Count(pattern, "*") == 1:
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	default:
		// Multiple * wildcards: each literal part must appear in order.
		parts := strings.Split(pattern, "*")
		pos := 0
		for i, part := range parts {
			if part == "" {
				continue
			}

			switch {
			case i == 0:
				if !strings.HasPrefix(name, part) {
					return false
				}
				pos = len(part)
			case i == len(parts)-1:
				return len(name) >= pos+len(part) && strings.HasSuffix(name, part)
			default:
				idx := strings.Index(name[pos:], part)
				if idx == -1 {
					return false
				}
				pos += idx + len(part)
			}
		}
		return true
	}
}

// matchesQuestionPattern matches names with ? wildcards.
func matchesQuestionPattern(name, pattern string) bool {
	if len(name) != len(pattern) {
		return false
	}

	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '?' {
			continue
		}
		if pattern[i] != name[i] {
			return false
		}
	}

	return true
}
