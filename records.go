// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains the owned record types returned by introspection
// operations. Records are copied out of engine-owned memory while the
// backing resources are still valid and never alias the engine afterward.
package gitkit

import (
	"strings"
	"time"
)

// CommitRecord is an owned snapshot of one commit.
type CommitRecord struct {
	// ID is the commit hash.
	ID ObjectID

	// Author and Email identify the commit author.
	Author string
	Email  string

	// AuthoredAt is when the change was authored, CommittedAt when it was
	// committed. They differ after rebases and cherry-picks.
	AuthoredAt  time.Time
	CommittedAt time.Time

	// Subject is the first line of the message; Body is the rest.
	Subject string
	Body    string

	// Parents are the parent commit ids in engine order.
	Parents []ObjectID

	// Branches and Tags list the refs pointing at this commit when the
	// listing requested decoration. Branch names are short names; the
	// current HEAD branch appears as "HEAD -> name".
	Branches []string
	Tags     []string

	// Conventional carries the parsed conventional-commit shape of the
	// subject, nil when the subject does not parse as one.
	Conventional *ConventionalMeta
}

// ConventionalMeta is the conventional-commit classification of a commit
// subject.
type ConventionalMeta struct {
	Type        string
	Scope       string
	Description string
	Breaking    bool
}

// BranchRecord is an owned snapshot of one branch head. Local and remote
// branches share this shape; remote branches carry remote-qualified names
// such as "origin/main".
type BranchRecord struct {
	Name      string
	IsCurrent bool

	// Upstream is the remote-tracking name the branch pulls from and pushes
	// to ("origin/main"), empty when unconfigured.
	Upstream string

	// Head is the branch tip; Subject its commit message first line.
	Head    ObjectID
	Subject string
}

// RemoteRecord is an owned snapshot of one remote.
type RemoteRecord struct {
	Name     string
	FetchURL string

	// PushURL falls back to FetchURL when no push URL is configured.
	PushURL string

	// IsDefault marks the conventional default remote, name "origin".
	IsDefault bool
}

// DiffFileRecord is an owned snapshot of one file-level change inside a
// diff. Records appear in engine-reported delta order, not re-sorted.
type DiffFileRecord struct {
	// Path is the file path, rendered as "old -> new" when the change is a
	// rename with differing names.
	Path string

	// Code is the single-character change code from the closed table:
	// A, D, M, R, C, T, "?", I, or " " for anything else.
	Code string

	// Patch is the rendered unified diff for this file. Binary files carry
	// a marker line instead of hunks.
	Patch string

	// Binary marks files whose content diff is not rendered.
	Binary bool
}

// FileStatus is one path's status relative to either the index or the
// working tree, depending on which StatusRecord set it appears in.
type FileStatus struct {
	Path string
	Code string
}

// StatusRecord partitions the repository status into index-relative and
// worktree-relative sets. A file with independent changes in both areas
// appears in both sets; that is intentional and preserved.
type StatusRecord struct {
	Staged   []FileStatus
	Unstaged []FileStatus
}

// Clean reports whether both sets are empty.
func (s *StatusRecord) Clean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0
}

// TagRecord is an owned snapshot of one tag.
type TagRecord struct {
	Name string

	// Target is the tagged commit. For annotated tags this is the commit
	// the tag object points at, not the tag object itself.
	Target ObjectID

	// Annotated is true for tag objects, false for lightweight tags.
	Annotated bool

	// Message and Tagger are set for annotated tags only.
	Message string
	Tagger  string
}

// StashRecord is an owned snapshot of one stash entry. Index 0 is the most
// recent entry.
type StashRecord struct {
	Index     int
	ID        ObjectID
	Message   string
	Branch    string
	CreatedAt time.Time
}

// changeKind is the internal classification a diff or status entry maps
// through before rendering its single-character code.
type changeKind int

const (
	changeUnknown changeKind = iota
	changeAdded
	changeDeleted
	changeModified
	changeRenamed
	changeCopied
	changeTypeChange
	changeUntracked
	changeIgnored
)

// code renders the closed change-code table. Kinds outside the table render
// as a single space.
func (k changeKind) code() string {
	switch k {
	case changeAdded:
		return "A"
	case changeDeleted:
		return "D"
	case changeModified:
		return "M"
	case changeRenamed:
		return "R"
	case changeCopied:
		return "C"
	case changeTypeChange:
		return "T"
	case changeUntracked:
		return "?"
	case changeIgnored:
		return "I"
	default:
		return " "
	}
}

// renderPath renders a delta's display path: "old -> new" only when both
// sides exist and differ, otherwise the single surviving path.
func renderPath(oldPath, newPath string) string {
	switch {
	case oldPath != "" && newPath != "" && oldPath != newPath:
		return oldPath + " -> " + newPath
	case newPath != "":
		return newPath
	default:
		return oldPath
	}
}

// splitMessage splits a full commit message into its subject line and body.
func splitMessage(message string) (subject, body string) {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	if i := strings.Index(message, "\n"); i >= 0 {
		return strings.TrimSpace(message[:i]), strings.TrimSpace(message[i+1:])
	}
	return strings.TrimSpace(message), ""
}

// copyStrings detaches a string slice from engine-owned memory. Entries are
// copied positionally; a zero entry stays an empty string rather than
// truncating the copy.
func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
