package gitkit

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// Common ChangeFilter functions for filtering diffs

// PathFilter creates a filter that includes changes matching the given path
// pattern. The pattern can include wildcards (* and ?) and is matched
// against both the old and new file names (to handle renames).
func PathFilter(pattern string) ChangeFilter {
	return func(change *object.Change) bool {
		if change.From.Name != "" {
			if matched, _ := filepath.Match(pattern, change.From.Name); matched {
				return true
			}
		}
		if change.To.Name != "" {
			if matched, _ := filepath.Match(pattern, change.To.Name); matched {
				return true
			}
		}
		return false
	}
}

// PathPrefixFilter creates a filter that includes changes with paths
// starting with the given prefix. This is useful for filtering by
// directory.
func PathPrefixFilter(prefix string) ChangeFilter {
	return func(change *object.Change) bool {
		return strings.HasPrefix(change.From.Name, prefix) ||
			strings.HasPrefix(change.To.Name, prefix)
	}
}

// ExtensionFilter creates a filter that includes changes for files with the
// given extensions. Extensions should include the dot (e.g., ".go", ".js").
func ExtensionFilter(extensions ...string) ChangeFilter {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}

	return func(change *object.Change) bool {
		if change.From.Name != "" && extSet[strings.ToLower(filepath.Ext(change.From.Name))] {
			return true
		}
		if change.To.Name != "" && extSet[strings.ToLower(filepath.Ext(change.To.Name))] {
			return true
		}
		return false
	}
}

// NonBinaryFilter creates a filter that excludes binary files.
// It uses file extension heuristics to identify binary files without
// loading blob contents.
func NonBinaryFilter() ChangeFilter {
	return func(change *object.Change) bool {
		return !isBinaryPath(change.From.Name) && !isBinaryPath(change.To.Name)
	}
}

// MaxSizeFilter creates a filter that excludes files larger than the
// specified size in bytes. Blob sizes come from object headers, so contents
// are not loaded.
func MaxSizeFilter(maxBytes int64) ChangeFilter {
	return func(change *object.Change) bool {
		return entrySize(change.From) <= maxBytes && entrySize(change.To) <= maxBytes
	}
}

// entrySize resolves one side of a change to its blob size. Absent or
// unresolvable sides count as zero.
func entrySize(entry object.ChangeEntry) int64 {
	if entry.Name == "" || entry.Tree == nil {
		return 0
	}
	file, err := entry.Tree.File(entry.Name)
	if err != nil {
		return 0
	}
	return file.Size
}

// AddedFilter creates a filter that only includes newly added files.
func AddedFilter() ChangeFilter {
	return func(change *object.Change) bool {
		return change.From.Name == "" && change.To.Name != ""
	}
}

// DeletedFilter creates a filter that only includes deleted files.
func DeletedFilter() ChangeFilter {
	return func(change *object.Change) bool {
		return change.From.Name != "" && change.To.Name == ""
	}
}

// ModifiedFilter creates a filter that only includes modified files (not
// added, deleted, or renamed).
func ModifiedFilter() ChangeFilter {
	return func(change *object.Change) bool {
		return change.From.Name != "" && change.To.Name != "" &&
			change.From.Name == change.To.Name
	}
}

// RenamedFilter creates a filter that only includes renamed/moved files.
func RenamedFilter() ChangeFilter {
	return func(change *object.Change) bool {
		return change.From.Name != "" && change.To.Name != "" &&
			change.From.Name != change.To.Name
	}
}

// AndFilter combines multiple filters with AND logic, all must pass.
func AndFilter(filters ...ChangeFilter) ChangeFilter {
	return func(change *object.Change) bool {
		for _, filter := range filters {
			if filter != nil && !filter(change) {
				return false
			}
		}
		return true
	}
}

// OrFilter combines multiple filters with OR logic, at least one must pass.
func OrFilter(filters ...ChangeFilter) ChangeFilter {
	return func(change *object.Change) bool {
		for _, filter := range filters {
			if filter != nil && filter(change) {
				return true
			}
		}
		return false
	}
}

// NotFilter creates a filter that inverts the result of another filter.
func NotFilter(filter ChangeFilter) ChangeFilter {
	return func(change *object.Change) bool {
		return filter == nil || !filter(change)
	}
}

// isBinaryPath checks if a file path likely represents a binary file based
// on its extension.
func isBinaryPath(path string) bool {
	if path == "" {
		return false
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	binaryExts := map[string]bool{
		"png": true, "jpg": true, "jpeg": true, "gif": true, "ico": true,
		"pdf": true, "zip": true, "tar": true, "gz": true, "bz2": true,
		"exe": true, "dll": true, "so": true, "dylib": true, "bin": true,
		"mp3": true, "mp4": true, "avi": true, "mov": true, "wav": true,
		"ttf": true, "otf": true, "woff": true, "woff2": true, "eot": true,
	}

	return binaryExts[ext]
}
