// Package diff renders unified diff text for content that lives outside
// go-git's object storage, such as working tree files. Tree-to-tree diffs
// use go-git's own Patch API; this package covers the index and worktree
// sides where no tree object exists.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// binarySniffLen is how many leading bytes IsBinary inspects, matching
// git's own buffer size for the NUL heuristic.
const binarySniffLen = 8000

// devNull is the side label git uses for an absent file.
const devNull = "/dev/null"

// File is one side of a diff. An empty Name marks the side as absent, which
// renders as /dev/null in the header.
type File struct {
	Name string
	Data []byte
}

// IsBinary reports whether data looks like binary content, using git's
// heuristic of a NUL byte within the leading bytes.
func IsBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// Unified renders a unified diff between two file states with three lines
// of context, using git-style a/ and b/ path prefixes. Identical contents
// render as the empty string.
func Unified(from, to File) (string, error) {
	fromLabel := devNull
	if from.Name != "" {
		fromLabel = "a/" + from.Name
	}
	toLabel := devNull
	if to.Name != "" {
		toLabel = "b/" + to.Name
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(from.Data)),
		B:        difflib.SplitLines(string(to.Data)),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("rendering unified diff: %w", err)
	}

	return text, nil
}

// BinaryNotice renders the marker git emits instead of a patch when either
// side of the diff is binary.
func BinaryNotice(from, to File) string {
	fromLabel := devNull
	if from.Name != "" {
		fromLabel = "a/" + from.Name
	}
	toLabel := devNull
	if to.Name != "" {
		toLabel = "b/" + to.Name
	}
	return fmt.Sprintf("Binary files %s and %s differ\n", fromLabel, toLabel)
}

// ContainsBinaryFiles reports whether rendered patch text contains binary
// file markers.
func ContainsBinaryFiles(patchText string) bool {
	return strings.Contains(patchText, "Binary files ") ||
		strings.Contains(patchText, "GIT binary patch")
}

// CountChangedFiles counts the files touched by rendered patch text.
func CountChangedFiles(patchText string) int {
	count := 0
	for _, line := range strings.Split(patchText, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			count++
		}
	}
	return count
}
