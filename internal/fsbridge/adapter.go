// Package fsbridge provides adapters between fs.Filesystem and billy.Filesystem.
// This enables git operations to work with the project's native filesystem abstraction.
package fsbridge

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"
	"github.com/go-git/go-billy/v5/helper/polyfill"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	fsb "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
)

// ToBillyFilesystem converts an fs.Filesystem to a billy.Filesystem.
// The passed filesystem must be a billy.FS wrapper from the fs/billy package.
// If not, an error is returned.
//
//nolint:ireturn // returns interface as required by billy.Filesystem interface
func ToBillyFilesystem(fsys fs.Filesystem) (billy.Filesystem, error) {
	// Type assert to billy.FS which wraps a billy.Filesystem
	billyFS, ok := fsys.(*fsb.FS)
	if !ok {
		return nil, fmt.Errorf("filesystem must be a billy.FS from fs/billy package, got %T", fsys)
	}

	// Extract the underlying billy.Filesystem using Raw()
	return billyFS.Raw(), nil
}

// OSRoot reports the on-disk root of an OS-backed filesystem. In-memory
// filesystems, and wrappers whose root does not exist as a directory on
// the host, report false. Callers that need real inotify-style access
// (the repository watcher) gate on this.
func OSRoot(fsys fs.Filesystem) (string, bool) {
	billyFS, err := ToBillyFilesystem(fsys)
	if err != nil {
		return "", false
	}
	// memfs.New returns its filesystem wrapped in chroot and polyfill
	// helpers, so unwrap those before checking the concrete type.
	var inner billy.Basic = billyFS
	for {
		if ch, ok := inner.(*chroot.ChrootHelper); ok {
			inner = ch.Underlying()
			continue
		}
		if pf, ok := inner.(*polyfill.Polyfill); ok {
			inner = pf.Basic
			continue
		}
		break
	}
	if _, inMemory := inner.(*memfs.Memory); inMemory {
		return "", false
	}

	root := billyFS.Root()
	if root == "" {
		return "", false
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		return "", false
	}
	return root, true
}
