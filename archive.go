package gitkit

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit/internal/guard"
)

// ArchiveFormat selects the archive compression.
type ArchiveFormat int

const (
	// ArchiveTarGz is a gzip-compressed tar stream.
	ArchiveTarGz ArchiveFormat = iota

	// ArchiveTarZstd is a zstd-compressed tar stream.
	ArchiveTarZstd
)

// String returns the format's conventional file extension.
func (f ArchiveFormat) String() string {
	switch f {
	case ArchiveTarGz:
		return "tar.gz"
	case ArchiveTarZstd:
		return "tar.zst"
	default:
		return "unknown"
	}
}

// ArchiveOpts configures Archive.
type ArchiveOpts struct {
	// Format selects the compression. The zero value is tar.gz.
	Format ArchiveFormat

	// Prefix is prepended verbatim to every entry name, conventionally
	// ending in "/", as in "project-1.2.0/".
	Prefix string
}

// Archive streams the tree of the given revision as a compressed tar
// archive. Entries appear in tree order with the commit time as their
// modification time; symlinks are preserved as such. The writer receives
// a complete archive only when Archive returns nil.
func (r *Repo) Archive(ctx context.Context, rev string, w io.Writer, opts ArchiveOpts) error {
	commit, err := r.revisionCommit(rev)
	if err != nil {
		return err
	}
	tree, err := commit.Tree()
	if err != nil {
		return translate(err, errCtx{target: rev})
	}

	compressor, err := newArchiveCompressor(w, opts.Format)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(compressor)

	g := guard.New()
	defer g.Release()

	files := tree.Files()
	g.Add(files.Close)

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return WrapError(ctxErr, "archive cancelled")
		}

		file, nextErr := files.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return translate(nextErr, errCtx{target: rev})
		}

		if writeErr := writeArchiveEntry(tw, file, opts.Prefix, commit); writeErr != nil {
			return writeErr
		}
	}

	if closeErr := tw.Close(); closeErr != nil {
		return WrapError(closeErr, "failed to finalize archive")
	}
	if closeErr := compressor.Close(); closeErr != nil {
		return WrapError(closeErr, "failed to finalize archive compression")
	}

	r.logger.DebugContext(ctx, "archive written",
		"rev", rev, "format", opts.Format.String())

	return nil
}

// writeArchiveEntry emits one tree file into the tar stream.
func writeArchiveEntry(tw *tar.Writer, file *object.File, prefix string, commit *object.Commit) error {
	g := guard.New()
	defer g.Release()

	header := &tar.Header{
		Name:    prefix + file.Name,
		Size:    file.Size,
		ModTime: commit.Committer.When,
	}

	switch file.Mode {
	case filemode.Symlink:
		target, err := file.Contents()
		if err != nil {
			return translate(err, errCtx{path: file.Name})
		}
		header.Typeflag = tar.TypeSymlink
		header.Linkname = target
		header.Size = 0

		return writeArchiveHeader(tw, header, file.Name)

	case filemode.Executable:
		header.Typeflag = tar.TypeReg
		header.Mode = 0o755
	default:
		header.Typeflag = tar.TypeReg
		header.Mode = 0o644
	}

	reader, err := file.Reader()
	if err != nil {
		return translate(err, errCtx{path: file.Name})
	}
	g.AddCloser(reader)

	if err := writeArchiveHeader(tw, header, file.Name); err != nil {
		return err
	}
	if _, err := io.Copy(tw, reader); err != nil {
		return WrapErrorf(err, "failed to archive %q", file.Name)
	}
	return nil
}

// writeArchiveHeader writes a tar header with path context on failure.
func writeArchiveHeader(tw *tar.Writer, header *tar.Header, name string) error {
	if err := tw.WriteHeader(header); err != nil {
		return WrapErrorf(err, "failed to write archive header for %q", name)
	}
	return nil
}

// newArchiveCompressor wraps the destination writer in the selected
// compression codec.
func newArchiveCompressor(w io.Writer, format ArchiveFormat) (io.WriteCloser, error) {
	switch format {
	case ArchiveTarGz:
		return gzip.NewWriter(w), nil
	case ArchiveTarZstd:
		encoder, err := zstd.NewWriter(w)
		if err != nil {
			return nil, WrapError(err, "failed to create zstd encoder")
		}
		return encoder, nil
	default:
		return nil, fail(KindOperationFailed,
			fmt.Errorf("unsupported archive format %d", int(format)), errCtx{})
	}
}
