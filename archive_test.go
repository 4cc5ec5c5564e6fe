package gitkit

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tarEntry is one decoded archive member.
type tarEntry struct {
	header  *tar.Header
	content string
}

// readTarEntries decodes every member of a tar stream in order.
func readTarEntries(t *testing.T, r io.Reader) []tarEntry {
	t.Helper()

	tr := tar.NewReader(r)
	var entries []tarEntry
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err, "failed to read tar header")

		content, err := io.ReadAll(tr)
		require.NoError(t, err, "failed to read tar entry %s", header.Name)

		entries = append(entries, tarEntry{header: header, content: string(content)})
	}
	return entries
}

func TestArchiveTarGz(t *testing.T) {
	tr := setupTestRepoWithCommit(t)
	tr.commitFile(t, "a.txt", "alpha", "Add a.txt")
	tr.commitFile(t, "docs/guide.md", "# Guide", "Add guide")

	var buf bytes.Buffer
	err := tr.repo.Archive(tr.ctx, "HEAD", &buf, ArchiveOpts{Prefix: "release-1.0/"})
	require.NoError(t, err)

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err, "output should be a valid gzip stream")
	defer gz.Close()

	entries := readTarEntries(t, gz)
	require.Len(t, entries, 3)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.header.Name
	}
	assert.Equal(t, []string{
		"release-1.0/a.txt",
		"release-1.0/docs/guide.md",
		"release-1.0/test.txt",
	}, names, "entries should follow tree order")

	assert.Equal(t, "alpha", entries[0].content)
	assert.Equal(t, "# Guide", entries[1].content)
	assert.Equal(t, "initial content", entries[2].content)

	for _, e := range entries {
		assert.Equal(t, byte(tar.TypeReg), e.header.Typeflag)
		assert.EqualValues(t, 0o644, e.header.Mode)
		assert.True(t, e.header.ModTime.Equal(testSignature().When),
			"entry time should be the commit time")
	}
}

func TestArchiveTarZstd(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	var buf bytes.Buffer
	err := tr.repo.Archive(tr.ctx, "HEAD", &buf, ArchiveOpts{Format: ArchiveTarZstd})
	require.NoError(t, err)

	dec, err := zstd.NewReader(&buf)
	require.NoError(t, err, "output should be a valid zstd stream")
	defer dec.Close()

	entries := readTarEntries(t, dec)
	require.Len(t, entries, 1)
	assert.Equal(t, "test.txt", entries[0].header.Name)
	assert.Equal(t, "initial content", entries[0].content)
}

func TestArchiveAtRevision(t *testing.T) {
	tr := setupTestRepo(t, false)
	first := tr.commitFile(t, "test.txt", "initial content", "Initial commit")
	tr.commitFile(t, "later.txt", "later", "Add later file")

	var buf bytes.Buffer
	err := tr.repo.Archive(tr.ctx, first.String(), &buf, ArchiveOpts{})
	require.NoError(t, err)

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	defer gz.Close()

	entries := readTarEntries(t, gz)
	require.Len(t, entries, 1, "archive of the first commit should not include later files")
	assert.Equal(t, "test.txt", entries[0].header.Name)
}

func TestArchiveUnknownRevision(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	var buf bytes.Buffer
	err := tr.repo.Archive(tr.ctx, "does-not-exist", &buf, ArchiveOpts{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Zero(t, buf.Len(), "no output should be written for a bad revision")
}

func TestArchiveEmptyRevision(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	var buf bytes.Buffer
	err := tr.repo.Archive(tr.ctx, "", &buf, ArchiveOpts{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestArchiveUnsupportedFormat(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	var buf bytes.Buffer
	err := tr.repo.Archive(tr.ctx, "HEAD", &buf, ArchiveOpts{Format: ArchiveFormat(42)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOperationFailed)
}

func TestArchiveCancelledContext(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := tr.repo.Archive(ctx, "HEAD", &buf, ArchiveOpts{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArchiveFormatString(t *testing.T) {
	assert.Equal(t, "tar.gz", ArchiveTarGz.String())
	assert.Equal(t, "tar.zst", ArchiveTarZstd.String())
	assert.Equal(t, "unknown", ArchiveFormat(42).String())
}
