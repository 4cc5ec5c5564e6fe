package gitkit

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	fsb "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/require"
)

// testRepo is a helper struct that contains a test repository and its filesystem
type testRepo struct {
	repo *Repo
	fs   fs.Filesystem
	ctx  context.Context
}

// testSignature returns a deterministic author for test commits
func testSignature() Signature {
	return Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

// setupTestRepo creates a new test repository with an in-memory filesystem
func setupTestRepo(t *testing.T, bare bool) *testRepo {
	t.Helper()

	ctx := context.Background()
	memFS := fsb.NewInMemoryFS()

	opts := Options{
		FS:      memFS,
		Bare:    bare,
		Workdir: ".",
	}

	repo, err := Init(ctx, &opts)
	require.NoError(t, err, "failed to initialize test repository")
	require.NotNil(t, repo, "repository should not be nil")

	return &testRepo{
		repo: repo,
		fs:   memFS,
		ctx:  ctx,
	}
}

// setupOSTestRepo creates a test repository backed by a temporary directory
// on the real filesystem, for operations that need an OS-visible .git dir
func setupOSTestRepo(t *testing.T) *testRepo {
	t.Helper()

	ctx := context.Background()
	dir := t.TempDir()
	osFS := fsb.NewOSFS(dir)

	opts := Options{
		FS:      osFS,
		Workdir: ".",
	}

	repo, err := Init(ctx, &opts)
	require.NoError(t, err, "failed to initialize test repository")

	return &testRepo{
		repo: repo,
		fs:   osFS,
		ctx:  ctx,
	}
}

// setupTestRepoWithCommit creates a test repository with an initial commit
func setupTestRepoWithCommit(t *testing.T) *testRepo {
	t.Helper()

	tr := setupTestRepo(t, false)
	tr.commitFile(t, "test.txt", "initial content", "Initial commit")

	return tr
}

// commitFile writes a file, stages it, and commits it, returning the commit ID
func (tr *testRepo) commitFile(t *testing.T, path, content, message string) ObjectID {
	t.Helper()

	err := tr.fs.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err, "failed to write %s", path)

	err = tr.repo.Add(tr.ctx, path)
	require.NoError(t, err, "failed to stage %s", path)

	id, err := tr.repo.Commit(tr.ctx, message, testSignature(), CommitOpts{})
	require.NoError(t, err, "failed to commit %s", path)

	return id
}

// createTestBranch creates a branch in the test repository
func (tr *testRepo) createTestBranch(t *testing.T, branchName string) {
	t.Helper()

	head, err := tr.repo.repo.Head()
	require.NoError(t, err, "failed to get HEAD")

	branchRef := plumbing.NewBranchReferenceName(branchName)
	newRef := plumbing.NewHashReference(branchRef, head.Hash())
	err = tr.repo.repo.Storer.SetReference(newRef)
	require.NoError(t, err, "failed to create branch reference")
}

// createRemoteBranch creates a mock remote branch reference
func (tr *testRepo) createRemoteBranch(t *testing.T, remoteName, branchName string) {
	t.Helper()

	head, err := tr.repo.repo.Head()
	require.NoError(t, err, "failed to get HEAD")

	remoteBranchRef := plumbing.NewRemoteReferenceName(remoteName, branchName)
	remoteRef := plumbing.NewHashReference(remoteBranchRef, head.Hash())
	err = tr.repo.repo.Storer.SetReference(remoteRef)
	require.NoError(t, err, "failed to create remote branch reference")
}

// modifyTestFile modifies the test.txt file with new content
func (tr *testRepo) modifyTestFile(t *testing.T, content string) {
	t.Helper()

	err := tr.fs.WriteFile("test.txt", []byte(content), 0o666)
	require.NoError(t, err, "failed to modify test file")
}

// getCurrentBranch gets the current branch name
func (tr *testRepo) getCurrentBranch(t *testing.T) string {
	t.Helper()

	branch, err := tr.repo.CurrentBranch(tr.ctx)
	require.NoError(t, err, "failed to get current branch")

	return branch
}

// verifyBranchExists checks that a branch exists
func (tr *testRepo) verifyBranchExists(t *testing.T, branchName string) {
	t.Helper()

	branchRef, err := tr.repo.repo.Reference(plumbing.NewBranchReferenceName(branchName), true)
	require.NoError(t, err, "branch should exist: %s", branchName)
	require.NotNil(t, branchRef, "branch reference should not be nil")
}

// verifyBranchNotExists checks that a branch does not exist
func (tr *testRepo) verifyBranchNotExists(t *testing.T, branchName string) {
	t.Helper()

	_, err := tr.repo.repo.Reference(plumbing.NewBranchReferenceName(branchName), true)
	require.Error(t, err, "branch should not exist: %s", branchName)
}
