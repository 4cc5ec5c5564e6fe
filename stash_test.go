package gitkit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStashSave(t *testing.T) {
	t.Run("save tracked modification", func(t *testing.T) {
		tr := setupTestRepo(t, false)
		head := tr.commitFile(t, "test.txt", "initial content", "Initial commit")
		tr.modifyTestFile(t, "dirty content")

		id, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		require.NoError(t, err)
		assert.False(t, id.IsZero())

		// The worktree is back at HEAD.
		content, err := tr.fs.ReadFile("test.txt")
		require.NoError(t, err)
		assert.Equal(t, "initial content", string(content))

		status, err := tr.repo.Status(tr.ctx)
		require.NoError(t, err)
		assert.True(t, status.Clean())

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		require.Len(t, stashes, 1)
		assert.Equal(t, 0, stashes[0].Index)
		assert.True(t, stashes[0].ID.Equal(id))
		assert.Equal(t, fmt.Sprintf("WIP on master: %s Initial commit", head.Short()), stashes[0].Message)
		assert.Equal(t, "master", stashes[0].Branch)
		assert.True(t, stashes[0].CreatedAt.Equal(testSignature().When))
	})

	t.Run("save with custom message", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.modifyTestFile(t, "dirty content")

		_, err := tr.repo.StashSave(tr.ctx, "half-done refactor", testSignature(), false)
		require.NoError(t, err)

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		require.Len(t, stashes, 1)
		assert.Equal(t, "On master: half-done refactor", stashes[0].Message)
		assert.Equal(t, "master", stashes[0].Branch)
	})

	t.Run("stack multiple entries newest first", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)

		tr.modifyTestFile(t, "one")
		_, err := tr.repo.StashSave(tr.ctx, "first", testSignature(), false)
		require.NoError(t, err)

		tr.modifyTestFile(t, "two")
		_, err = tr.repo.StashSave(tr.ctx, "second", testSignature(), false)
		require.NoError(t, err)

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		require.Len(t, stashes, 2)
		assert.Equal(t, "On master: second", stashes[0].Message)
		assert.Equal(t, "On master: first", stashes[1].Message)
	})

	t.Run("untracked files need includeUntracked", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		err := tr.fs.WriteFile("stray.txt", []byte("untracked"), 0o644)
		require.NoError(t, err)

		_, err = tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		assert.ErrorIs(t, err, ErrNothingToCommit)

		_, err = tr.repo.StashSave(tr.ctx, "", testSignature(), true)
		require.NoError(t, err)

		// The captured file is gone from the worktree until applied.
		exists, err := tr.fs.Exists("stray.txt")
		require.NoError(t, err)
		assert.False(t, exists)

		err = tr.repo.StashApply(tr.ctx, 0)
		require.NoError(t, err)

		content, err := tr.fs.ReadFile("stray.txt")
		require.NoError(t, err)
		assert.Equal(t, "untracked", string(content))
	})

	t.Run("fail on clean worktree", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)

		_, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		assert.ErrorIs(t, err, ErrNothingToCommit)
	})

	t.Run("fail without signature identity", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.modifyTestFile(t, "dirty content")

		_, err := tr.repo.StashSave(tr.ctx, "", Signature{}, false)
		assert.ErrorIs(t, err, ErrCommitFailed)
	})

	t.Run("fail on bare repository", func(t *testing.T) {
		tr := setupTestRepo(t, true)

		_, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		assert.ErrorIs(t, err, ErrNoWorktree)
	})
}

func TestStashes_Empty(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	stashes, err := tr.repo.Stashes(tr.ctx)
	require.NoError(t, err)
	assert.Empty(t, stashes)
}

func TestStashApply(t *testing.T) {
	t.Run("apply keeps the entry", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.modifyTestFile(t, "stashed change")
		_, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		require.NoError(t, err)

		err = tr.repo.StashApply(tr.ctx, 0)
		require.NoError(t, err)

		content, err := tr.fs.ReadFile("test.txt")
		require.NoError(t, err)
		assert.Equal(t, "stashed change", string(content))

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		assert.Len(t, stashes, 1)
	})

	t.Run("conflicting local change aborts untouched", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.modifyTestFile(t, "stashed change")
		_, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		require.NoError(t, err)

		tr.modifyTestFile(t, "conflicting local edit")

		err = tr.repo.StashApply(tr.ctx, 0)
		assert.ErrorIs(t, err, ErrMergeConflict)
		assert.Contains(t, err.Error(), "test.txt")

		// Neither the worktree nor the stash changed.
		content, err := tr.fs.ReadFile("test.txt")
		require.NoError(t, err)
		assert.Equal(t, "conflicting local edit", string(content))

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		assert.Len(t, stashes, 1)
	})

	t.Run("index out of range", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.modifyTestFile(t, "stashed change")
		_, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		require.NoError(t, err)

		err = tr.repo.StashApply(tr.ctx, 5)
		assert.ErrorIs(t, err, ErrOperationFailed)
		assert.Contains(t, err.Error(), "stash@{5}")
	})

	t.Run("no stash entries", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)

		err := tr.repo.StashApply(tr.ctx, 0)
		assert.ErrorIs(t, err, ErrNoStash)
	})

	t.Run("fail on bare repository", func(t *testing.T) {
		tr := setupTestRepo(t, true)

		err := tr.repo.StashApply(tr.ctx, 0)
		assert.ErrorIs(t, err, ErrNoWorktree)
	})
}

func TestStashPop(t *testing.T) {
	t.Run("pop applies and drops", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.modifyTestFile(t, "popped content")
		_, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		require.NoError(t, err)

		err = tr.repo.StashPop(tr.ctx, 0)
		require.NoError(t, err)

		content, err := tr.fs.ReadFile("test.txt")
		require.NoError(t, err)
		assert.Equal(t, "popped content", string(content))

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		assert.Empty(t, stashes)
	})

	t.Run("conflicting pop keeps the entry", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.modifyTestFile(t, "stashed change")
		_, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		require.NoError(t, err)

		tr.modifyTestFile(t, "conflicting local edit")

		err = tr.repo.StashPop(tr.ctx, 0)
		assert.ErrorIs(t, err, ErrMergeConflict)

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		assert.Len(t, stashes, 1)
	})
}

func TestStashDrop(t *testing.T) {
	saveThree := func(t *testing.T) *testRepo {
		t.Helper()
		tr := setupTestRepoWithCommit(t)
		for _, msg := range []string{"first", "second", "third"} {
			tr.modifyTestFile(t, msg)
			_, err := tr.repo.StashSave(tr.ctx, msg, testSignature(), false)
			require.NoError(t, err)
		}
		return tr
	}

	t.Run("drop newest", func(t *testing.T) {
		tr := saveThree(t)

		err := tr.repo.StashDrop(tr.ctx, 0)
		require.NoError(t, err)

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		require.Len(t, stashes, 2)
		assert.Equal(t, "On master: second", stashes[0].Message)
		assert.Equal(t, "On master: first", stashes[1].Message)
	})

	t.Run("drop middle relinks the chain", func(t *testing.T) {
		tr := saveThree(t)

		err := tr.repo.StashDrop(tr.ctx, 1)
		require.NoError(t, err)

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		require.Len(t, stashes, 2)
		assert.Equal(t, "On master: third", stashes[0].Message)
		assert.Equal(t, "On master: first", stashes[1].Message)

		// The surviving newest entry still applies cleanly.
		err = tr.repo.StashApply(tr.ctx, 0)
		require.NoError(t, err)
		content, err := tr.fs.ReadFile("test.txt")
		require.NoError(t, err)
		assert.Equal(t, "third", string(content))
	})

	t.Run("drop last removes the ref", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.modifyTestFile(t, "only entry")
		_, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		require.NoError(t, err)

		err = tr.repo.StashDrop(tr.ctx, 0)
		require.NoError(t, err)

		stashes, err := tr.repo.Stashes(tr.ctx)
		require.NoError(t, err)
		assert.Empty(t, stashes)
	})

	t.Run("index out of range", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.modifyTestFile(t, "entry")
		_, err := tr.repo.StashSave(tr.ctx, "", testSignature(), false)
		require.NoError(t, err)

		err = tr.repo.StashDrop(tr.ctx, -1)
		assert.ErrorIs(t, err, ErrOperationFailed)
	})

	t.Run("no stash entries", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)

		err := tr.repo.StashDrop(tr.ctx, 0)
		assert.ErrorIs(t, err, ErrNoStash)
	})
}
