// Package gitkit provides a high-level, typed Go wrapper for git operations.
//
// This package offers a clean facade over go-git, exposing task-oriented operations
// for common git workflows while enforcing the use of the project's native filesystem
// abstraction. All operations work with both on-disk and in-memory repositories.
//
// # Design Principles
//
// The package follows these core principles:
//   - Minimal surface area - easy to learn and extend
//   - Testability by construction - in-memory FS, controlled side effects
//   - Security & performance - context timeouts, credential resolution, object caching
//   - Go idioms - accepts interfaces, returns concrete types
//
// # Basic Usage
//
// Initialize or open a repository:
//
//	import (
//	    "context"
//	    billyfs "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
//	    "github.com/input-output-hk/catalyst-forge-libs/gitkit"
//	)
//
//	// Create filesystem (can be OS-backed or in-memory)
//	fs := billyfs.NewOSFS("/path/to/repo")
//
//	// Open existing repository
//	repo, err := gitkit.Open(context.Background(), &gitkit.Options{
//	    FS: fs,
//	    Workdir: ".",
//	})
//
//	// Or initialize new repository
//	repo, err := gitkit.Init(context.Background(), &gitkit.Options{
//	    FS: fs,
//	    Workdir: ".",
//	})
//
// # Working with Branches
//
// Create and switch branches:
//
//	// Create new branch from current HEAD
//	err = repo.CreateBranch(ctx, "feature/new", "HEAD", false, false)
//
//	// Checkout the branch
//	err = repo.CheckoutBranch(ctx, "feature/new", false, false)
//
//	// Get current branch
//	branch, err := repo.CurrentBranch(ctx)
//
// # Making Commits
//
// Stage files and create commits:
//
//	// Stage files
//	err = repo.Add(ctx, "file1.go", "file2.go")
//
//	// Or stage everything
//	err = repo.Add(ctx, ".")
//
//	// Create commit
//	id, err := repo.Commit(ctx, "feat: add new feature", gitkit.Signature{
//	    Name:  "John Doe",
//	    Email: "john@example.com",
//	}, gitkit.CommitOpts{})
//
// # Synchronization
//
// Fetch, pull, and push changes:
//
//	// Fetch from remote
//	err = repo.Fetch(ctx, "origin", true, 0)
//
//	// Pull with fast-forward only
//	err = repo.PullFFOnly(ctx, "origin")
//
//	// Push current branch
//	err = repo.Push(ctx, "origin", false)
//
// # Working with Tags
//
// Create and manage tags:
//
//	// Create annotated tag
//	err = repo.CreateTag(ctx, "v1.0.0", "HEAD", "Release v1.0.0", true, tagger)
//
//	// List tags matching pattern
//	tags, err := repo.Tags(ctx, gitkit.TagPatternFilter("v*"))
//
//	// Delete tag
//	err = repo.DeleteTag(ctx, "v1.0.0")
//
// # History and Diffs
//
// Query commit history and compute diffs:
//
//	// Materialize commit records with filters
//	commits, err := repo.Commits(ctx, gitkit.LogFilter{
//	    Author:   "John",
//	    MaxCount: 10,
//	})
//
//	// Or stream commits without materializing the history
//	iter, err := repo.Log(ctx, gitkit.LogFilter{})
//	defer iter.Close()
//	err = iter.ForEach(func(c *object.Commit) error {
//	    fmt.Printf("%s: %s\n", c.Hash, c.Message)
//	    return nil
//	})
//
//	// Compute diff between revisions
//	diff, err := repo.Diff(ctx, "HEAD~1", "HEAD", gitkit.ExtensionFilter(".go"))
//	fmt.Println(diff.Text)
//
// # Stashing
//
// Shelve and restore dirty worktree state:
//
//	id, err := repo.StashSave(ctx, "wip", who, false)
//	stashes, err := repo.Stashes(ctx)
//	err = repo.StashPop(ctx, 0)
//
// # Authentication
//
// Network operations resolve credentials through the AuthProvider
// interface. CredentialResolver is the standard implementation: it
// consults a credstore.Store (memory, file, or Redis backed), falls back
// to static basic or token credentials, and finally probes the SSH agent
// and conventional key files. Custom providers are one method:
//
//	type tokenAuth struct{ token string }
//
//	func (a *tokenAuth) Method(remoteURL string) (transport.AuthMethod, error) {
//	    return &http.BasicAuth{Username: "token", Password: a.token}, nil
//	}
//
//	// Use in options
//	opts := &gitkit.Options{
//	    FS:   fs,
//	    Auth: &gitkit.CredentialResolver{Store: credstore.NewFile("")},
//	}
//
// # Watching and Archiving
//
// Repositories on an OS-backed filesystem can be watched for changes;
// any revision can be exported as a compressed tarball:
//
//	w, err := repo.Watch(ctx, gitkit.WatchOpts{})
//	defer w.Close()
//	for range w.Events() {
//	    // refresh views
//	}
//
//	err = repo.Archive(ctx, "v1.0.0", file, gitkit.ArchiveOpts{
//	    Format: gitkit.ArchiveTarGz,
//	    Prefix: "project-1.0.0/",
//	})
//
// # In-Memory Operations
//
// All operations except Watch can run entirely in memory for testing:
//
//	// Create in-memory filesystem
//	memFS := billyfs.NewInMemoryFS()
//
//	// Initialize in-memory repository
//	repo, err := gitkit.Init(ctx, &gitkit.Options{
//	    FS:      memFS,
//	    Workdir: "/",
//	})
//
//	// All operations work the same
//	err = memFS.WriteFile("test.txt", []byte("content"), 0644)
//	err = repo.Add(ctx, "test.txt")
//	id, err := repo.Commit(ctx, "test commit", sig, gitkit.CommitOpts{})
//
// # Error Handling
//
// Every classified failure is an *Error carrying one Kind from a closed
// taxonomy; sentinel values support errors.Is matching:
//
//	err := repo.Push(ctx, "origin", false)
//	if errors.Is(err, gitkit.ErrNotFastForward) {
//	    // Handle non-fast-forward push
//	}
//	if errors.Is(err, gitkit.ErrAuthentication) {
//	    // Handle failed or missing authentication
//	}
//
// # Context Support
//
// All operations accept a context for timeout and cancellation:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	repo, err := gitkit.Clone(ctx, "https://github.com/example/repo.git", opts)
//	if err != nil {
//	    // Operation was cancelled or timed out
//	}
//
// # Thread Safety
//
// A Repo instance is NOT safe for concurrent writes. Read operations
// (Log, Diff, Refs, CurrentBranch, etc.) can be called concurrently.
// Write operations (Add, Commit, Push, etc.) must be serialized.
//
// # Performance Considerations
//
// The package includes several performance optimizations:
//   - LRU object cache (configurable via StorerCacheSize)
//   - Shallow clone/fetch support (via ShallowDepth option)
//   - Path filtering for diffs to reduce computation
//   - Efficient ref iteration without loading full objects
//
// # Limitations
//
// This package intentionally does not support:
//   - Interactive operations (rebase -i, add -i)
//   - Complex merge conflict resolution
//   - Submodule management (may be added later)
//   - Direct git CLI invocation
//
// For advanced use cases not covered by this facade, the underlying
// go-git repository object can be accessed if needed (though this is
// discouraged for maintainability).
package gitkit
