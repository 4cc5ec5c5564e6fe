// Package gitkit provides typed, safe Git repository operations over go-git.
// It exposes task-oriented operations for repository management while
// operating exclusively through the project's native filesystem abstraction.
package gitkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gobilly "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit/internal/fsbridge"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultWorkdir is the default worktree directory name.
	DefaultWorkdir = "."

	// DefaultRemoteName is the default remote name used for operations.
	DefaultRemoteName = "origin"
)

// ProgressFunc receives human-readable progress messages during network
// transfers. It is invoked synchronously on the goroutine running the
// transfer and must not block or call back into the repository.
type ProgressFunc func(message string)

// progressWriter adapts a ProgressFunc onto the engine's progress sink.
type progressWriter struct {
	fn ProgressFunc
}

func (w progressWriter) Write(p []byte) (int, error) {
	w.fn(string(p))
	return len(p), nil
}

// Options configures repository discovery/creation and performance.
type Options struct {
	// FS is the REQUIRED native filesystem root (OS or in-memory).
	// All repository state lives within this filesystem.
	FS fs.Filesystem

	// Workdir is the path within FS for the worktree root.
	// Defaults to "." (current directory in FS).
	Workdir string

	// Bare indicates if this should be a bare repository (.git only, no worktree).
	// Defaults to false (non-bare repository with worktree).
	Bare bool

	// StorerCacheSize sets the LRU objects cache entries.
	// Higher values improve performance but use more memory.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// Auth is an optional provider that resolves per-URL AuthMethod.
	// If nil, no authentication will be available.
	Auth AuthProvider

	// Logger receives structured operation logs. If nil, logging is
	// disabled. The logger is scoped to this repository; there is no
	// process-wide verbosity state.
	Logger *slog.Logger

	// Progress, when set, receives transfer progress messages during clone,
	// fetch, pull and push. See ProgressFunc for the blocking contract.
	Progress ProgressFunc

	// HTTPClient is an optional custom transport for network operations.
	// If nil, a default client with reasonable timeouts is used.
	HTTPClient *http.Client

	// ShallowDepth sets the depth for shallow clone/fetch operations.
	// If > 0, operations will be shallow with the specified depth.
	// If 0, full clone/fetch operations are performed.
	ShallowDepth int
}

// Validate checks that the Options are properly configured.
// It returns an error if required fields are missing or invalid.
func (o *Options) Validate() error {
	if o.FS == nil {
		return fmt.Errorf("invalid options: FS is required")
	}

	if o.StorerCacheSize < 0 {
		return fmt.Errorf("invalid options: StorerCacheSize cannot be negative")
	}

	if o.ShallowDepth < 0 {
		return fmt.Errorf("invalid options: ShallowDepth cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
}

// openStorage prepares the engine storage and worktree filesystem for the
// configured workdir. Bare repositories store objects at the workdir root;
// non-bare repositories store them under .git with the workdir as worktree.
func openStorage(opts *Options) (*filesystem.Storage, gobilly.Filesystem, error) {
	billyFS, err := fsbridge.ToBillyFilesystem(opts.FS)
	if err != nil {
		return nil, nil, fmt.Errorf("filesystem conversion failed: %w", err)
	}

	scopedFS, err := billyFS.Chroot(opts.Workdir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chroot to workdir %q: %w", opts.Workdir, err)
	}

	if opts.Bare {
		return fsbridge.NewStorage(scopedFS, opts.StorerCacheSize), nil, nil
	}

	dotGitFS, err := scopedFS.Chroot(git.GitDirName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access .git directory: %w", err)
	}
	return fsbridge.NewStorage(dotGitFS, opts.StorerCacheSize), scopedFS, nil
}

// newRepo wraps an opened engine repository, attaching the worktree for
// non-bare repositories.
func newRepo(repo *git.Repository, opts *Options) (*Repo, error) {
	r := &Repo{
		repo:    repo,
		fs:      opts.FS,
		options: *opts,
		logger:  opts.Logger,
	}

	if !opts.Bare {
		worktree, err := repo.Worktree()
		if err != nil {
			return nil, fail(KindInvalidRepository, err, errCtx{})
		}
		r.worktree = worktree
	}

	return r, nil
}

// Init creates a new git repository at the specified location.
// It initializes both bare and non-bare repositories with proper storage and
// worktree setup.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	opts.applyDefaults()

	storage, worktreeFS, err := openStorage(opts)
	if err != nil {
		return nil, err
	}

	repo, err := git.Init(storage, worktreeFS)
	if err != nil {
		return nil, translate(err, errCtx{path: opts.Workdir})
	}

	opts.Logger.DebugContext(ctx, "repository initialized",
		"workdir", opts.Workdir, "bare", opts.Bare)

	return newRepo(repo, opts)
}

// Open discovers and opens an existing git repository.
// The repository must already exist at the specified workdir within the
// filesystem. For non-bare repositories, both .git directory and worktree
// must be present. For bare repositories, only the storage layout is
// expected.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	opts.applyDefaults()

	storage, worktreeFS, err := openStorage(opts)
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(storage, worktreeFS)
	if err != nil {
		return nil, translate(err, errCtx{
			fallback: KindRepositoryNotFound,
			path:     opts.Workdir,
		})
	}

	opts.Logger.DebugContext(ctx, "repository opened",
		"workdir", opts.Workdir, "bare", opts.Bare)

	return newRepo(repo, opts)
}

// Clone creates a new repository by cloning from a remote URL.
// It supports both bare and non-bare repositories, shallow cloning, and
// authentication.
//
// The remoteURL should be a valid git URL (https://, ssh://, or file:// for
// local repos). For shallow clones, set ShallowDepth > 0 to limit the clone
// depth. Authentication is resolved through the Options.Auth provider when
// the transport requires it.
//
// Context timeout/cancellation is honored during the clone operation.
func Clone(ctx context.Context, remoteURL string, opts *Options) (*Repo, error) {
	if remoteURL == "" {
		return nil, fail(KindCloneFailed, errors.New("remote URL cannot be empty"), errCtx{})
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	opts.applyDefaults()

	storage, worktreeFS, err := openStorage(opts)
	if err != nil {
		return nil, err
	}

	cloneOpts := &git.CloneOptions{
		URL:          remoteURL,
		Depth:        opts.ShallowDepth,
		SingleBranch: opts.ShallowDepth > 0, // Single branch for shallow clones
	}
	if opts.Progress != nil {
		cloneOpts.Progress = progressWriter{fn: opts.Progress}
	}

	if opts.Auth != nil {
		authMethod, authErr := opts.Auth.Method(remoteURL)
		if authErr != nil {
			return nil, translate(authErr, errCtx{
				fallback: KindAuthentication,
				target:   remoteURL,
			})
		}
		cloneOpts.Auth = authMethod
	}

	repo, err := git.CloneContext(ctx, storage, worktreeFS, cloneOpts)
	if err != nil {
		return nil, translate(err, errCtx{
			fallback: KindCloneFailed,
			target:   remoteURL,
		})
	}

	opts.Logger.DebugContext(ctx, "repository cloned",
		"workdir", opts.Workdir, "depth", opts.ShallowDepth)

	return newRepo(repo, opts)
}

// AuthProvider resolves authentication methods for git operations.
// Implementations should handle different URL schemes and credential
// sources; CredentialResolver is the stock implementation.
type AuthProvider interface {
	// Method returns the appropriate transport.AuthMethod for the given
	// remote URL. Returns nil if no authentication is needed for this URL.
	// Returns ErrNoCredential (possibly wrapped) when no credential could be
	// resolved.
	Method(remoteURL string) (transport.AuthMethod, error)
}

// Signature represents an author/committer signature for commits and tags.
// This is used when creating commits and annotated tags to identify the
// author.
type Signature struct {
	// Name is the author's or committer's name.
	Name string

	// Email is the author's or committer's email address.
	Email string

	// When is the timestamp for the signature.
	When time.Time
}

// CommitOpts configures commit creation behavior.
type CommitOpts struct {
	// AllowEmpty allows creating commits with no changes.
	// By default, empty commits are not allowed.
	AllowEmpty bool

	// All stages modified and deleted tracked files before committing,
	// equivalent to 'git commit -a'.
	All bool

	// Amend replaces the tip of the current branch with this commit rather
	// than creating a new one.
	Amend bool
}

// Repo represents a git repository and provides high-level operations.
// It wraps an engine Repository and Worktree, operating exclusively through
// the project's native filesystem abstraction.
//
// A Repo is not safe for concurrent use: the engine's per-handle thread
// safety is not guaranteed, so callers running operations in parallel must
// either synchronize or open one Repo per goroutine. Distinct Repo values
// over the same on-disk path race only at the filesystem level, exactly as
// plain Git does.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	fs       fs.Filesystem
	options  Options
	logger   *slog.Logger
}

// workdirFS returns the caller filesystem scoped to the worktree root.
func (r *Repo) workdirFS() (gobilly.Filesystem, error) {
	billyFS, err := fsbridge.ToBillyFilesystem(r.fs)
	if err != nil {
		return nil, WrapError(err, "failed to convert filesystem")
	}

	workdirFS, err := billyFS.Chroot(r.options.Workdir)
	if err != nil {
		return nil, WrapErrorf(err, "failed to chroot to workdir %q", r.options.Workdir)
	}

	return workdirFS, nil
}
