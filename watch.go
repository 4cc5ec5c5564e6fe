package gitkit

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit/internal/debounce"
	"github.com/input-output-hk/catalyst-forge-libs/gitkit/internal/fsbridge"
	"github.com/input-output-hk/catalyst-forge-libs/gitkit/internal/guard"
)

// DefaultWatchDebounce is the quiet period applied to filesystem event
// bursts before a change notification is delivered.
const DefaultWatchDebounce = 350 * time.Millisecond

// WatchOpts configures repository watching.
type WatchOpts struct {
	// Debounce is the trailing-edge quiet period for coalescing event
	// bursts. Zero uses DefaultWatchDebounce.
	Debounce time.Duration
}

// WatchEvent is one coalesced change notification.
type WatchEvent struct {
	// At is when the quiet period after the burst elapsed.
	At time.Time
}

// Watcher delivers repository change notifications until closed. Events
// are coalesced: one notification per burst, after the debounce period.
// Receive with select; after Close both channels are closed.
type Watcher struct {
	events chan WatchEvent
	errs   chan error

	fsw      *fsnotify.Watcher
	deb      *debounce.Debouncer
	releases *guard.Guard

	mu       sync.Mutex
	closed   bool
	loopDone chan struct{}

	logger *slog.Logger
}

// Watch observes the repository's git directory through the OS and
// reports changes on the returned watcher's Events channel. The
// filesystem must be OS-backed; in-memory repositories fail with an
// operation error. Cancelling ctx closes the watcher.
//
// A running git writes transient .lock files constantly; events for
// those are dropped before debouncing.
func (r *Repo) Watch(ctx context.Context, opts WatchOpts) (*Watcher, error) {
	root, ok := fsbridge.OSRoot(r.fs)
	if !ok {
		return nil, fail(KindOperationFailed,
			errors.New("watch requires an OS-backed filesystem"), errCtx{})
	}

	target := filepath.Join(root, r.options.Workdir)
	if !r.options.Bare {
		target = filepath.Join(target, git.GitDirName)
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return nil, fail(KindRepositoryNotFound, errors.New("git directory not found on disk"),
			errCtx{path: target})
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, WrapError(err, "failed to create filesystem watcher")
	}
	if err := fsw.Add(target); err != nil {
		closeErr := fsw.Close()
		return nil, WrapErrorf(errors.Join(err, closeErr), "failed to watch %q", target)
	}

	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultWatchDebounce
	}

	w := &Watcher{
		events:   make(chan WatchEvent, 1),
		errs:     make(chan error, 1),
		fsw:      fsw,
		releases: guard.New(),
		loopDone: make(chan struct{}),
		logger:   r.logger,
	}
	w.deb = debounce.New(delay, w.emit)
	w.releases.Add(w.deb.Stop)
	w.releases.AddCloser(fsw)

	go w.loop()
	go func() {
		select {
		case <-ctx.Done():
			_ = w.Close()
		case <-w.loopDone:
		}
	}()

	r.logger.DebugContext(ctx, "watch started", "path", target, "debounce", delay)

	return w, nil
}

// Events returns the change notification channel.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Errors returns the channel carrying watcher-level failures. The
// watcher keeps running after an error.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops watching and closes both channels. Safe to call more than
// once and from any goroutine.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	// Stops the debouncer and closes the fsnotify watcher, which ends the
	// loop by closing its channels.
	w.releases.Release()

	<-w.loopDone
	close(w.events)
	close(w.errs)
	return nil
}

// loop pumps fsnotify events into the debouncer until the underlying
// watcher closes.
func (w *Watcher) loop() {
	defer close(w.loopDone)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ignoreWatchPath(ev.Name) {
				continue
			}
			w.logger.Debug("repository change observed",
				"op", ev.Op.String(), "path", ev.Name)
			w.deb.Trigger()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// emit delivers one coalesced notification. A full channel drops the
// event; the pending one already says "something changed".
func (w *Watcher) emit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.events <- WatchEvent{At: time.Now()}:
	default:
	}
}

// sendError forwards a watcher failure without blocking the loop.
func (w *Watcher) sendError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.errs <- err:
	default:
	}
}

// ignoreWatchPath filters transient paths that do not represent
// repository state changes.
func ignoreWatchPath(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".lock"
}
