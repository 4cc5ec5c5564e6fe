// Package guard provides scope-bound release tracking for engine resources
// acquired during a single repository operation.
package guard

import "io"

// Guard collects release functions for resources acquired during one
// operation and runs them in last-acquired-first-released order when the
// operation exits. A Guard is not safe for concurrent use; it is meant to
// live on a single call path:
//
//	g := guard.New()
//	defer g.Release()
//
// Registering a release for every successful acquisition, and nothing for a
// failed one, keeps acquire and release counts equal on every exit path.
type Guard struct {
	releases []func()
	released bool
}

// New returns an empty Guard.
func New() *Guard {
	return &Guard{}
}

// Add registers a release function for a successfully acquired resource.
// A nil release is a no-op, so failed or optional acquisitions can be passed
// through without a nil check at the call site. Adding to an already
// released Guard runs the release immediately rather than leaking it.
func (g *Guard) Add(release func()) {
	if release == nil {
		return
	}
	if g.released {
		release()
		return
	}
	g.releases = append(g.releases, release)
}

// AddCloser registers an io.Closer to be closed on Release. The close error
// is discarded; resources registered here are read-side handles whose close
// failures carry no recovery path. A nil closer is a no-op.
func (g *Guard) AddCloser(c io.Closer) {
	if c == nil {
		return
	}
	g.Add(func() { _ = c.Close() })
}

// Release runs every registered release in reverse registration order.
// Calling Release more than once is safe; releases run exactly once.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true

	for i := len(g.releases) - 1; i >= 0; i-- {
		g.releases[i]()
	}
	g.releases = nil
}

// Len reports the number of pending releases.
func (g *Guard) Len() int {
	return len(g.releases)
}
