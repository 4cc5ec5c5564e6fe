// Package auth builds engine transport credentials for remote URLs.
// Providers wrap go-git's auth methods and add scheme and host gating,
// so they can be composed into chains: a provider declines URLs outside
// its reach with a nil method instead of an error.
package auth

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Provider builds the transport credential for a remote URL.
type Provider interface {
	// Method returns the transport.AuthMethod for the given remote URL.
	// A nil method with a nil error means the provider declines the URL;
	// an error means the provider matched but could not build the
	// credential.
	Method(remoteURL string) (transport.AuthMethod, error)
}
