package auth

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Basic authenticates http(s) remotes with a username/password pair.
// Forge access tokens ride the same mechanism: GitHub, GitLab and
// Bitbucket accept a token in the password slot.
type Basic struct {
	auth *http.BasicAuth

	// AllowedHosts restricts the provider to matching hosts. Empty allows
	// every host. Patterns support a single "*", as in "*.github.com" or
	// "gitlab.*".
	AllowedHosts []string
}

// NewBasic creates a username/password provider. A password with an
// empty username is treated as a token-style credential and moved to the
// username slot, which most forges accept.
func NewBasic(username, password string) *Basic {
	if username == "" && password != "" {
		username = password
		password = ""
	}
	return &Basic{auth: &http.BasicAuth{Username: username, Password: password}}
}

// NewToken creates a provider for personal access tokens. The token is
// sent as the password under a fixed placeholder username.
func NewToken(token string) *Basic {
	return &Basic{auth: &http.BasicAuth{Username: "token", Password: token}}
}

// WithAllowedHosts restricts the provider to the given host patterns.
func (p *Basic) WithAllowedHosts(hosts ...string) *Basic {
	p.AllowedHosts = hosts
	return p
}

// Username returns the account name the provider presents. It exists so
// callers can log who authenticated without reaching into the secret.
func (p *Basic) Username() string {
	return p.auth.Username
}

// Method implements Provider. URLs outside http(s) or the host
// restriction are declined with a nil method.
//
//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *Basic) Method(remoteURL string) (transport.AuthMethod, error) {
	ep, err := SplitRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}
	if !IsHTTPScheme(ep.Scheme) {
		return nil, nil
	}
	if len(p.AllowedHosts) > 0 && !hostAllowed(ep.Host, p.AllowedHosts) {
		return nil, nil
	}
	return p.auth, nil
}
