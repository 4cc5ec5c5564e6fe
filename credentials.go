package gitkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gossh "golang.org/x/crypto/ssh"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit/credstore"
	"github.com/input-output-hk/catalyst-forge-libs/gitkit/internal/auth"
)

// sshKeyBasenames are the conventional private key names probed, in
// preference order, when no stored credential serves an SSH remote.
var sshKeyBasenames = []string{"id_ed25519", "id_rsa", "id_ecdsa", "id_dsa"}

// CredentialResolver is the stock AuthProvider. It resolves the
// credential for a remote URL by walking a fixed strategy chain:
//
//  1. Secret store lookup keyed by host, scheme and the URL's user-info
//     name, exact scheme first, then a scheme-agnostic retry.
//  2. Statically configured username/password or token, for http(s)
//     remotes.
//  3. For SSH remotes, the running agent when enabled, then conventional
//     key files under the SSH directory (id_ed25519, id_rsa, id_ecdsa,
//     id_dsa) that have a matching .pub alongside, tried with an empty
//     passphrase. Passphrase-protected keys fail that attempt and the
//     probe moves on.
//
// A failing strategy falls through to the next; an exhausted chain
// yields ErrNoCredential, which network operations surface as an
// authentication error. Local and file remotes resolve to no
// authentication at all. Log records carry the host, username and
// winning strategy, never secret material.
type CredentialResolver struct {
	// Store is the optional platform secret store consulted first.
	Store credstore.Store

	// Username and Password statically authenticate http(s) remotes when
	// the store has no material. A Password with an empty Username is
	// treated as a token-style credential.
	Username string
	Password string

	// Token statically authenticates http(s) remotes as a personal
	// access token. Considered when Username and Password are unset.
	Token string

	// SSHDir is the directory probed for conventional key files.
	// Defaults to .ssh under the user's home directory.
	SSHDir string

	// SSHUser is the username presented over SSH when neither the URL
	// nor the stored material names one. Defaults to "git".
	SSHUser string

	// UseAgent consults the running SSH agent before probing key files.
	UseAgent bool

	// HostKeyCallback overrides SSH host key verification on every
	// method this resolver builds. Nil keeps the engine's default.
	HostKeyCallback gossh.HostKeyCallback

	// Logger receives strategy decisions. Nil disables logging.
	Logger *slog.Logger
}

// Method implements AuthProvider.
//
//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *CredentialResolver) Method(remoteURL string) (transport.AuthMethod, error) {
	ep, err := auth.SplitRemoteURL(remoteURL)
	if err != nil {
		return nil, WrapError(err, "failed to parse remote URL")
	}

	// Local transports need no credential.
	if ep.Scheme == "" || ep.Scheme == "file" {
		return nil, nil
	}

	if method := p.fromStore(ep, remoteURL); method != nil {
		return method, nil
	}
	if method := p.fromStatic(ep, remoteURL); method != nil {
		return method, nil
	}
	if method := p.fromSSH(ep, remoteURL); method != nil {
		return method, nil
	}

	p.logger().Debug("credential resolution exhausted",
		"host", ep.Host, "scheme", ep.Scheme)

	return nil, fmt.Errorf("no credential for %s: %w", ep.Host, ErrNoCredential)
}

// fromStore resolves material from the secret store: exact scheme first,
// then scheme-agnostic. Store failures and unusable material degrade to
// the next strategy.
//
//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *CredentialResolver) fromStore(ep auth.Endpoint, remoteURL string) transport.AuthMethod {
	if p.Store == nil {
		return nil
	}
	ctx := context.Background()

	key := credstore.Key{Host: ep.Host, Scheme: storeScheme(ep.Scheme), Account: ep.User}
	material, err := p.Store.Lookup(ctx, key)
	if errors.Is(err, credstore.ErrNotFound) {
		key.Scheme = ""
		material, err = p.Store.Lookup(ctx, key)
	}
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			p.logger().Debug("credential store lookup failed",
				"host", ep.Host, "error", err)
		}
		return nil
	}

	method := p.methodFromMaterial(ep, material, remoteURL)
	if method == nil {
		material.Clear()
		return nil
	}
	p.logResolved(ep, "store", material.Username)
	material.Clear()
	return method
}

// methodFromMaterial builds a transport method from stored material, or
// nil when the material cannot serve the URL's transport.
//
//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *CredentialResolver) methodFromMaterial(
	ep auth.Endpoint,
	material credstore.Material,
	remoteURL string,
) transport.AuthMethod {
	switch {
	case auth.IsHTTPScheme(ep.Scheme):
		if material.Kind == credstore.PrivateKey {
			return nil
		}
		var provider *auth.Basic
		if material.Kind == credstore.Token && material.Username == "" {
			provider = auth.NewToken(string(material.Secret))
		} else {
			provider = auth.NewBasic(material.Username, string(material.Secret))
		}
		method, err := provider.Method(remoteURL)
		if err != nil {
			return nil
		}
		return method

	case auth.IsSSHScheme(ep.Scheme):
		if material.Kind != credstore.PrivateKey {
			return nil
		}
		user := ep.User
		if user == "" {
			user = material.Username
		}
		if user == "" {
			user = p.sshUser()
		}
		provider := auth.NewSSHKeyBytes(user, material.Secret, "")
		provider.HostKeyCallback = p.HostKeyCallback
		method, err := provider.Method(remoteURL)
		if err != nil {
			return nil
		}
		return method

	default:
		return nil
	}
}

// fromStatic serves http(s) remotes from the resolver's configured
// username/password or token.
//
//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *CredentialResolver) fromStatic(ep auth.Endpoint, remoteURL string) transport.AuthMethod {
	if !auth.IsHTTPScheme(ep.Scheme) {
		return nil
	}

	var provider *auth.Basic
	switch {
	case p.Username != "" || p.Password != "":
		provider = auth.NewBasic(p.Username, p.Password)
	case p.Token != "":
		provider = auth.NewToken(p.Token)
	default:
		return nil
	}

	method, err := provider.Method(remoteURL)
	if err != nil || method == nil {
		return nil
	}
	p.logResolved(ep, "static", provider.Username())
	return method
}

// fromSSH serves SSH remotes from the agent and the conventional key
// files. A key that fails to load, usually because it is encrypted,
// falls through to the next candidate.
//
//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *CredentialResolver) fromSSH(ep auth.Endpoint, remoteURL string) transport.AuthMethod {
	if !auth.IsSSHScheme(ep.Scheme) {
		return nil
	}

	user := ep.User
	if user == "" {
		user = p.sshUser()
	}

	if p.UseAgent {
		agent := auth.NewSSHAgent(user)
		agent.HostKeyCallback = p.HostKeyCallback
		if method, err := agent.Method(remoteURL); err == nil && method != nil {
			p.logResolved(ep, "ssh-agent", user)
			return method
		}
	}

	for _, base := range sshKeyBasenames {
		keyPath := filepath.Join(p.sshDir(), base)
		if !usableKeyPair(keyPath) {
			continue
		}

		provider := auth.NewSSHKeyFile(user, keyPath, "")
		provider.HostKeyCallback = p.HostKeyCallback
		method, err := provider.Method(remoteURL)
		if err != nil {
			p.logger().Debug("ssh key unusable",
				"host", ep.Host, "key", base, "error", err)
			continue
		}
		if method == nil {
			continue
		}
		p.logResolved(ep, "ssh-key", user, "key", base)
		return method
	}

	return nil
}

// sshDir returns the configured SSH directory or its default.
func (p *CredentialResolver) sshDir() string {
	if p.SSHDir != "" {
		return p.SSHDir
	}
	return filepath.Join(xdg.Home, ".ssh")
}

// sshUser returns the configured SSH username or its default.
func (p *CredentialResolver) sshUser() string {
	if p.SSHUser != "" {
		return p.SSHUser
	}
	return auth.DefaultSSHUser
}

// logger returns the configured logger or a discarding one.
func (p *CredentialResolver) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// logResolved records a winning strategy. Secret material never appears
// in log records.
func (p *CredentialResolver) logResolved(ep auth.Endpoint, strategy, username string, extra ...any) {
	args := append([]any{
		"host", ep.Host,
		"scheme", ep.Scheme,
		"strategy", strategy,
		"username", username,
	}, extra...)
	p.logger().Debug("credential resolved", args...)
}

// storeScheme canonicalizes transport schemes to the two the store keys
// on.
func storeScheme(scheme string) string {
	switch {
	case auth.IsHTTPScheme(scheme):
		return "https"
	case auth.IsSSHScheme(scheme):
		return "ssh"
	default:
		return scheme
	}
}

// usableKeyPair requires the private key and its .pub sibling, matching
// how git itself decides which default keys to offer.
func usableKeyPair(keyPath string) bool {
	if _, err := os.Stat(keyPath); err != nil {
		return false
	}
	if _, err := os.Stat(keyPath + ".pub"); err != nil {
		return false
	}
	return true
}
