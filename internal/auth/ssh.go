package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// DefaultSSHUser is the username git hosting services expect over SSH.
const DefaultSSHUser = "git"

// SSH authenticates ssh remotes with a private key file, in-memory key
// material, or the running SSH agent.
type SSH struct {
	// KeyPath is the private key file to load. Used when Agent is false
	// and Key is empty.
	KeyPath string

	// Key is PEM-encoded private key material, used when KeyPath is
	// empty.
	Key []byte

	// Passphrase decrypts an encrypted private key.
	Passphrase string

	// User is the SSH username. Empty defaults to DefaultSSHUser.
	User string

	// Agent authenticates through the running SSH agent instead of key
	// material.
	Agent bool

	// HostKeyCallback overrides host key verification. Nil keeps the
	// engine's default behavior.
	HostKeyCallback gossh.HostKeyCallback

	// AllowedHosts restricts the provider to matching hosts. Empty allows
	// every host.
	AllowedHosts []string
}

// NewSSHKeyFile creates a provider loading the private key at keyPath.
func NewSSHKeyFile(user, keyPath, passphrase string) *SSH {
	return &SSH{User: user, KeyPath: keyPath, Passphrase: passphrase}
}

// NewSSHKeyBytes creates a provider from in-memory private key material.
func NewSSHKeyBytes(user string, key []byte, passphrase string) *SSH {
	return &SSH{User: user, Key: key, Passphrase: passphrase}
}

// NewSSHAgent creates a provider backed by the running SSH agent.
func NewSSHAgent(user string) *SSH {
	return &SSH{User: user, Agent: true}
}

// WithAllowedHosts restricts the provider to the given host patterns.
func (p *SSH) WithAllowedHosts(hosts ...string) *SSH {
	p.AllowedHosts = hosts
	return p
}

// Method implements Provider. Non-SSH URLs and hosts outside the
// restriction are declined with a nil method.
//
//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *SSH) Method(remoteURL string) (transport.AuthMethod, error) {
	ep, err := SplitRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}
	if !IsSSHScheme(ep.Scheme) {
		return nil, nil
	}
	if len(p.AllowedHosts) > 0 && ep.Host != "" && !hostAllowed(ep.Host, p.AllowedHosts) {
		return nil, nil
	}

	switch {
	case p.Agent:
		return p.agentAuth()
	case p.KeyPath != "":
		return p.fileAuth()
	case len(p.Key) > 0:
		return p.bytesAuth()
	default:
		return nil, errors.New("no SSH credentials configured")
	}
}

// user returns the configured username, defaulting for zero values.
func (p *SSH) user() string {
	if p.User == "" {
		return DefaultSSHUser
	}
	return p.User
}

//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *SSH) agentAuth() (transport.AuthMethod, error) {
	method, err := ssh.NewSSHAgentAuth(p.user())
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH agent auth: %w", err)
	}
	if p.HostKeyCallback != nil {
		method.HostKeyCallback = p.HostKeyCallback
	}
	return method, nil
}

//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *SSH) fileAuth() (transport.AuthMethod, error) {
	if _, err := os.Stat(p.KeyPath); err != nil {
		return nil, fmt.Errorf("ssh private key unavailable at %s: %w", p.KeyPath, err)
	}
	keys, err := ssh.NewPublicKeysFromFile(p.user(), p.KeyPath, p.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load ssh key from file: %w", err)
	}
	if p.HostKeyCallback != nil {
		keys.HostKeyCallback = p.HostKeyCallback
	}
	return keys, nil
}

//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (p *SSH) bytesAuth() (transport.AuthMethod, error) {
	keys, err := ssh.NewPublicKeys(p.user(), p.Key, p.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load ssh key from bytes: %w", err)
	}
	if p.HostKeyCallback != nil {
		keys.HostKeyCallback = p.HostKeyCallback
	}
	return keys, nil
}
