// Package credstore stores git credentials for the credential resolver.
// A Store maps host/scheme/account keys to secret material and supports
// scheme-agnostic lookup, letting one saved credential serve both the
// https and ssh form of a remote. Backends cover in-process use (Memory),
// a single developer machine (File), and shared infrastructure (Redis).
//
// Secret material is owned by the caller: stores copy on save and on
// lookup, and Material.Clear wipes a copy when it is no longer needed.
package credstore

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned when no stored credential matches a key.
var ErrNotFound = errors.New("credential not found")

// SecretKind says what a Material's secret bytes are.
type SecretKind int

const (
	// Password is a plain password paired with a username.
	Password SecretKind = iota

	// Token is a bearer or personal access token.
	Token

	// PrivateKey is PEM-encoded SSH private key material.
	PrivateKey
)

// String returns the kind's wire name.
func (k SecretKind) String() string {
	switch k {
	case Password:
		return "password"
	case Token:
		return "token"
	case PrivateKey:
		return "private-key"
	default:
		return "unknown"
	}
}

// Key addresses one stored credential. Host is required. On lookup an
// empty Scheme or Account acts as a wildcard; on save both are stored
// verbatim.
type Key struct {
	// Host is the remote host, without port ("github.com").
	Host string

	// Scheme is the transport the credential serves ("https", "ssh").
	Scheme string

	// Account optionally discriminates between credentials for the same
	// host, usually the username.
	Account string
}

// normalize lower-cases the case-insensitive key parts.
func (k Key) normalize() Key {
	k.Host = strings.ToLower(k.Host)
	k.Scheme = strings.ToLower(k.Scheme)
	return k
}

// matches reports whether a stored key satisfies this lookup key. An
// empty Scheme or Account on the lookup side matches anything; an entry
// stored without an Account is host-wide and serves any requested
// account.
func (k Key) matches(stored Key) bool {
	if k.Host != stored.Host {
		return false
	}
	if k.Scheme != "" && k.Scheme != stored.Scheme {
		return false
	}
	if k.Account != "" && stored.Account != "" && k.Account != stored.Account {
		return false
	}
	return true
}

// Material is the secret a lookup yields.
type Material struct {
	// Username is the account name to present to the remote.
	Username string

	// Secret is the password, token, or private key bytes.
	Secret []byte

	// Kind says how Secret should be interpreted.
	Kind SecretKind
}

// Clear wipes the secret bytes and username in place. Use it on copies
// handed out by Lookup once the credential has been consumed.
func (m *Material) Clear() {
	for i := range m.Secret {
		m.Secret[i] = 0
	}
	m.Secret = nil
	m.Username = ""
}

// clone deep-copies the material so stored bytes never alias caller
// memory.
func (m Material) clone() Material {
	out := Material{Username: m.Username, Kind: m.Kind}
	if m.Secret != nil {
		out.Secret = make([]byte, len(m.Secret))
		copy(out.Secret, m.Secret)
	}
	return out
}

// Store is a credential backend.
//
// Lookup resolves a key to material, honoring wildcard Scheme/Account,
// and returns ErrNotFound when nothing matches. Save upserts under a
// concrete key. Delete removes a concrete key and returns ErrNotFound
// when it was not stored.
type Store interface {
	Lookup(ctx context.Context, key Key) (Material, error)
	Save(ctx context.Context, key Key, material Material) error
	Delete(ctx context.Context, key Key) error
}

// schemeRank orders candidate schemes for wildcard lookups so results are
// deterministic: https first, then ssh, then everything else lexically.
func schemeRank(scheme string) int {
	switch scheme {
	case "https":
		return 0
	case "ssh":
		return 1
	default:
		return 2
	}
}

// pickBest selects the winning stored key among wildcard matches for a
// lookup. Exact account matches beat host-wide entries, then scheme rank,
// then lexical order for stability.
func pickBest(lookup Key, keys []Key) Key {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if lookup.Account != "" {
			ea, eb := a.Account == lookup.Account, b.Account == lookup.Account
			if ea != eb {
				return ea
			}
		}
		if ra, rb := schemeRank(a.Scheme), schemeRank(b.Scheme); ra != rb {
			return ra < rb
		}
		if a.Scheme != b.Scheme {
			return a.Scheme < b.Scheme
		}
		return a.Account < b.Account
	})
	return keys[0]
}
