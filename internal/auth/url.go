package auth

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint is the decomposed form of a remote URL that credential
// resolution keys on.
type Endpoint struct {
	// Scheme is the transport scheme ("https", "ssh", "git", "file").
	// Empty for a bare local path.
	Scheme string

	// Host is the hostname without port.
	Host string

	// User is the user-info username when the URL carries one.
	User string
}

// SplitRemoteURL decomposes a remote URL, including the scp-style
// user@host:path shorthand, which has no scheme prefix and does not
// survive net/url parsing.
func SplitRemoteURL(remoteURL string) (Endpoint, error) {
	if isSCPStyle(remoteURL) {
		user, rest, _ := strings.Cut(remoteURL, "@")
		host, _, ok := strings.Cut(rest, ":")
		if !ok || host == "" {
			return Endpoint{}, fmt.Errorf("invalid SSH URL: %s", remoteURL)
		}
		return Endpoint{Scheme: "ssh", Host: host, User: user}, nil
	}

	if !strings.Contains(remoteURL, "://") {
		// Bare local path.
		return Endpoint{}, nil
	}

	parsed, err := url.Parse(remoteURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid URL: %w", err)
	}

	ep := Endpoint{Scheme: parsed.Scheme, Host: parsed.Hostname()}
	if parsed.User != nil {
		ep.User = parsed.User.Username()
	}
	return ep, nil
}

// isSCPStyle reports whether the URL is user@host:path shorthand.
func isSCPStyle(remoteURL string) bool {
	if strings.Contains(remoteURL, "://") {
		return false
	}
	at := strings.Index(remoteURL, "@")
	colon := strings.Index(remoteURL, ":")
	return at > 0 && colon > at
}

// IsHTTPScheme reports whether the scheme rides HTTP transport.
func IsHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// IsSSHScheme reports whether the scheme rides SSH transport.
func IsSSHScheme(scheme string) bool {
	return scheme == "ssh" || scheme == "git" || scheme == "git+ssh"
}

// hostAllowed reports whether host matches any of the patterns.
func hostAllowed(host string, patterns []string) bool {
	for _, pattern := range patterns {
		if hostMatches(host, pattern) {
			return true
		}
	}
	return false
}

// hostMatches supports literal hosts and patterns carrying one "*".
// A "*.suffix" pattern matches the suffix itself and its subdomains on a
// dot boundary; "prefix.*" matches any domain directly under the prefix.
func hostMatches(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if strings.Count(pattern, "*") != 1 {
		return false
	}
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(host, prefix+".")
	}
	return false
}
