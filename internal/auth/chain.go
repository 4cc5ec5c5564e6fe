package auth

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Rule binds a provider to the URL patterns it serves.
type Rule struct {
	// Provider builds the credential when a pattern matches.
	Provider Provider

	// URLPatterns restrict the rule, as in "https://*.github.com" or
	// "ssh://gitlab.*". Empty means the rule applies to every URL.
	URLPatterns []string
}

// Chain tries providers in order and returns the first credential. A
// provider that declines (nil method) or fails falls through to the next
// rule; the last error surfaces only when no rule produced a credential.
type Chain struct {
	// Rules is the ordered list of providers to try.
	Rules []Rule

	// StopOnError aborts on the first provider error instead of falling
	// through.
	StopOnError bool
}

// NewChain creates an empty provider chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends a provider, optionally restricted to URL patterns.
func (c *Chain) Add(provider Provider, urlPatterns ...string) *Chain {
	c.Rules = append(c.Rules, Rule{Provider: provider, URLPatterns: urlPatterns})
	return c
}

// Method implements Provider over the whole chain.
//
//nolint:ireturn // the engine consumes the transport.AuthMethod interface
func (c *Chain) Method(remoteURL string) (transport.AuthMethod, error) {
	if len(c.Rules) == 0 {
		return nil, errors.New("no authentication providers configured")
	}

	ep, err := SplitRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i, rule := range c.Rules {
		if !ruleApplies(ep, rule.URLPatterns) {
			continue
		}

		method, methodErr := rule.Provider.Method(remoteURL)
		if methodErr != nil {
			lastErr = fmt.Errorf("provider %d failed: %w", i, methodErr)
			if c.StopOnError {
				return nil, lastErr
			}
			continue
		}
		if method != nil {
			return method, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// ruleApplies checks the endpoint against a rule's patterns.
func ruleApplies(ep Endpoint, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matchesURLPattern(ep, pattern) {
			return true
		}
	}
	return false
}

// matchesURLPattern matches an endpoint against a scheme://hostpattern
// form. A pattern without a scheme matches on host alone.
func matchesURLPattern(ep Endpoint, pattern string) bool {
	parsed, err := url.Parse(pattern)
	if err != nil || parsed.Host == "" && parsed.Scheme == "" {
		// Not URL-shaped; treat the whole pattern as a host pattern.
		return hostMatches(ep.Host, pattern)
	}

	if parsed.Scheme != "" && parsed.Scheme != ep.Scheme {
		return false
	}
	if parsed.Host != "" && !hostMatches(ep.Host, parsed.Host) {
		return false
	}
	return true
}
