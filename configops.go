// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains repository configuration operations keyed by dotted
// names such as "user.name" or "branch.main.remote".
package gitkit

import (
	"context"
	"errors"
	"strings"

	gitconfig "github.com/go-git/go-git/v5/config"
)

// ConfigValue reads a repository configuration value by dotted key.
// Keys use "section.name" or "section.subsection.name" form; subsections
// may themselves contain dots. A missing key fails with the key echoed in
// the error.
func (r *Repo) ConfigValue(ctx context.Context, key string) (string, error) {
	section, subsection, name, err := parseConfigKey(key)
	if err != nil {
		return "", err
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return "", translate(err, errCtx{key: key})
	}

	sec := cfg.Raw.Section(section)
	if subsection == "" {
		if !sec.HasOption(name) {
			return "", fail(KindConfigKeyNotFound, errors.New("config key not set"), errCtx{key: key})
		}
		return sec.Option(name), nil
	}

	if !sec.HasSubsection(subsection) {
		return "", fail(KindConfigKeyNotFound, errors.New("config key not set"), errCtx{key: key})
	}
	sub := sec.Subsection(subsection)
	if !sub.HasOption(name) {
		return "", fail(KindConfigKeyNotFound, errors.New("config key not set"), errCtx{key: key})
	}

	return sub.Option(name), nil
}

// SetConfigValue writes a repository configuration value by dotted key,
// creating the section as needed.
func (r *Repo) SetConfigValue(ctx context.Context, key, value string) error {
	section, subsection, name, err := parseConfigKey(key)
	if err != nil {
		return err
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return translate(err, errCtx{key: key})
	}

	if subsection == "" {
		cfg.Raw.Section(section).SetOption(name, value)
	} else {
		cfg.Raw.Section(section).Subsection(subsection).SetOption(name, value)
	}

	if err := r.repo.SetConfig(cfg); err != nil {
		return translate(err, errCtx{key: key})
	}

	r.logger.DebugContext(ctx, "config value set", "key", key)

	return nil
}

// UnsetConfigValue removes a repository configuration value by dotted key.
// Removing a key that is not set fails with the key echoed in the error.
func (r *Repo) UnsetConfigValue(ctx context.Context, key string) error {
	section, subsection, name, err := parseConfigKey(key)
	if err != nil {
		return err
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return translate(err, errCtx{key: key})
	}

	sec := cfg.Raw.Section(section)
	if subsection == "" {
		if !sec.HasOption(name) {
			return fail(KindConfigKeyNotFound, errors.New("config key not set"), errCtx{key: key})
		}
		sec.RemoveOption(name)
	} else {
		if !sec.HasSubsection(subsection) || !sec.Subsection(subsection).HasOption(name) {
			return fail(KindConfigKeyNotFound, errors.New("config key not set"), errCtx{key: key})
		}
		sec.Subsection(subsection).RemoveOption(name)
	}

	if err := r.repo.SetConfig(cfg); err != nil {
		return translate(err, errCtx{key: key})
	}

	return nil
}

// DefaultSignature builds a commit signature from the configured user
// identity, merging repository, global, and system scopes the way git
// does. Fails with the missing key when the identity is not configured.
func (r *Repo) DefaultSignature(ctx context.Context) (*Signature, error) {
	cfg, err := r.repo.ConfigScoped(gitconfig.SystemScope)
	if err != nil {
		return nil, translate(err, errCtx{key: "user"})
	}

	if cfg.User.Name == "" {
		return nil, fail(KindConfigKeyNotFound, errors.New("config key not set"), errCtx{key: "user.name"})
	}
	if cfg.User.Email == "" {
		return nil, fail(KindConfigKeyNotFound, errors.New("config key not set"), errCtx{key: "user.email"})
	}

	return &Signature{Name: cfg.User.Name, Email: cfg.User.Email}, nil
}

// parseConfigKey splits a dotted config key into section, optional
// subsection, and option name. The middle segments join into the
// subsection so branch names containing dots round-trip.
func parseConfigKey(key string) (section, subsection, name string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) < 2 || parts[0] == "" || parts[len(parts)-1] == "" {
		return "", "", "", fail(KindConfigKeyNotFound,
			errors.New("config keys use section.name or section.subsection.name form"),
			errCtx{key: key})
	}

	section = parts[0]
	name = parts[len(parts)-1]
	if len(parts) > 2 {
		subsection = strings.Join(parts[1:len(parts)-1], ".")
	}

	return section, subsection, name, nil
}
