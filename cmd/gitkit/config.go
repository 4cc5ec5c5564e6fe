package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit"
)

// hostConfig carries the CLI defaults read from the user's config file.
type hostConfig struct {
	// Author signs commits and stashes created by the CLI. When unset,
	// the repository's configured user is used instead.
	Author authorConfig `toml:"author"`

	// Remote is the default remote for fetch and push, "origin" when
	// unset.
	Remote string `toml:"remote"`

	// Store is the credential store file path. Empty selects the
	// standard location under the xdg data home.
	Store string `toml:"store"`
}

type authorConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// configPath returns the CLI config file location under the xdg config
// home.
func configPath() string {
	return filepath.Join(xdg.ConfigHome, "gitkit", "config.toml")
}

// loadHostConfig reads the config file, tolerating its absence.
func loadHostConfig() (hostConfig, error) {
	cfg := hostConfig{Remote: gitkit.DefaultRemoteName}

	path := configPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return hostConfig{}, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if cfg.Remote == "" {
		cfg.Remote = gitkit.DefaultRemoteName
	}
	return cfg, nil
}

// signature resolves the author identity to sign CLI-created commits and
// stashes: the config file's author when complete, otherwise the
// repository's configured user.
func (c hostConfig) signature(ctx context.Context, repo *gitkit.Repo) (gitkit.Signature, error) {
	if c.Author.Name != "" && c.Author.Email != "" {
		return gitkit.Signature{Name: c.Author.Name, Email: c.Author.Email}, nil
	}

	sig, err := repo.DefaultSignature(ctx)
	if err != nil {
		return gitkit.Signature{}, fmt.Errorf(
			"no author configured: set [author] in %s or user.name/user.email in git config: %w",
			configPath(), err)
	}
	return *sig, nil
}
