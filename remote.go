// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains remote management operations.
package gitkit

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Remotes lists the configured remotes as owned records, sorted by name.
// The conventional default remote "origin" is flagged.
func (r *Repo) Remotes(ctx context.Context) ([]RemoteRecord, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, translate(err, errCtx{})
	}

	cfg, _ := r.repo.Config()

	records := make([]RemoteRecord, 0, len(remotes))
	for _, remote := range remotes {
		records = append(records, remoteRecord(remote.Config(), cfg))
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	return records, nil
}

// RemoteInfo returns one remote as an owned record. The error for a missing
// remote carries the remote name.
func (r *Repo) RemoteInfo(ctx context.Context, name string) (*RemoteRecord, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return nil, fail(KindRemoteNotFound, err, errCtx{remote: name})
	}

	cfg, _ := r.repo.Config()
	record := remoteRecord(remote.Config(), cfg)
	return &record, nil
}

// CreateRemote adds a remote with the given fetch URL. The default fetch
// refspec is derived from the remote name.
func (r *Repo) CreateRemote(ctx context.Context, name, url string) error {
	if name == "" {
		return fail(KindOperationFailed, errors.New("remote name cannot be empty"), errCtx{})
	}
	if url == "" {
		return fail(KindOperationFailed, errors.New("remote URL cannot be empty"), errCtx{remote: name})
	}

	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		if errors.Is(err, git.ErrRemoteExists) {
			return WrapError(ErrRemoteExists, "remote already exists")
		}
		return translate(err, errCtx{remote: name})
	}

	r.logger.DebugContext(ctx, "remote created", "remote", name, "url", url)

	return nil
}

// DeleteRemote removes a remote and its configuration. The error for a
// missing remote carries the remote name.
func (r *Repo) DeleteRemote(ctx context.Context, name string) error {
	if name == "" {
		return fail(KindOperationFailed, errors.New("remote name cannot be empty"), errCtx{})
	}

	if err := r.repo.DeleteRemote(name); err != nil {
		return translate(err, errCtx{remote: name, fallback: KindRemoteNotFound})
	}

	return nil
}

// RenameRemote renames a remote, rewriting its fetch refspecs, moving its
// remote-tracking refs, and retargeting branches that track it. Unmanaged
// options such as a distinct push URL move with the section.
func (r *Repo) RenameRemote(ctx context.Context, oldName, newName string) error {
	if oldName == "" || newName == "" {
		return fail(KindOperationFailed, errors.New("remote name cannot be empty"), errCtx{})
	}
	if oldName == newName {
		return nil
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return translate(err, errCtx{remote: oldName})
	}

	remoteConfig, ok := cfg.Remotes[oldName]
	if !ok {
		return fail(KindRemoteNotFound, errors.New("remote not configured"), errCtx{remote: oldName})
	}
	if _, exists := cfg.Remotes[newName]; exists {
		return WrapError(ErrRemoteExists, "remote already exists")
	}

	remoteConfig.Name = newName
	remoteConfig.Fetch = renameRefSpecs(remoteConfig.Fetch, oldName, newName)
	delete(cfg.Remotes, oldName)
	cfg.Remotes[newName] = remoteConfig

	for _, branch := range cfg.Branches {
		if branch.Remote == oldName {
			branch.Remote = newName
		}
	}

	if err := r.repo.SetConfig(cfg); err != nil {
		return translate(err, errCtx{remote: newName})
	}

	if err := r.moveRemoteRefs(oldName, newName); err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "remote renamed", "from", oldName, "to", newName)

	return nil
}

// moveRemoteRefs relocates refs/remotes/<old>/* under the new remote name,
// rewriting symbolic targets that point inside the moved namespace.
func (r *Repo) moveRemoteRefs(oldName, newName string) error {
	oldPrefix := "refs/remotes/" + oldName + "/"
	newPrefix := "refs/remotes/" + newName + "/"

	iter, err := r.repo.References()
	if err != nil {
		return translate(err, errCtx{remote: oldName})
	}

	// Collect first; the storer must not change under its own iterator.
	var tracking []*plumbing.Reference
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		if strings.HasPrefix(string(ref.Name()), oldPrefix) {
			tracking = append(tracking, ref)
		}
		return nil
	}); err != nil {
		return translate(err, errCtx{remote: oldName})
	}

	for _, ref := range tracking {
		name := plumbing.ReferenceName(newPrefix + strings.TrimPrefix(string(ref.Name()), oldPrefix))

		renamed := plumbing.NewHashReference(name, ref.Hash())
		if ref.Type() == plumbing.SymbolicReference {
			target := string(ref.Target())
			if strings.HasPrefix(target, oldPrefix) {
				target = newPrefix + strings.TrimPrefix(target, oldPrefix)
			}
			renamed = plumbing.NewSymbolicReference(name, plumbing.ReferenceName(target))
		}

		if err := r.repo.Storer.SetReference(renamed); err != nil {
			return translate(err, errCtx{remote: newName})
		}
		if err := r.repo.Storer.RemoveReference(ref.Name()); err != nil {
			return translate(err, errCtx{remote: oldName})
		}
	}

	return nil
}

// renameRefSpecs rewrites each refspec's tracking destination from the old
// remote namespace to the new one.
func renameRefSpecs(specs []config.RefSpec, oldName, newName string) []config.RefSpec {
	out := make([]config.RefSpec, len(specs))
	for i, spec := range specs {
		out[i] = config.RefSpec(strings.Replace(
			string(spec),
			"refs/remotes/"+oldName+"/",
			"refs/remotes/"+newName+"/",
			1))
	}
	return out
}

// RemoteURL returns the fetch URL of a remote. The error for a missing
// remote carries the remote name.
func (r *Repo) RemoteURL(ctx context.Context, name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fail(KindRemoteNotFound, err, errCtx{remote: name})
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fail(KindRemoteNotFound, errors.New("remote has no configured URLs"), errCtx{remote: name})
	}

	return urls[0], nil
}

// SetRemoteURL replaces the fetch URL of an existing remote.
func (r *Repo) SetRemoteURL(ctx context.Context, name, url string) error {
	if url == "" {
		return fail(KindOperationFailed, errors.New("remote URL cannot be empty"), errCtx{remote: name})
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return translate(err, errCtx{remote: name})
	}

	remoteConfig, ok := cfg.Remotes[name]
	if !ok {
		return fail(KindRemoteNotFound, errors.New("remote not configured"), errCtx{remote: name})
	}

	remoteConfig.URLs = []string{url}
	if err := r.repo.SetConfig(cfg); err != nil {
		return translate(err, errCtx{remote: name})
	}

	return nil
}

// remoteRecord copies a remote's configuration into an owned record. The
// push URL falls back to the fetch URL unless the raw configuration carries
// a distinct pushurl.
func remoteRecord(rc *config.RemoteConfig, cfg *config.Config) RemoteRecord {
	record := RemoteRecord{
		Name:      rc.Name,
		IsDefault: rc.Name == DefaultRemoteName,
	}
	if len(rc.URLs) > 0 {
		record.FetchURL = rc.URLs[0]
	}

	record.PushURL = record.FetchURL
	if push := rawPushURL(cfg, rc.Name); push != "" {
		record.PushURL = push
	}

	return record
}

// rawPushURL digs the pushurl option out of the raw config, which go-git's
// typed RemoteConfig does not surface.
func rawPushURL(cfg *config.Config, name string) string {
	if cfg == nil || cfg.Raw == nil {
		return ""
	}
	return cfg.Raw.Section("remote").Subsection(name).Option("pushurl")
}
