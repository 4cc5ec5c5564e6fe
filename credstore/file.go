package credstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/goccy/go-json"
)

// File is a Store persisted as a JSON file on disk. The file and its
// directory are created on first save with owner-only permissions. All
// operations take an exclusive lock, so a File is safe to share within
// a process; it does not guard against concurrent writers in other
// processes.
type File struct {
	mu   sync.Mutex
	path string
}

// fileEntry is the on-disk shape of one credential. Secret is base64
// in the JSON encoding.
type fileEntry struct {
	Host     string `json:"host"`
	Scheme   string `json:"scheme,omitempty"`
	Account  string `json:"account,omitempty"`
	Username string `json:"username,omitempty"`
	Secret   []byte `json:"secret"`
	Kind     string `json:"kind"`
}

// DefaultFilePath returns the XDG data-home location used when NewFile
// is given an empty path.
func DefaultFilePath() string {
	return filepath.Join(xdg.DataHome, "gitkit", "credentials.json")
}

// NewFile creates a file-backed store at path, or at DefaultFilePath
// when path is empty. The file is not touched until the first save.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultFilePath()
	}
	return &File{path: path}
}

// Path returns the backing file's location.
func (f *File) Path() string {
	return f.path
}

// Lookup implements Store.
func (f *File) Lookup(ctx context.Context, key Key) (Material, error) {
	if err := ctx.Err(); err != nil {
		return Material{}, err
	}
	key = key.normalize()

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return Material{}, err
	}

	var matches []Key
	byKey := make(map[Key]Material, len(entries))
	for _, e := range entries {
		stored := Key{Host: e.Host, Scheme: e.Scheme, Account: e.Account}
		byKey[stored] = e.material()
		if key.matches(stored) {
			matches = append(matches, stored)
		}
	}
	if len(matches) == 0 {
		return Material{}, ErrNotFound
	}
	return byKey[pickBest(key, matches)], nil
}

// Save implements Store.
func (f *File) Save(ctx context.Context, key Key, material Material) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = key.normalize()

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}

	mat := material.clone()
	updated := false
	for i, e := range entries {
		if (Key{Host: e.Host, Scheme: e.Scheme, Account: e.Account}) == key {
			entries[i] = newFileEntry(key, mat)
			updated = true
			break
		}
	}
	if !updated {
		entries = append(entries, newFileEntry(key, mat))
	}
	return f.store(entries)
}

// Delete implements Store.
func (f *File) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = key.normalize()

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}

	kept := entries[:0]
	removed := false
	for _, e := range entries {
		if (Key{Host: e.Host, Scheme: e.Scheme, Account: e.Account}) == key {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return ErrNotFound
	}
	return f.store(kept)
}

// load reads the backing file. A missing file is an empty store.
func (f *File) load() ([]fileEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credential store: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse credential store: %w", err)
	}
	return entries, nil
}

// store writes the entries atomically with owner-only permissions.
func (f *File) store(entries []fileEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential store: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credential store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to stage credential store: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict credential store permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credential store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credential store: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace credential store: %w", err)
	}
	return nil
}

// newFileEntry converts a key/material pair to its on-disk shape.
func newFileEntry(key Key, mat Material) fileEntry {
	return fileEntry{
		Host:     key.Host,
		Scheme:   key.Scheme,
		Account:  key.Account,
		Username: mat.Username,
		Secret:   mat.Secret,
		Kind:     mat.Kind.String(),
	}
}

// material converts the on-disk shape back to Material.
func (e fileEntry) material() Material {
	mat := Material{Username: e.Username, Kind: parseSecretKind(e.Kind)}
	if e.Secret != nil {
		mat.Secret = make([]byte, len(e.Secret))
		copy(mat.Secret, e.Secret)
	}
	return mat
}

// parseSecretKind maps a wire name back to its SecretKind. Unknown names
// fall back to Password so older files stay readable.
func parseSecretKind(name string) SecretKind {
	switch name {
	case Token.String():
		return Token
	case PrivateKey.String():
		return PrivateKey
	default:
		return Password
	}
}
