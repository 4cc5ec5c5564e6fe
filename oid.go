// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains the owned object identifier type and its hex form.
package gitkit

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// ObjectID is an owned copy of a Git object identifier (commit, tree, blob
// or tag hash). The byte length is whatever the engine produces (20 for
// SHA-1). An ObjectID is immutable once constructed; equality is byte-wise.
type ObjectID struct {
	raw []byte
}

// NewObjectID copies an engine hash into an owned ObjectID.
func NewObjectID(h plumbing.Hash) ObjectID {
	raw := make([]byte, len(h))
	copy(raw, h[:])
	return ObjectID{raw: raw}
}

// ParseObjectID parses a hexadecimal object id. The input may use either
// case; the parsed id renders lowercase. Parsing then rendering then parsing
// again is the identity.
func ParseObjectID(s string) (ObjectID, error) {
	if s == "" {
		return ObjectID{}, WrapError(ErrInvalidReference, "empty object id")
	}

	raw, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return ObjectID{}, WrapErrorf(ErrInvalidReference, "malformed object id %q", s)
	}

	return ObjectID{raw: raw}, nil
}

// String renders the id as lowercase hex, exactly twice the byte length, no
// separators. The zero ObjectID renders as the empty string.
func (id ObjectID) String() string {
	return hex.EncodeToString(id.raw)
}

// Short returns the conventional 7-character abbreviation, or the full hex
// form when the id is shorter than that.
func (id ObjectID) Short() string {
	s := id.String()
	if len(s) > 7 {
		return s[:7]
	}
	return s
}

// Bytes returns a copy of the raw identifier bytes.
func (id ObjectID) Bytes() []byte {
	out := make([]byte, len(id.raw))
	copy(out, id.raw)
	return out
}

// Equal reports byte-wise equality.
func (id ObjectID) Equal(other ObjectID) bool {
	return bytes.Equal(id.raw, other.raw)
}

// IsZero reports whether the id is empty or all zero bytes.
func (id ObjectID) IsZero() bool {
	for _, b := range id.raw {
		if b != 0 {
			return false
		}
	}
	return true
}

// hash converts back to the engine's fixed-size hash for engine calls.
// Ids of a different length than the engine's yield the zero hash.
func (id ObjectID) hash() plumbing.Hash {
	var h plumbing.Hash
	if len(id.raw) != len(h) {
		return h
	}
	copy(h[:], id.raw)
	return h
}
