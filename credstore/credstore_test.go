package credstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMatches(t *testing.T) {
	tests := []struct {
		name   string
		lookup Key
		stored Key
		want   bool
	}{
		{
			name:   "exact match",
			lookup: Key{Host: "github.com", Scheme: "https", Account: "alice"},
			stored: Key{Host: "github.com", Scheme: "https", Account: "alice"},
			want:   true,
		},
		{
			name:   "different host",
			lookup: Key{Host: "github.com", Scheme: "https"},
			stored: Key{Host: "gitlab.com", Scheme: "https"},
			want:   false,
		},
		{
			name:   "wildcard scheme",
			lookup: Key{Host: "github.com"},
			stored: Key{Host: "github.com", Scheme: "ssh"},
			want:   true,
		},
		{
			name:   "scheme mismatch",
			lookup: Key{Host: "github.com", Scheme: "https"},
			stored: Key{Host: "github.com", Scheme: "ssh"},
			want:   false,
		},
		{
			name:   "host-wide entry serves concrete account",
			lookup: Key{Host: "github.com", Scheme: "https", Account: "alice"},
			stored: Key{Host: "github.com", Scheme: "https"},
			want:   true,
		},
		{
			name:   "account mismatch",
			lookup: Key{Host: "github.com", Scheme: "https", Account: "alice"},
			stored: Key{Host: "github.com", Scheme: "https", Account: "bob"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lookup.matches(tt.stored))
		})
	}
}

func TestPickBest(t *testing.T) {
	tests := []struct {
		name   string
		lookup Key
		keys   []Key
		want   Key
	}{
		{
			name:   "https beats ssh",
			lookup: Key{Host: "github.com"},
			keys: []Key{
				{Host: "github.com", Scheme: "ssh"},
				{Host: "github.com", Scheme: "https"},
			},
			want: Key{Host: "github.com", Scheme: "https"},
		},
		{
			name:   "exact account beats host-wide",
			lookup: Key{Host: "github.com", Account: "alice"},
			keys: []Key{
				{Host: "github.com", Scheme: "https"},
				{Host: "github.com", Scheme: "ssh", Account: "alice"},
			},
			want: Key{Host: "github.com", Scheme: "ssh", Account: "alice"},
		},
		{
			name:   "lexical tiebreak on account",
			lookup: Key{Host: "github.com"},
			keys: []Key{
				{Host: "github.com", Scheme: "https", Account: "bob"},
				{Host: "github.com", Scheme: "https", Account: "alice"},
			},
			want: Key{Host: "github.com", Scheme: "https", Account: "alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickBest(tt.lookup, tt.keys))
		})
	}
}

func TestMaterialClear(t *testing.T) {
	mat := Material{Username: "alice", Secret: []byte("s3cret"), Kind: Password}
	backing := mat.Secret

	mat.Clear()

	assert.Empty(t, mat.Username)
	assert.Nil(t, mat.Secret)
	for _, b := range backing {
		assert.Zero(t, b)
	}
}

func TestSecretKindString(t *testing.T) {
	assert.Equal(t, "password", Password.String())
	assert.Equal(t, "token", Token.String())
	assert.Equal(t, "private-key", PrivateKey.String())
	assert.Equal(t, "unknown", SecretKind(99).String())
}
