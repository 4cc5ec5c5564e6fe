package credstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces credential keys so the store can share a
// database with other data. The full key layout is
// cred:<host>:<scheme>:<account>.
const redisKeyPrefix = "cred:"

// Redis is a Store backed by a Redis database, for credentials shared
// across processes or hosts. The client is borrowed, not owned; closing
// it is the caller's responsibility.
type Redis struct {
	client *redis.Client

	// TTL expires saved credentials after the given duration. Zero
	// stores them without expiry.
	TTL time.Duration
}

// redisValue is the stored JSON shape. Secret is base64 in the encoding.
type redisValue struct {
	Username string `json:"username,omitempty"`
	Secret   []byte `json:"secret"`
	Kind     string `json:"kind"`
}

// NewRedis creates a Redis-backed store on an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Lookup implements Store.
func (r *Redis) Lookup(ctx context.Context, key Key) (Material, error) {
	key = key.normalize()
	if key.Scheme != "" && key.Account != "" {
		mat, err := r.get(ctx, redisKeyFor(key))
		if err == nil || !errors.Is(err, ErrNotFound) {
			return mat, err
		}
	}

	pattern := redisKeyPrefix + key.Host + ":*"
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()

	var matches []Key
	for iter.Next(ctx) {
		stored, ok := parseRedisKey(iter.Val())
		if ok && key.matches(stored) {
			matches = append(matches, stored)
		}
	}
	if err := iter.Err(); err != nil {
		return Material{}, fmt.Errorf("failed to scan credential store: %w", err)
	}
	if len(matches) == 0 {
		return Material{}, ErrNotFound
	}
	return r.get(ctx, redisKeyFor(pickBest(key, matches)))
}

// Save implements Store.
func (r *Redis) Save(ctx context.Context, key Key, material Material) error {
	data, err := json.Marshal(redisValue{
		Username: material.Username,
		Secret:   material.Secret,
		Kind:     material.Kind.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if err := r.client.Set(ctx, redisKeyFor(key.normalize()), data, r.TTL).Err(); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key Key) error {
	removed, err := r.client.Del(ctx, redisKeyFor(key.normalize())).Result()
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// get fetches and decodes one stored credential.
func (r *Redis) get(ctx context.Context, redisKey string) (Material, error) {
	data, err := r.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Material{}, ErrNotFound
	}
	if err != nil {
		return Material{}, fmt.Errorf("failed to read credential store: %w", err)
	}

	var val redisValue
	if err := json.Unmarshal(data, &val); err != nil {
		return Material{}, fmt.Errorf("failed to parse credential: %w", err)
	}

	mat := Material{Username: val.Username, Kind: parseSecretKind(val.Kind)}
	if val.Secret != nil {
		mat.Secret = make([]byte, len(val.Secret))
		copy(mat.Secret, val.Secret)
	}
	return mat, nil
}

// redisKeyFor renders a key in the cred:<host>:<scheme>:<account> layout.
func redisKeyFor(key Key) string {
	return redisKeyPrefix + key.Host + ":" + key.Scheme + ":" + key.Account
}

// parseRedisKey inverts redisKeyFor.
func parseRedisKey(s string) (Key, bool) {
	rest, ok := strings.CutPrefix(s, redisKeyPrefix)
	if !ok {
		return Key{}, false
	}
	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 {
		return Key{}, false
	}
	return Key{Host: parts[0], Scheme: parts[1], Account: parts[2]}, true
}
