// Package cache is the content-addressed response cache. It is never
// authoritative: losing it only forces recomputation, so every operation
// here is best-effort and a store failure must degrade to a miss.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL is the fixed retention window. Expiry is passive; there is no
// eviction or ranking policy.
const TTL = 24 * time.Hour

// ErrMiss distinguishes "not there" from a store failure. Callers are
// expected to treat both as a miss, discarding the failure on purpose.
var ErrMiss = errors.New("cache miss")

// Key derives a deterministic storage key from the semantically relevant
// request parameters: each part case-folded and trimmed, then hashed and
// truncated so the key length is bounded regardless of input size.
func Key(capability string, parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	sum := sha256.Sum256([]byte(strings.Join(norm, "|")))
	enc := base64.RawURLEncoding.EncodeToString(sum[:])[:32]
	return fmt.Sprintf("cache:%s:%s", capability, enc)
}

type ResponseCache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *ResponseCache {
	return &ResponseCache{rdb: rdb}
}

func (c *ResponseCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (c *ResponseCache) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, TTL).Err()
}
