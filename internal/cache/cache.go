// Package cache stores generated AI payloads keyed by a hash of their request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching services.
// Get returns "" and a nil error when the key does not exist.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key builds a namespaced cache key from the sha256 of the given parts.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// Noop is used when Redis is not configured. Every lookup misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, error) { return "", nil }
func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error { return nil }
