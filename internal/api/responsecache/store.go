// Package responsecache stores generated answers by a deterministic key.
// Entries never expire; they disappear only when the cache is cleared.
package responsecache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Store is a key to response map with explicit clearing.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) int
	Backend() string
}

// Key derives the cache key for a generated answer from the query and the
// parts of its analysis that change the phrasing.
func Key(query, location, specialContext, groupType string) string {
	raw := strings.Join([]string{strings.ToLower(query), location, specialContext, groupType}, "|")
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
