package interfaces

import (
	"context"
	"time"
)

// Cache stores values under keys with a TTL. Implemented by adapters/myredis; used by service.Announcer
// (writes this node's instance) and service.CacheNodeSource (lists every announced instance).
//
//go:generate moq -stub -out mock/cache.go -pkg mock . Cache
type Cache[T any] interface {
	// WriteValue writes value in cache with the given TTL (0 means no expiry).
	// Returns: nil on success; error when marshalling or the storage write fails.
	WriteValue(ctx context.Context, key string, item T, ttl time.Duration) error

	// ListAllValues returns all values in the cache (lists keys then fetches values for them).
	// Values that expired between listing and reading, or that cannot be unmarshalled, are skipped.
	// Returns: (items, nil), possibly empty; (nil, error) when listing keys fails.
	ListAllValues(ctx context.Context) ([]T, error)

	// DeleteValue deletes the value for the given key. Deleting a missing key is not an error.
	DeleteValue(ctx context.Context, key string) error
}
