package types

import (
	"time"
)

// Cache is a process-local lookaside store for serialized query results.
// Absence does not distinguish never-set, expired and evicted entries.
type Cache interface {
	LifecycleManager
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Has(key string) bool
	Delete(keys ...string) error
}

type CacheEntry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
