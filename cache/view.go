package cache

import (
	"context"
	"time"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

// View is a typed read-through facade over the raw string-keyed cache.
// Serialization lives here so call sites never touch raw payloads. A caller
// cannot tell a hit from a miss: both paths return the same decoded value.
type View[T any] struct {
	cache    types.Cache
	ttl      time.Duration
	identity func(T) string
}

func NewView[T any](cache types.Cache) *View[T] {
	return &View[T]{cache: cache}
}

// WithTTL makes every populated entry self-expiring.
func (v *View[T]) WithTTL(ttl time.Duration) *View[T] {
	v.ttl = ttl
	return v
}

// WithIdentity installs the id extractor used by GetOrComputeEntity.
func (v *View[T]) WithIdentity(fn func(T) string) *View[T] {
	v.identity = fn
	return v
}

func (v *View[T]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (T, error)) (T, error) {
	if cached, ok := v.lookup(key); ok {
		return cached, nil
	}

	return v.computeAndStore(ctx, key, compute)
}

// GetOrComputeEntity additionally verifies that the cached payload still
// belongs to the requested id. A mismatch is not an error: the entry is
// distrusted and the store is queried again.
func (v *View[T]) GetOrComputeEntity(ctx context.Context, key, id string, compute func(context.Context) (T, error)) (T, error) {
	if cached, ok := v.lookup(key); ok {
		if v.identity == nil || v.identity(cached) == id {
			return cached, nil
		}
	}

	return v.computeAndStore(ctx, key, compute)
}

func (v *View[T]) lookup(key string) (T, bool) {
	var cached T

	raw, ok := v.cache.Get(key)
	if !ok {
		return cached, false
	}

	if err := utils.Unmarshal(raw, &cached); err != nil {
		// Undecodable payloads collapse to a miss.
		return cached, false
	}

	return cached, true
}

func (v *View[T]) computeAndStore(ctx context.Context, key string, compute func(context.Context) (T, error)) (T, error) {
	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	if raw, marshalErr := utils.Marshal(value); marshalErr == nil {
		// Population is best-effort; a failed Set only costs the next caller
		// a store query.
		_ = v.cache.Set(key, raw, v.ttl)
	}

	return value, nil
}
