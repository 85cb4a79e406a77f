package cache

import (
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
)

// Mutation describes one completed write and the cache keys it makes stale.
// Variants are independent and composable: placing an order passes all three.
type Mutation interface {
	Keys() []string
}

// ProductMutation covers create, update and delete of one or more products.
// Listing keys are always stale; detail keys only for the touched ids.
type ProductMutation struct {
	IDs []string
}

func (m ProductMutation) Keys() []string {
	keys := []string{KeyLatestProducts, KeyCategories, KeyAllProducts}
	for _, id := range m.IDs {
		keys = append(keys, ProductKey(id))
	}
	return keys
}

// OrderMutation covers create, status change and delete of one order. Absent
// ids still yield keys with an empty suffix; deleting those is a harmless
// no-op rather than a failure.
type OrderMutation struct {
	UserID  string
	OrderID string
}

func (m OrderMutation) Keys() []string {
	return []string{KeyAllOrders, UserOrdersKey(m.UserID), OrderKey(m.OrderID)}
}

// AdminMutation marks the four admin aggregates stale.
type AdminMutation struct{}

func (m AdminMutation) Keys() []string {
	return AdminKeys()
}

// Invalidator evicts the union of key sets for the given mutations. Eviction
// is best-effort, synchronous with the triggering write, and idempotent.
type Invalidator struct {
	cache  types.Cache
	logger types.Logger
	broker types.ActionBroker
}

func NewInvalidator(cache types.Cache, logger types.Logger) *Invalidator {
	return &Invalidator{
		cache:  cache,
		logger: logger,
	}
}

// WithBroker publishes a cache.invalidated action after each eviction so
// subscribed dashboards can refresh.
func (i *Invalidator) WithBroker(broker types.ActionBroker) *Invalidator {
	i.broker = broker
	return i
}

func (i *Invalidator) Invalidate(mutations ...Mutation) {
	if len(mutations) == 0 {
		return
	}

	var keys []string
	for _, mutation := range mutations {
		keys = append(keys, mutation.Keys()...)
	}

	if err := i.cache.Delete(keys...); err != nil {
		i.logger.Error("Cache eviction failed", zap.Strings("keys", keys), zap.Error(err))
	}

	i.logger.Debug("Cache invalidated", zap.Strings("keys", keys))

	if i.broker != nil {
		if err := i.broker.Publish("cache.invalidated", map[string]interface{}{"keys": keys}); err != nil {
			i.logger.Debug("Failed to publish invalidation event", zap.Error(err))
		}
	}
}
