package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/logger"
	"github.com/saiset-co/sai-commerce/types"
)

// fakeCache records every operation so tests can assert on exact key sets.
type fakeCache struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	deleted []string
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		data: map[string][]byte{},
		ttls: map[string]time.Duration{},
	}
}

func (f *fakeCache) Get(key string) ([]byte, bool) {
	f.gets++
	value, ok := f.data[key]
	return value, ok
}

func (f *fakeCache) Set(key string, value []byte, ttl time.Duration) error {
	f.sets++
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Has(key string) bool {
	_, ok := f.data[key]
	return ok
}

func (f *fakeCache) Delete(keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeCache) Start() error    { return nil }
func (f *fakeCache) Stop() error     { return nil }
func (f *fakeCache) IsRunning() bool { return true }

type fakeBroker struct {
	actions  []string
	payloads []interface{}
}

func (f *fakeBroker) Publish(action string, payload interface{}) error {
	f.actions = append(f.actions, action)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeBroker) Start() error    { return nil }
func (f *fakeBroker) Stop() error     { return nil }
func (f *fakeBroker) IsRunning() bool { return true }

func testLogger() types.Logger {
	return logger.NewZapWrapper(zap.NewNop())
}

func TestProductMutationEvictsEveryProductKey(t *testing.T) {
	c := newFakeCache()
	inv := NewInvalidator(c, testLogger())

	inv.Invalidate(ProductMutation{IDs: []string{"p1"}})

	assert.ElementsMatch(t, []string{
		KeyLatestProducts, KeyCategories, KeyAllProducts, ProductKey("p1"),
	}, c.deleted)
}

func TestProductMutationMultipleIDs(t *testing.T) {
	c := newFakeCache()
	inv := NewInvalidator(c, testLogger())

	inv.Invalidate(ProductMutation{IDs: []string{"p1", "p2", "p3"}})

	assert.Contains(t, c.deleted, ProductKey("p1"))
	assert.Contains(t, c.deleted, ProductKey("p2"))
	assert.Contains(t, c.deleted, ProductKey("p3"))
}

// Mutations are independent: touching an order must not disturb product keys
// and vice versa.
func TestMutationIndependence(t *testing.T) {
	c := newFakeCache()
	inv := NewInvalidator(c, testLogger())

	inv.Invalidate(OrderMutation{UserID: "u1", OrderID: "o1"})

	assert.ElementsMatch(t, []string{
		KeyAllOrders, UserOrdersKey("u1"), OrderKey("o1"),
	}, c.deleted)
	assert.NotContains(t, c.deleted, KeyLatestProducts)
	assert.NotContains(t, c.deleted, KeyAdminStats)
}

func TestAdminMutationEvictsAggregates(t *testing.T) {
	c := newFakeCache()
	inv := NewInvalidator(c, testLogger())

	inv.Invalidate(AdminMutation{})

	assert.ElementsMatch(t, AdminKeys(), c.deleted)
}

// Placing an order passes all three mutation kinds; the eviction set must be
// their union.
func TestCombinedMutations(t *testing.T) {
	c := newFakeCache()
	inv := NewInvalidator(c, testLogger())

	inv.Invalidate(
		ProductMutation{IDs: []string{"p1"}},
		OrderMutation{UserID: "u1", OrderID: "o1"},
		AdminMutation{},
	)

	expected := []string{
		KeyLatestProducts, KeyCategories, KeyAllProducts, ProductKey("p1"),
		KeyAllOrders, UserOrdersKey("u1"), OrderKey("o1"),
	}
	expected = append(expected, AdminKeys()...)

	assert.ElementsMatch(t, expected, c.deleted)
}

func TestInvalidateNothing(t *testing.T) {
	c := newFakeCache()
	inv := NewInvalidator(c, testLogger())

	inv.Invalidate()

	assert.Empty(t, c.deleted)
}

func TestInvalidatePublishesEvent(t *testing.T) {
	c := newFakeCache()
	broker := &fakeBroker{}
	inv := NewInvalidator(c, testLogger()).WithBroker(broker)

	inv.Invalidate(AdminMutation{})

	assert.Equal(t, []string{"cache.invalidated"}, broker.actions)
}

func TestInvalidateIdempotent(t *testing.T) {
	c := newFakeCache()
	inv := NewInvalidator(c, testLogger())

	inv.Invalidate(ProductMutation{IDs: []string{"p1"}})
	inv.Invalidate(ProductMutation{IDs: []string{"p1"}})

	// Second pass deletes keys that are already gone; no error, no surprises.
	assert.Len(t, c.deleted, 8)
}
