package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-commerce/cache"
	"github.com/saiset-co/sai-commerce/types"
)

func newOrderFixture() (*OrderService, *fakeStore, *memCache) {
	store := newFakeStore()
	c := newMemCache()
	invalidator := cache.NewInvalidator(c, testLogger())
	return NewOrderService(store, c, invalidator, testLogger()), store, c
}

func orderRequest(userID string, items ...types.OrderItem) types.NewOrderRequest {
	return types.NewOrderRequest{
		UserID:     userID,
		OrderItems: items,
		ShippingInfo: types.ShippingInfo{
			Address: "1 Main St", City: "Springfield", State: "IL",
			Country: "US", PostalCode: 62704,
		},
		Subtotal: 100,
		Total:    110,
		Tax:      10,
	}
}

func TestOrderCreateReducesStock(t *testing.T) {
	svc, store, _ := newOrderFixture()
	store.seed(types.CollectionProducts, productDoc("p1", "Widget", "tools", 10, 5))
	store.seed(types.CollectionUsers, map[string]interface{}{
		"internal_id": "u1", "name": "Ada", "email": "ada@example.com",
	})

	order, err := svc.Create(context.Background(), orderRequest("u1",
		types.OrderItem{ProductID: "p1", Quantity: 3},
	))
	require.NoError(t, err)

	assert.Equal(t, types.OrderStatusProcessing, order.Status)
	assert.Equal(t, "Ada", order.UserName)

	doc, err := store.FindByID(context.Background(), types.CollectionProducts, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc["stock"])
}

func TestOrderCreateInsufficientStock(t *testing.T) {
	svc, store, _ := newOrderFixture()
	store.seed(types.CollectionProducts, productDoc("p1", "Widget", "tools", 10, 2))

	_, err := svc.Create(context.Background(), orderRequest("u1",
		types.OrderItem{ProductID: "p1", Quantity: 3},
	))
	assert.ErrorIs(t, err, types.ErrInsufficientStock)
}

// One unavailable line item must leave every product untouched, including the
// ones that had enough stock.
func TestOrderCreatePartialStockTouchesNothing(t *testing.T) {
	svc, store, _ := newOrderFixture()
	store.seed(types.CollectionProducts,
		productDoc("p1", "Widget", "tools", 10, 5),
		productDoc("p2", "Gadget", "tools", 20, 1),
	)

	_, err := svc.Create(context.Background(), orderRequest("u1",
		types.OrderItem{ProductID: "p1", Quantity: 3},
		types.OrderItem{ProductID: "p2", Quantity: 2},
	))
	require.ErrorIs(t, err, types.ErrInsufficientStock)

	doc, err := store.FindByID(context.Background(), types.CollectionProducts, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), doc["stock"], "no stock may be reduced when any item is short")
}

func TestOrderCreateUnknownProduct(t *testing.T) {
	svc, _, _ := newOrderFixture()

	_, err := svc.Create(context.Background(), orderRequest("u1",
		types.OrderItem{ProductID: "missing", Quantity: 1},
	))
	assert.ErrorIs(t, err, types.ErrProductNotFound)
}

func TestOrderCreateEvictsOrderKeys(t *testing.T) {
	svc, store, c := newOrderFixture()
	store.seed(types.CollectionProducts, productDoc("p1", "Widget", "tools", 10, 5))

	// Populate the per-user and listing caches.
	_, err := svc.ForUser(context.Background(), "u1")
	require.NoError(t, err)
	_, err = svc.All(context.Background())
	require.NoError(t, err)
	require.True(t, c.Has(cache.UserOrdersKey("u1")))
	require.True(t, c.Has(cache.KeyAllOrders))

	_, err = svc.Create(context.Background(), orderRequest("u1",
		types.OrderItem{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	assert.False(t, c.Has(cache.UserOrdersKey("u1")))
	assert.False(t, c.Has(cache.KeyAllOrders))
	assert.False(t, c.Has(cache.ProductKey("p1")))
}

func TestOrderUserOrdersTTL(t *testing.T) {
	svc, _, c := newOrderFixture()

	_, err := svc.ForUser(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, userOrdersTTL, c.ttls[cache.UserOrdersKey("u1")])
}

func TestOrderProcessAdvancesStatus(t *testing.T) {
	svc, store, c := newOrderFixture()
	store.seed(types.CollectionProducts, productDoc("p1", "Widget", "tools", 10, 5))

	created, err := svc.Create(context.Background(), orderRequest("u1",
		types.OrderItem{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	// Prime the detail cache, then advance.
	_, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, c.Has(cache.OrderKey(created.ID)))

	shipped, err := svc.Process(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusShipped, shipped.Status)
	assert.False(t, c.Has(cache.OrderKey(created.ID)), "status change must evict the detail entry")

	delivered, err := svc.Process(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusDelivered, delivered.Status)

	_, err = svc.Process(context.Background(), created.ID)
	assert.ErrorIs(t, err, types.ErrValidationFailed)
}

// Advancing an order changes the availability shown on the public listing
// views, so Process evicts them alongside the order keys.
func TestOrderProcessEvictsProductListings(t *testing.T) {
	svc, store, c := newOrderFixture()
	store.seed(types.CollectionProducts, productDoc("p1", "Widget", "tools", 10, 5))

	created, err := svc.Create(context.Background(), orderRequest("u1",
		types.OrderItem{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	require.NoError(t, c.Set(cache.KeyLatestProducts, []byte("x"), 0))
	require.NoError(t, c.Set(cache.KeyCategories, []byte("x"), 0))
	require.NoError(t, c.Set(cache.KeyAllProducts, []byte("x"), 0))

	_, err = svc.Process(context.Background(), created.ID)
	require.NoError(t, err)

	assert.False(t, c.Has(cache.KeyLatestProducts))
	assert.False(t, c.Has(cache.KeyCategories))
	assert.False(t, c.Has(cache.KeyAllProducts))
}

func TestOrderGetNotFound(t *testing.T) {
	svc, _, _ := newOrderFixture()

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}

func TestOrderDeleteEvicts(t *testing.T) {
	svc, store, c := newOrderFixture()
	store.seed(types.CollectionProducts, productDoc("p1", "Widget", "tools", 10, 5))

	created, err := svc.Create(context.Background(), orderRequest("u1",
		types.OrderItem{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NoError(t, c.Set(cache.KeyLatestProducts, []byte("x"), 0))

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.False(t, c.Has(cache.OrderKey(created.ID)))
	assert.False(t, c.Has(cache.KeyLatestProducts), "deleting an order refreshes the listing views")

	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}
