package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-commerce/cache"
	"github.com/saiset-co/sai-commerce/types"
)

var testCatalog = &types.CatalogConfig{ProductsPerPage: 2, LatestLimit: 6}

func productDoc(id, title, category string, price float64, stock int64) map[string]interface{} {
	return map[string]interface{}{
		"internal_id": id,
		"title":       title,
		"category":    category,
		"price":       price,
		"stock":       stock,
		"cr_time":     time.Now().UnixNano(),
	}
}

func newProductFixture() (*ProductService, *fakeStore, *memCache) {
	store := newFakeStore()
	c := newMemCache()
	invalidator := cache.NewInvalidator(c, testLogger())
	return NewProductService(store, c, invalidator, testLogger(), testCatalog), store, c
}

func TestProductLatestCachedReadThrough(t *testing.T) {
	svc, store, c := newProductFixture()
	store.seed(types.CollectionProducts, productDoc("p1", "Widget", "tools", 10, 3))

	products, err := svc.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Title)
	assert.True(t, c.Has(cache.KeyLatestProducts))

	calls := store.findCalls
	_, err = svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calls, store.findCalls, "cached read must not query the store")
}

func TestProductGetNotFound(t *testing.T) {
	svc, _, _ := newProductFixture()

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrProductNotFound)
}

func TestProductCreateEvictsListings(t *testing.T) {
	svc, store, c := newProductFixture()
	store.seed(types.CollectionProducts, productDoc("p1", "Widget", "tools", 10, 3))

	// Populate the listing caches.
	_, err := svc.Latest(context.Background())
	require.NoError(t, err)
	_, err = svc.All(context.Background())
	require.NoError(t, err)
	_, err = svc.Categories(context.Background())
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), types.NewProductRequest{
		Title:    "Gadget",
		Price:    25,
		Stock:    7,
		Category: "electronics",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	assert.False(t, c.Has(cache.KeyLatestProducts))
	assert.False(t, c.Has(cache.KeyAllProducts))
	assert.False(t, c.Has(cache.KeyCategories))
}

func TestProductUpdateEvictsDetailKey(t *testing.T) {
	svc, store, c := newProductFixture()
	store.seed(types.CollectionProducts, productDoc("p1", "Widget", "tools", 10, 3))

	_, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.True(t, c.Has(cache.ProductKey("p1")))

	newPrice := 15.0
	updated, err := svc.Update(context.Background(), "p1", types.UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 15.0, updated.Price)

	assert.False(t, c.Has(cache.ProductKey("p1")))
}

func TestProductUpdateNotFound(t *testing.T) {
	svc, _, _ := newProductFixture()

	title := "Renamed"
	_, err := svc.Update(context.Background(), "missing", types.UpdateProductRequest{Title: &title})
	assert.ErrorIs(t, err, types.ErrProductNotFound)
}

func TestProductDelete(t *testing.T) {
	svc, _, _ := newProductFixture()

	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), types.ErrProductNotFound)
}

func TestProductSearchPagination(t *testing.T) {
	svc, store, _ := newProductFixture()
	store.seed(types.CollectionProducts,
		productDoc("p1", "Alpha", "tools", 10, 1),
		productDoc("p2", "Beta", "tools", 20, 1),
		productDoc("p3", "Gamma", "tools", 30, 1),
	)

	result, err := svc.Search(context.Background(), types.ProductSearchQuery{Page: 1})
	require.NoError(t, err)
	assert.Len(t, result.Products, 2)
	assert.Equal(t, 2, result.TotalPages)

	result, err = svc.Search(context.Background(), types.ProductSearchQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, result.Products, 1)
}

func TestProductSearchCategoryFilter(t *testing.T) {
	svc, store, _ := newProductFixture()
	store.seed(types.CollectionProducts,
		productDoc("p1", "Alpha", "tools", 10, 1),
		productDoc("p2", "Beta", "shoes", 20, 1),
	)

	result, err := svc.Search(context.Background(), types.ProductSearchQuery{Category: "shoes"})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Beta", result.Products[0].Title)
}
