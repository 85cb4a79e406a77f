package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-commerce/utils"
)

type catalogItem struct {
	ID    string `json:"internal_id"`
	Title string `json:"title"`
}

func TestViewComputesOnceAndPopulates(t *testing.T) {
	c := newFakeCache()
	view := NewView[catalogItem](c)

	computes := 0
	compute := func(ctx context.Context) (catalogItem, error) {
		computes++
		return catalogItem{ID: "p1", Title: "Widget"}, nil
	}

	first, err := view.GetOrCompute(context.Background(), "item", compute)
	require.NoError(t, err)
	assert.Equal(t, "Widget", first.Title)
	assert.Equal(t, 1, computes)

	second, err := view.GetOrCompute(context.Background(), "item", compute)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, computes, "second read must be served from cache")
}

func TestViewComputeErrorNotCached(t *testing.T) {
	c := newFakeCache()
	view := NewView[catalogItem](c)

	compute := func(ctx context.Context) (catalogItem, error) {
		return catalogItem{}, assert.AnError
	}

	_, err := view.GetOrCompute(context.Background(), "item", compute)
	assert.Error(t, err)
	assert.Zero(t, c.sets, "failed compute must not populate the cache")
}

func TestViewUndecodablePayloadIsMiss(t *testing.T) {
	c := newFakeCache()
	require.NoError(t, c.Set("item", []byte("{not json"), 0))

	view := NewView[catalogItem](c)

	computes := 0
	item, err := view.GetOrCompute(context.Background(), "item", func(ctx context.Context) (catalogItem, error) {
		computes++
		return catalogItem{ID: "p1", Title: "Fresh"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, computes, "corrupt entry must fall through to the store")
	assert.Equal(t, "Fresh", item.Title)
}

func TestViewIdentityMismatchFallsThrough(t *testing.T) {
	c := newFakeCache()

	// An entry under the wrong key, e.g. left behind by a bad write.
	stale, err := utils.Marshal(catalogItem{ID: "other", Title: "Stale"})
	require.NoError(t, err)
	require.NoError(t, c.Set(ProductKey("p1"), stale, 0))

	view := NewView[catalogItem](c).
		WithIdentity(func(item catalogItem) string { return item.ID })

	computes := 0
	item, err := view.GetOrComputeEntity(context.Background(), ProductKey("p1"), "p1", func(ctx context.Context) (catalogItem, error) {
		computes++
		return catalogItem{ID: "p1", Title: "Correct"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, computes, "identity mismatch must be treated as a miss")
	assert.Equal(t, "p1", item.ID)
	assert.Equal(t, "Correct", item.Title)
}

func TestViewIdentityMatchServedFromCache(t *testing.T) {
	c := newFakeCache()

	cached, err := utils.Marshal(catalogItem{ID: "p1", Title: "Cached"})
	require.NoError(t, err)
	require.NoError(t, c.Set(ProductKey("p1"), cached, 0))

	view := NewView[catalogItem](c).
		WithIdentity(func(item catalogItem) string { return item.ID })

	item, err := view.GetOrComputeEntity(context.Background(), ProductKey("p1"), "p1", func(ctx context.Context) (catalogItem, error) {
		t.Fatal("compute must not run on an identity match")
		return catalogItem{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Cached", item.Title)
}

func TestViewTTLPropagates(t *testing.T) {
	c := newFakeCache()
	view := NewView[catalogItem](c).WithTTL(5 * time.Minute)

	_, err := view.GetOrCompute(context.Background(), "item", func(ctx context.Context) (catalogItem, error) {
		return catalogItem{ID: "p1"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, c.ttls["item"])
}
