package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDerivation(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"product detail", ProductKey("abc-123"), "product-abc-123"},
		{"order detail", OrderKey("ord-9"), "order-ord-9"},
		{"user orders", UserOrdersKey("user-1"), "userOrders_user-1"},
		{"empty product id", ProductKey(""), "product-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestAdminKeysCoverAllAggregates(t *testing.T) {
	keys := AdminKeys()

	assert.Len(t, keys, 4)
	assert.Contains(t, keys, KeyAdminStats)
	assert.Contains(t, keys, KeyAdminPieCharts)
	assert.Contains(t, keys, KeyAdminBarCharts)
	assert.Contains(t, keys, KeyAdminLineCharts)
}

// The read path and the evict path must agree on order detail keys, otherwise
// stale order entries survive status changes forever.
func TestOrderKeyMatchesEvictionKey(t *testing.T) {
	id := "order-42"

	readKey := OrderKey(id)
	evictKeys := OrderMutation{UserID: "u1", OrderID: id}.Keys()

	assert.Contains(t, evictKeys, readKey)
}

func TestProductKeyMatchesEvictionKey(t *testing.T) {
	id := "prod-7"

	readKey := ProductKey(id)
	evictKeys := ProductMutation{IDs: []string{id}}.Keys()

	assert.Contains(t, evictKeys, readKey)
}
