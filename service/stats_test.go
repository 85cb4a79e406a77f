package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saiset-co/sai-commerce/types"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name      string
		thisMonth float64
		lastMonth float64
		expected  float64
	}{
		{"growth", 150, 100, 150},
		{"decline", 50, 100, 50},
		{"flat", 100, 100, 100},
		{"empty previous month scales current", 3, 0, 300},
		{"both empty", 0, 0, 0},
		{"this month empty", 0, 10, 0},
		{"rounded", 1, 3, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, percentChange(tt.thisMonth, tt.lastMonth))
		})
	}
}

func TestMonthOffset(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		record   time.Time
		expected int
	}{
		{"same month", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 0},
		{"previous month", time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC), 1},
		{"january", time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), 2},
		{"wraps over year end", time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), 3},
		{"eleven months back", time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), 11},
		{"month match ignores year", time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, monthOffset(now, tt.record))
		})
	}
}

func TestMonthlyCountsBucketAssignment(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	times := []time.Time{
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),    // offset 0, last bucket
		time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),   // offset 0
		time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), // offset 2, index 3
		time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC),  // offset 5, index 0
		time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC),   // offset 7, discarded
	}

	buckets := monthlyCounts(times, 6, now)

	assert.Equal(t, []int64{1, 0, 0, 1, 0, 2}, buckets)
}

func TestMonthlySums(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	orders := []types.Order{
		{Total: 100, CrTime: time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC).UnixNano()},
		{Total: 50, CrTime: time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC).UnixNano()},
		{Total: 30, CrTime: time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC).UnixNano()},
	}

	buckets := monthlySums(orders, 6, now, func(o types.Order) float64 { return o.Total })

	assert.Equal(t, []float64{0, 0, 0, 0, 30, 150}, buckets)
}

func TestCategoryShares(t *testing.T) {
	products := []types.Product{
		{Category: "laptop"},
		{Category: "laptop"},
		{Category: "laptop"},
		{Category: "shoes"},
	}

	shares := categoryShares(products)

	assert.Equal(t, []map[string]int64{
		{"laptop": 75},
		{"shoes": 25},
	}, shares)
}

func TestCategorySharesEmptyCatalog(t *testing.T) {
	assert.Empty(t, categoryShares(nil))
}

func TestUserAge(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dob      string
		expected int
		ok       bool
	}{
		{"birthday passed", "2000-01-01", 24, true},
		{"birthday not yet", "2000-12-31", 23, true},
		{"unparseable", "not-a-date", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age, ok := userAge(types.User{DOB: tt.dob}, now)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, age)
			}
		})
	}
}

func TestDashboardCachedAfterFirstCompute(t *testing.T) {
	store := newFakeStore()
	store.seed(types.CollectionProducts, map[string]interface{}{
		"internal_id": "p1", "title": "Widget", "category": "tools",
		"price": 10.0, "stock": int64(5), "cr_time": time.Now().UnixNano(),
	})

	c := newMemCache()
	stats := NewStatsService(store, c, testLogger())

	_, err := stats.Dashboard(context.Background())
	assert.NoError(t, err)
	firstCalls := store.findCalls

	_, err = stats.Dashboard(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, firstCalls, store.findCalls, "second dashboard read must be served from cache")
}
