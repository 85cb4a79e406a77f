package cache

// Deterministic keys for every cacheable query result. Read-through accessors
// and the invalidator must derive keys through these helpers only, so the set
// of keys a reader writes is always covered by the set a mutation evicts.
const (
	KeyLatestProducts  = "latest-products"
	KeyAllProducts     = "all-products"
	KeyCategories      = "categories"
	KeyAllOrders       = "all-orders"
	KeyAdminStats      = "admin-stats"
	KeyAdminPieCharts  = "admin-pie-charts"
	KeyAdminBarCharts  = "admin-bar-charts"
	KeyAdminLineCharts = "admin-line-charts"
)

func ProductKey(id string) string {
	return "product-" + id
}

// OrderKey is shared by the read and evict paths. Hand-building this string
// at a call site risks an eviction key that never matches what readers wrote.
func OrderKey(id string) string {
	return "order-" + id
}

func UserOrdersKey(userID string) string {
	return "userOrders_" + userID
}

func AdminKeys() []string {
	return []string{KeyAdminStats, KeyAdminPieCharts, KeyAdminBarCharts, KeyAdminLineCharts}
}
