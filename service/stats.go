package service

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saiset-co/sai-commerce/cache"
	"github.com/saiset-co/sai-commerce/types"
)

// StatsService computes the admin analytics aggregates. Each aggregate is
// cached under its own key and recomputed from full collection scans on a
// miss; the three source collections are loaded concurrently.
type StatsService struct {
	store  types.DocumentStore
	logger types.Logger

	statsView *cache.View[types.DashboardStats]
	pieView   *cache.View[types.PieCharts]
	barView   *cache.View[types.BarCharts]
	lineView  *cache.View[types.LineCharts]
}

func NewStatsService(store types.DocumentStore, c types.Cache, logger types.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,

		statsView: cache.NewView[types.DashboardStats](c),
		pieView:   cache.NewView[types.PieCharts](c),
		barView:   cache.NewView[types.BarCharts](c),
		lineView:  cache.NewView[types.LineCharts](c),
	}
}

func (s *StatsService) Dashboard(ctx context.Context) (types.DashboardStats, error) {
	return s.statsView.GetOrCompute(ctx, cache.KeyAdminStats, s.computeDashboard)
}

func (s *StatsService) PieCharts(ctx context.Context) (types.PieCharts, error) {
	return s.pieView.GetOrCompute(ctx, cache.KeyAdminPieCharts, s.computePieCharts)
}

func (s *StatsService) BarCharts(ctx context.Context) (types.BarCharts, error) {
	return s.barView.GetOrCompute(ctx, cache.KeyAdminBarCharts, s.computeBarCharts)
}

func (s *StatsService) LineCharts(ctx context.Context) (types.LineCharts, error) {
	return s.lineView.GetOrCompute(ctx, cache.KeyAdminLineCharts, s.computeLineCharts)
}

// Warmup recomputes every admin aggregate so the first dashboard request
// after an eviction does not pay the scan cost. Used by the scheduled warmup
// job.
func (s *StatsService) Warmup(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { _, err := s.Dashboard(groupCtx); return err })
	group.Go(func() error { _, err := s.PieCharts(groupCtx); return err })
	group.Go(func() error { _, err := s.BarCharts(groupCtx); return err })
	group.Go(func() error { _, err := s.LineCharts(groupCtx); return err })
	return group.Wait()
}

func (s *StatsService) computeDashboard(ctx context.Context) (types.DashboardStats, error) {
	data, err := s.computeAll(ctx)
	if err != nil {
		return types.DashboardStats{}, err
	}

	now := time.Now()
	thisMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := thisMonthStart.AddDate(0, -1, 0)

	stats := types.DashboardStats{
		PercentChange: types.PercentChange{
			Revenue: percentChange(
				sumTotals(ordersBetween(data.orders, thisMonthStart, now)),
				sumTotals(ordersBetween(data.orders, lastMonthStart, thisMonthStart)),
			),
			Product: percentChange(
				float64(countCreatedBetween(productTimes(data.products), thisMonthStart, now)),
				float64(countCreatedBetween(productTimes(data.products), lastMonthStart, thisMonthStart)),
			),
			User: percentChange(
				float64(countCreatedBetween(userTimes(data.users), thisMonthStart, now)),
				float64(countCreatedBetween(userTimes(data.users), lastMonthStart, thisMonthStart)),
			),
			Order: percentChange(
				float64(countCreatedBetween(orderTimes(data.orders), thisMonthStart, now)),
				float64(countCreatedBetween(orderTimes(data.orders), lastMonthStart, thisMonthStart)),
			),
		},
		Count: types.EntityCount{
			Revenue: sumTotals(data.orders),
			User:    int64(len(data.users)),
			Product: int64(len(data.products)),
			Order:   int64(len(data.orders)),
		},
		Chart: types.MonthlyChart{
			Order:   monthlyCounts(orderTimes(data.orders), 6, now),
			Revenue: monthlySums(data.orders, 6, now, func(o types.Order) float64 { return o.Total }),
		},
	}

	stats.CategoryCount = categoryShares(data.products)

	for _, user := range data.users {
		switch user.Gender {
		case "male":
			stats.UserRatio.Male++
		case "female":
			stats.UserRatio.Female++
		}
	}

	latest := data.orders
	if len(latest) > 4 {
		latest = latest[:4]
	}
	stats.LatestTransactions = make([]types.TransactionSummary, 0, len(latest))
	for _, order := range latest {
		stats.LatestTransactions = append(stats.LatestTransactions, types.TransactionSummary{
			ID:       order.ID,
			Discount: order.Discount,
			Amount:   order.Total,
			Status:   order.Status,
			Quantity: len(order.OrderItems),
		})
	}

	return stats, nil
}

func (s *StatsService) computePieCharts(ctx context.Context) (types.PieCharts, error) {
	data, err := s.computeAll(ctx)
	if err != nil {
		return types.PieCharts{}, err
	}

	pie := types.PieCharts{}

	for _, order := range data.orders {
		switch order.Status {
		case types.OrderStatusProcessing:
			pie.OrderFulfillment.Processing++
		case types.OrderStatusShipped:
			pie.OrderFulfillment.Shipped++
		case types.OrderStatusDelivered:
			pie.OrderFulfillment.Delivered++
		}
	}

	pie.ProductCategories = categoryCounts(data.products)

	for _, product := range data.products {
		if product.Stock > 0 {
			pie.StockAvailability.InStock++
		} else {
			pie.StockAvailability.OutOfStock++
		}
	}

	var grossIncome, discount, productionCost, burnt float64
	for _, order := range data.orders {
		grossIncome += order.Total
		discount += order.Discount
		productionCost += order.ShippingCharges
		burnt += order.Tax
	}
	marketingCost := math.Round(grossIncome * 0.3)
	pie.RevenueDistribution = types.RevenueDistribution{
		NetMargin:      grossIncome - discount - productionCost - burnt - marketingCost,
		Discount:       discount,
		ProductionCost: productionCost,
		Burnt:          burnt,
		MarketingCost:  marketingCost,
	}

	for _, user := range data.users {
		age, ok := userAge(user, time.Now())
		if !ok {
			continue
		}
		switch {
		case age < 20:
			pie.UsersAgeGroup.Teen++
		case age <= 40:
			pie.UsersAgeGroup.Adult++
		default:
			pie.UsersAgeGroup.Old++
		}
	}

	for _, user := range data.users {
		if user.Role == "admin" {
			pie.AdminCustomers.Admin++
		} else {
			pie.AdminCustomers.Customer++
		}
	}

	return pie, nil
}

func (s *StatsService) computeBarCharts(ctx context.Context) (types.BarCharts, error) {
	data, err := s.computeAll(ctx)
	if err != nil {
		return types.BarCharts{}, err
	}

	now := time.Now()
	return types.BarCharts{
		Users:    monthlyCounts(userTimes(data.users), 6, now),
		Products: monthlyCounts(productTimes(data.products), 6, now),
		Orders:   monthlyCounts(orderTimes(data.orders), 12, now),
	}, nil
}

func (s *StatsService) computeLineCharts(ctx context.Context) (types.LineCharts, error) {
	data, err := s.computeAll(ctx)
	if err != nil {
		return types.LineCharts{}, err
	}

	now := time.Now()
	return types.LineCharts{
		Users:    monthlyCounts(userTimes(data.users), 12, now),
		Products: monthlyCounts(productTimes(data.products), 12, now),
		Discount: monthlySums(data.orders, 12, now, func(o types.Order) float64 { return o.Discount }),
		Revenue:  monthlySums(data.orders, 12, now, func(o types.Order) float64 { return o.Total }),
	}, nil
}

type statsSource struct {
	products []types.Product
	users    []types.User
	orders   []types.Order
}

func (s *StatsService) computeAll(ctx context.Context) (statsSource, error) {
	var data statsSource

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		docs, err := s.store.Find(groupCtx, types.FindQuery{Collection: types.CollectionProducts})
		if err != nil {
			return err
		}
		data.products, err = decodeProducts(docs)
		return err
	})

	group.Go(func() error {
		docs, err := s.store.Find(groupCtx, types.FindQuery{
			Collection: types.CollectionOrders,
			Sort:       map[string]int{"cr_time": types.SortDesc},
		})
		if err != nil {
			return err
		}
		data.orders, err = decodeOrders(docs)
		return err
	})

	group.Go(func() error {
		docs, err := s.store.Find(groupCtx, types.FindQuery{Collection: types.CollectionUsers})
		if err != nil {
			return err
		}
		data.users, err = decodeUsers(docs)
		return err
	})

	if err := group.Wait(); err != nil {
		return statsSource{}, err
	}

	return data, nil
}

// percentChange expresses this month's volume relative to last month's. An
// empty previous month scales the current value instead of dividing by zero.
func percentChange(thisMonth, lastMonth float64) float64 {
	if lastMonth == 0 {
		return thisMonth * 100
	}
	return math.Round(thisMonth / lastMonth * 100)
}

// monthlyCounts buckets creation times into the trailing window, oldest
// first. Offsets are computed modulo 12 on month numbers only, so a record
// whose month matches a bucket is counted regardless of year; records falling
// outside the window are discarded.
func monthlyCounts(times []time.Time, window int, now time.Time) []int64 {
	buckets := make([]int64, window)
	for _, t := range times {
		offset := monthOffset(now, t)
		if offset < window {
			buckets[window-offset-1]++
		}
	}
	return buckets
}

func monthlySums(orders []types.Order, window int, now time.Time, value func(types.Order) float64) []float64 {
	buckets := make([]float64, window)
	for _, order := range orders {
		offset := monthOffset(now, order.CreatedAt())
		if offset < window {
			buckets[window-offset-1] += value(order)
		}
	}
	return buckets
}

func monthOffset(now, t time.Time) int {
	return (int(now.Month()) - int(t.Month()) + 12) % 12
}

func countCreatedBetween(times []time.Time, start, end time.Time) int64 {
	var count int64
	for _, t := range times {
		if !t.Before(start) && t.Before(end) {
			count++
		}
	}
	return count
}

func ordersBetween(orders []types.Order, start, end time.Time) []types.Order {
	var out []types.Order
	for _, order := range orders {
		created := order.CreatedAt()
		if !created.Before(start) && created.Before(end) {
			out = append(out, order)
		}
	}
	return out
}

func sumTotals(orders []types.Order) float64 {
	var total float64
	for _, order := range orders {
		total += order.Total
	}
	return total
}

func categoryCounts(products []types.Product) []map[string]int64 {
	counts := map[string]int64{}
	var order []string
	for _, product := range products {
		if _, seen := counts[product.Category]; !seen {
			order = append(order, product.Category)
		}
		counts[product.Category]++
	}

	out := make([]map[string]int64, 0, len(order))
	for _, category := range order {
		out = append(out, map[string]int64{category: counts[category]})
	}
	return out
}

// categoryShares reports each category as a whole percentage of the catalog.
func categoryShares(products []types.Product) []map[string]int64 {
	total := int64(len(products))
	if total == 0 {
		return []map[string]int64{}
	}

	out := categoryCounts(products)
	for _, entry := range out {
		for category, count := range entry {
			entry[category] = int64(math.Round(float64(count) / float64(total) * 100))
		}
	}
	return out
}

func userAge(user types.User, now time.Time) (int, bool) {
	dob, err := time.Parse("2006-01-02", user.DOB)
	if err != nil {
		return 0, false
	}

	age := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		age--
	}
	return age, true
}

func productTimes(products []types.Product) []time.Time {
	times := make([]time.Time, 0, len(products))
	for _, p := range products {
		times = append(times, p.CreatedAt())
	}
	return times
}

func userTimes(users []types.User) []time.Time {
	times := make([]time.Time, 0, len(users))
	for _, u := range users {
		times = append(times, u.CreatedAt())
	}
	return times
}

func orderTimes(orders []types.Order) []time.Time {
	times := make([]time.Time, 0, len(orders))
	for _, o := range orders {
		times = append(times, o.CreatedAt())
	}
	return times
}
