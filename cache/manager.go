package cache

import (
	"context"
	"time"

	"github.com/saiset-co/sai-commerce/types"
)

// Sweeper is implemented by caches that hold expired entries until an
// explicit cleanup pass. The redis backend expires natively and does not
// implement it.
type Sweeper interface {
	Sweep() int
}

func NewCache(ctx context.Context, config types.ConfigManager, logger types.Logger, metrics types.MetricsManager) (types.Cache, error) {
	cacheConfig := config.GetConfig().Cache

	var impl types.Cache
	var err error

	switch cacheConfig.Type {
	case "memory", "":
		impl, err = NewMemoryCache(ctx, logger, cacheConfig)
	case "redis":
		impl, err = NewRedisCache(ctx, logger, cacheConfig)
	default:
		return nil, types.Errorf(types.ErrCacheTypeUnknown, "type: %s", cacheConfig.Type)
	}

	if err != nil {
		return nil, err
	}

	if metrics == nil {
		return impl, nil
	}

	return newInstrumentedCache(metrics, impl), nil
}

type instrumentedCache struct {
	impl    types.Cache
	metrics types.MetricsManager
}

func newInstrumentedCache(metrics types.MetricsManager, impl types.Cache) types.Cache {
	return &instrumentedCache{
		impl:    impl,
		metrics: metrics,
	}
}

func (ic *instrumentedCache) Get(key string) ([]byte, bool) {
	start := time.Now()
	value, exists := ic.impl.Get(key)

	result := "miss"
	if exists {
		result = "hit"
	}

	ic.recordMetric("get", result, time.Since(start))
	return value, exists
}

func (ic *instrumentedCache) Set(key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := ic.impl.Set(key, value, ttl)

	ic.recordMetric("set", resultLabel(err), time.Since(start))
	return err
}

func (ic *instrumentedCache) Has(key string) bool {
	return ic.impl.Has(key)
}

func (ic *instrumentedCache) Delete(keys ...string) error {
	start := time.Now()
	err := ic.impl.Delete(keys...)

	ic.recordMetric("delete", resultLabel(err), time.Since(start))
	return err
}

func (ic *instrumentedCache) Start() error {
	return ic.impl.Start()
}

func (ic *instrumentedCache) Stop() error {
	return ic.impl.Stop()
}

func (ic *instrumentedCache) IsRunning() bool {
	return ic.impl.IsRunning()
}

func (ic *instrumentedCache) Sweep() int {
	sweeper, ok := ic.impl.(Sweeper)
	if !ok {
		return 0
	}

	swept := sweeper.Sweep()
	if swept > 0 {
		ic.metrics.Counter("cache_operations_total", map[string]string{
			"operation": "sweep",
			"result":    "success",
		}).Add(float64(swept))
	}
	return swept
}

func (ic *instrumentedCache) recordMetric(operation, result string, duration time.Duration) {
	ic.metrics.Counter("cache_operations_total", map[string]string{
		"operation": operation,
		"result":    result,
	}).Inc()

	ic.metrics.Histogram("cache_operation_duration_seconds",
		[]float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		map[string]string{"operation": operation},
	).Observe(duration.Seconds())
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
