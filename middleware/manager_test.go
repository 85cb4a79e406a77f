package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/config"
	"github.com/saiset-co/sai-commerce/logger"
	"github.com/saiset-co/sai-commerce/types"
)

type recordingMiddleware struct {
	name   string
	weight int
	calls  *[]string
}

func (r *recordingMiddleware) Name() string { return r.name }
func (r *recordingMiddleware) Weight() int  { return r.weight }

func (r *recordingMiddleware) Handle(ctx *fasthttp.RequestCtx, next func(*fasthttp.RequestCtx), config *types.RouteConfig) {
	*r.calls = append(*r.calls, r.name)
	next(ctx)
}

func testConfigManager() types.ConfigManager {
	return config.NewManager("")
}

func newTestManager() *Manager {
	return NewManager(testConfigManager(), logger.NewZapWrapper(zap.NewNop()), nil)
}

func TestExecuteRunsInWeightOrder(t *testing.T) {
	m := newTestManager()

	var calls []string
	require.NoError(t, m.Register(&recordingMiddleware{name: "last", weight: 90, calls: &calls}))
	require.NoError(t, m.Register(&recordingMiddleware{name: "first", weight: 10, calls: &calls}))
	require.NoError(t, m.Register(&recordingMiddleware{name: "middle", weight: 50, calls: &calls}))
	require.NoError(t, m.finalize())

	ctx := &fasthttp.RequestCtx{}
	m.Execute(ctx, func(ctx *fasthttp.RequestCtx) {
		calls = append(calls, "handler")
	}, nil)

	assert.Equal(t, []string{"first", "middle", "last", "handler"}, calls)
}

func TestFinalizeRejectsDuplicateWeights(t *testing.T) {
	m := newTestManager()

	var calls []string
	require.NoError(t, m.Register(&recordingMiddleware{name: "a", weight: 10, calls: &calls}))
	require.NoError(t, m.Register(&recordingMiddleware{name: "b", weight: 10, calls: &calls}))

	assert.Error(t, m.finalize())
}

func TestRegisterAfterFinalizeFails(t *testing.T) {
	m := newTestManager()

	var calls []string
	require.NoError(t, m.finalize())

	err := m.Register(&recordingMiddleware{name: "late", weight: 10, calls: &calls})
	assert.Error(t, err)
}

func TestDisabledMiddlewaresSkipped(t *testing.T) {
	m := newTestManager()

	var calls []string
	require.NoError(t, m.Register(&recordingMiddleware{name: "keep", weight: 10, calls: &calls}))
	require.NoError(t, m.Register(&recordingMiddleware{name: "skip", weight: 20, calls: &calls}))
	require.NoError(t, m.finalize())

	ctx := &fasthttp.RequestCtx{}
	m.Execute(ctx, func(ctx *fasthttp.RequestCtx) {
		calls = append(calls, "handler")
	}, &types.RouteConfig{DisabledMiddlewares: []string{"skip"}})

	assert.Equal(t, []string{"keep", "handler"}, calls)
}

func TestRegisterMiddlewaresFromDefaults(t *testing.T) {
	m := newTestManager()

	require.NoError(t, m.RegisterMiddlewares())

	// Defaults enable recovery, logging, body limit and CORS; auth is always
	// present. Compression is off by default.
	names := make([]string, 0, len(m.ordered))
	for _, mw := range m.ordered {
		names = append(names, mw.Name())
	}
	assert.Equal(t, []string{"recovery", "logging", "auth", "bodylimit", "cors"}, names)
}
