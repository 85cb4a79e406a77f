package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/config"
	"github.com/saiset-co/sai-commerce/logger"
)

func newTestServer(t *testing.T) *FastHTTPServer {
	t.Helper()

	s, err := NewHTTPServer(context.Background(), config.NewManager(""),
		logger.NewZapWrapper(zap.NewNop()), nil, nil)
	require.NoError(t, err)

	return s
}

func requestCtx(method, uri string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	return ctx
}

func TestStaticRouteMatch(t *testing.T) {
	s := newTestServer(t)

	hit := false
	s.GET("/api/v1/product/latest", func(ctx *fasthttp.RequestCtx) { hit = true }, nil)

	s.mainHandler()(requestCtx(fasthttp.MethodGet, "/api/v1/product/latest"))
	assert.True(t, hit)
}

func TestStaticRouteWinsOverDynamic(t *testing.T) {
	s := newTestServer(t)

	var matched string
	s.GET("/api/v1/product/latest", func(ctx *fasthttp.RequestCtx) { matched = "static" }, nil)
	s.GET("/api/v1/product/{id}", func(ctx *fasthttp.RequestCtx) { matched = "dynamic" }, nil)

	s.mainHandler()(requestCtx(fasthttp.MethodGet, "/api/v1/product/latest"))
	assert.Equal(t, "static", matched)
}

func TestDynamicRouteExtractsParam(t *testing.T) {
	s := newTestServer(t)

	var id string
	s.GET("/api/v1/product/{id}", func(ctx *fasthttp.RequestCtx) {
		id, _ = ctx.UserValue("id").(string)
	}, nil)

	s.mainHandler()(requestCtx(fasthttp.MethodGet, "/api/v1/product/abc-123"))
	assert.Equal(t, "abc-123", id)
}

func TestRejectedCandidateLeavesNoParams(t *testing.T) {
	s := newTestServer(t)

	// Matches {section} before failing on the "export" literal.
	s.GET("/api/v1/{section}/export", func(ctx *fasthttp.RequestCtx) {}, nil)

	var section, id string
	s.GET("/api/v1/order/{id}", func(ctx *fasthttp.RequestCtx) {
		section, _ = ctx.UserValue("section").(string)
		id, _ = ctx.UserValue("id").(string)
	}, nil)

	s.mainHandler()(requestCtx(fasthttp.MethodGet, "/api/v1/order/o1"))
	assert.Equal(t, "o1", id)
	assert.Empty(t, section, "params from rejected candidates must not leak")
}

func TestMethodMismatchIsNotFound(t *testing.T) {
	s := newTestServer(t)

	s.GET("/api/v1/order/{id}", func(ctx *fasthttp.RequestCtx) {}, nil)

	ctx := requestCtx(fasthttp.MethodDelete, "/api/v1/order/o1")
	s.mainHandler()(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)

	ctx := requestCtx(fasthttp.MethodGet, "/nope")
	s.mainHandler()(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestTrailingSlashNormalized(t *testing.T) {
	s := newTestServer(t)

	hit := false
	s.GET("/health", func(ctx *fasthttp.RequestCtx) { hit = true }, nil)

	s.mainHandler()(requestCtx(fasthttp.MethodGet, "/health/"))
	assert.True(t, hit)
}

func TestSplitPath(t *testing.T) {
	assert.Empty(t, splitPath("/"))
	assert.Equal(t, []string{"api", "v1", "order"}, splitPath("/api/v1/order"))
	assert.Equal(t, []string{"health"}, splitPath("health"))
}
