package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/logger"
	"github.com/saiset-co/sai-commerce/types"
)

type staticConfig struct {
	config *types.ServiceConfig
}

func (s *staticConfig) Load() error                    { return nil }
func (s *staticConfig) GetConfig() *types.ServiceConfig { return s.config }

func newAuthFixture(token string) *AuthMiddleware {
	cfg := &types.ServiceConfig{
		Middlewares: &types.MiddlewaresConfig{AdminToken: token},
	}
	return NewAuthMiddleware(&staticConfig{config: cfg}, logger.NewZapWrapper(zap.NewNop()))
}

func runAuth(a *AuthMiddleware, ctx *fasthttp.RequestCtx, routeConfig *types.RouteConfig) bool {
	passed := false
	a.Handle(ctx, func(ctx *fasthttp.RequestCtx) { passed = true }, routeConfig)
	return passed
}

func TestAuthPublicRoutePassesThrough(t *testing.T) {
	a := newAuthFixture("secret")
	ctx := &fasthttp.RequestCtx{}

	assert.True(t, runAuth(a, ctx, nil))
	assert.True(t, runAuth(a, &fasthttp.RequestCtx{}, &types.RouteConfig{}))
}

func TestAuthAdminRouteRejectsMissingToken(t *testing.T) {
	a := newAuthFixture("secret")
	ctx := &fasthttp.RequestCtx{}

	assert.False(t, runAuth(a, ctx, &types.RouteConfig{AdminOnly: true}))
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestAuthAdminRouteRejectsWrongToken(t *testing.T) {
	a := newAuthFixture("secret")
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("X-Admin-Token", "wrong")

	assert.False(t, runAuth(a, ctx, &types.RouteConfig{AdminOnly: true}))
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestAuthAdminRouteAcceptsHeaderToken(t *testing.T) {
	a := newAuthFixture("secret")
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("X-Admin-Token", "secret")

	assert.True(t, runAuth(a, ctx, &types.RouteConfig{AdminOnly: true}))
}

func TestAuthAdminRouteAcceptsQueryToken(t *testing.T) {
	a := newAuthFixture("secret")
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/v1/dashboard/stats?key=secret")

	assert.True(t, runAuth(a, ctx, &types.RouteConfig{AdminOnly: true}))
}

func TestAuthEmptyConfiguredTokenLocksAdmin(t *testing.T) {
	a := newAuthFixture("")
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("X-Admin-Token", "")

	assert.False(t, runAuth(a, ctx, &types.RouteConfig{AdminOnly: true}))
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
}
