package middleware

import (
	"crypto/subtle"

	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

// AuthMiddleware guards admin-only routes with a shared token compared in
// constant time. Routes without AdminOnly pass through untouched.
type AuthMiddleware struct {
	config types.ConfigManager
	logger types.Logger
	name   string
	weight int
	token  []byte
}

const authWeight = 30

func NewAuthMiddleware(config types.ConfigManager, logger types.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		name:   "auth",
		weight: authWeight,
		config: config,
		logger: logger,
		token:  []byte(config.GetConfig().Middlewares.AdminToken),
	}
}

func (a *AuthMiddleware) Name() string { return a.name }
func (a *AuthMiddleware) Weight() int  { return a.weight }

func (a *AuthMiddleware) Handle(ctx *fasthttp.RequestCtx, next func(*fasthttp.RequestCtx), config *types.RouteConfig) {
	if config == nil || !config.AdminOnly {
		next(ctx)
		return
	}

	if len(a.token) == 0 {
		utils.WriteError(ctx, fasthttp.StatusForbidden, "admin access is not configured")
		return
	}

	provided := ctx.Request.Header.Peek("X-Admin-Token")
	if len(provided) == 0 {
		provided = ctx.QueryArgs().Peek("key")
	}

	if subtle.ConstantTimeCompare(provided, a.token) != 1 {
		utils.WriteError(ctx, fasthttp.StatusUnauthorized, types.ErrAuthTokenInvalid.Error())
		return
	}

	next(ctx)
}
