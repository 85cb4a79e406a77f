package middleware

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

type BodyLimitMiddleware struct {
	config          types.ConfigManager
	logger          types.Logger
	bodyLimitConfig *BodyLimitConfig
	name            string
	weight          int
}

type BodyLimitConfig struct {
	MaxBodySize int `json:"max_body_size"`
}

func NewBodyLimitMiddleware(config types.ConfigManager, logger types.Logger) *BodyLimitMiddleware {
	var bodyLimitConfig = &BodyLimitConfig{
		MaxBodySize: 4 * 1024 * 1024,
	}

	if config.GetConfig().Middlewares.BodyLimit.Params != nil {
		err := utils.UnmarshalConfig(config.GetConfig().Middlewares.BodyLimit.Params, bodyLimitConfig)
		if err != nil {
			logger.Error("Failed to unmarshal BodyLimit middleware config", zap.Error(err))
		}
	}

	return &BodyLimitMiddleware{
		name:            "bodylimit",
		weight:          config.GetConfig().Middlewares.BodyLimit.Weight,
		config:          config,
		logger:          logger,
		bodyLimitConfig: bodyLimitConfig,
	}
}

func (b *BodyLimitMiddleware) Name() string { return b.name }
func (b *BodyLimitMiddleware) Weight() int  { return b.weight }

func (b *BodyLimitMiddleware) Handle(ctx *fasthttp.RequestCtx, next func(*fasthttp.RequestCtx), _ *types.RouteConfig) {
	if len(ctx.Request.Body()) > b.bodyLimitConfig.MaxBodySize {
		b.logger.Warn("Request body too large",
			zap.ByteString("path", ctx.Path()),
			zap.Int("size", len(ctx.Request.Body())),
			zap.Int("limit", b.bodyLimitConfig.MaxBodySize))
		utils.WriteError(ctx, fasthttp.StatusRequestEntityTooLarge, types.ErrBodyTooLarge.Error())
		return
	}

	next(ctx)
}
