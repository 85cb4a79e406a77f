package middleware

import (
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

type CORSMiddleware struct {
	config     types.ConfigManager
	logger     types.Logger
	corsConfig *CORSConfig
	name       string
	weight     int

	allowMethods string
	allowHeaders string
	allowAll     bool
	origins      map[string]struct{}
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers"`
	MaxAge         int      `json:"max_age"`
}

func NewCORSMiddleware(config types.ConfigManager, logger types.Logger) *CORSMiddleware {
	var corsConfig = &CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Admin-Token"},
		MaxAge:         86400,
	}

	if config.GetConfig().Middlewares.CORS.Params != nil {
		err := utils.UnmarshalConfig(config.GetConfig().Middlewares.CORS.Params, corsConfig)
		if err != nil {
			logger.Error("Failed to unmarshal CORS middleware config", zap.Error(err))
		}
	}

	cm := &CORSMiddleware{
		name:         "cors",
		weight:       config.GetConfig().Middlewares.CORS.Weight,
		config:       config,
		logger:       logger,
		corsConfig:   corsConfig,
		allowMethods: strings.Join(corsConfig.AllowedMethods, ", "),
		allowHeaders: strings.Join(corsConfig.AllowedHeaders, ", "),
		origins:      make(map[string]struct{}, len(corsConfig.AllowedOrigins)),
	}

	for _, origin := range corsConfig.AllowedOrigins {
		if origin == "*" {
			cm.allowAll = true
		}
		cm.origins[origin] = struct{}{}
	}

	return cm
}

func (c *CORSMiddleware) Name() string { return c.name }
func (c *CORSMiddleware) Weight() int  { return c.weight }

func (c *CORSMiddleware) Handle(ctx *fasthttp.RequestCtx, next func(*fasthttp.RequestCtx), _ *types.RouteConfig) {
	origin := string(ctx.Request.Header.Peek("Origin"))

	if origin != "" && c.originAllowed(origin) {
		if c.allowAll {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
		} else {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
			ctx.Response.Header.Set("Vary", "Origin")
		}
		ctx.Response.Header.Set("Access-Control-Allow-Methods", c.allowMethods)
		ctx.Response.Header.Set("Access-Control-Allow-Headers", c.allowHeaders)
	}

	if string(ctx.Method()) == fasthttp.MethodOptions {
		if c.corsConfig.MaxAge > 0 {
			ctx.Response.Header.Set("Access-Control-Max-Age", strconv.Itoa(c.corsConfig.MaxAge))
		}
		ctx.SetStatusCode(fasthttp.StatusNoContent)
		return
	}

	next(ctx)
}

func (c *CORSMiddleware) originAllowed(origin string) bool {
	if c.allowAll {
		return true
	}
	_, ok := c.origins[origin]
	return ok
}
