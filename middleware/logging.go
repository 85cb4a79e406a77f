package middleware

import (
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

type LoggingMiddleware struct {
	config        types.ConfigManager
	logger        types.Logger
	metrics       types.MetricsManager
	loggingConfig *LoggingConfig
	name          string
	weight        int
}

type LoggingConfig struct {
	SlowThresholdMs int  `json:"slow_threshold_ms"`
	LogBodies       bool `json:"log_bodies"`
}

func NewLoggingMiddleware(config types.ConfigManager, logger types.Logger, metrics types.MetricsManager) *LoggingMiddleware {
	var loggingConfig = &LoggingConfig{
		SlowThresholdMs: 1000,
	}

	if config.GetConfig().Middlewares.Logging.Params != nil {
		err := utils.UnmarshalConfig(config.GetConfig().Middlewares.Logging.Params, loggingConfig)
		if err != nil {
			logger.Error("Failed to unmarshal Logging middleware config", zap.Error(err))
		}
	}

	return &LoggingMiddleware{
		name:          "logging",
		weight:        config.GetConfig().Middlewares.Logging.Weight,
		config:        config,
		logger:        logger,
		metrics:       metrics,
		loggingConfig: loggingConfig,
	}
}

func (l *LoggingMiddleware) Name() string { return l.name }
func (l *LoggingMiddleware) Weight() int  { return l.weight }

func (l *LoggingMiddleware) Handle(ctx *fasthttp.RequestCtx, next func(*fasthttp.RequestCtx), _ *types.RouteConfig) {
	start := time.Now()

	next(ctx)

	duration := time.Since(start)
	status := ctx.Response.StatusCode()

	fields := []zap.Field{
		zap.ByteString("method", ctx.Method()),
		zap.ByteString("path", ctx.Path()),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	}

	switch {
	case status >= fasthttp.StatusInternalServerError:
		l.logger.Error("Request failed", fields...)
	case duration > time.Duration(l.loggingConfig.SlowThresholdMs)*time.Millisecond:
		l.logger.Warn("Slow request", fields...)
	default:
		l.logger.Debug("Request completed", fields...)
	}

	if l.metrics != nil {
		labels := map[string]string{
			"method": string(ctx.Method()),
			"status": strconv.Itoa(status),
		}
		l.metrics.Counter("http_requests_total", labels).Inc()
		l.metrics.Histogram("http_request_duration_seconds",
			[]float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
			map[string]string{"method": string(ctx.Method())},
		).Observe(duration.Seconds())
	}
}
