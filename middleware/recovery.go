package middleware

import (
	"runtime"
	"sync"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

type RecoveryMiddleware struct {
	config         types.ConfigManager
	logger         types.Logger
	recoveryConfig *RecoveryConfig
	name           string
	weight         int
	stackBufPool   sync.Pool
}

type RecoveryConfig struct {
	StackTrace bool `json:"stack_trace"`
}

func NewRecoveryMiddleware(config types.ConfigManager, logger types.Logger) *RecoveryMiddleware {
	var recoveryConfig = &RecoveryConfig{
		StackTrace: true,
	}

	if config.GetConfig().Middlewares.Recovery.Params != nil {
		err := utils.UnmarshalConfig(config.GetConfig().Middlewares.Recovery.Params, recoveryConfig)
		if err != nil {
			logger.Error("Failed to unmarshal Recovery middleware config", zap.Error(err))
		}
	}

	return &RecoveryMiddleware{
		name:           "recovery",
		weight:         config.GetConfig().Middlewares.Recovery.Weight,
		config:         config,
		logger:         logger,
		recoveryConfig: recoveryConfig,

		stackBufPool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, 4096)
				return &buf
			},
		},
	}
}

func (r *RecoveryMiddleware) Name() string { return r.name }
func (r *RecoveryMiddleware) Weight() int  { return r.weight }

func (r *RecoveryMiddleware) Handle(ctx *fasthttp.RequestCtx, next func(*fasthttp.RequestCtx), _ *types.RouteConfig) {
	defer func() {
		if rec := recover(); rec != nil {
			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.String("remote_addr", ctx.RemoteIP().String()),
			}

			if r.recoveryConfig.StackTrace {
				fields = append(fields, zap.String("stack", r.stackTrace()))
			}

			r.logger.Error("Recovered from panic", fields...)
			utils.WriteError(ctx, fasthttp.StatusInternalServerError, "internal server error")
		}
	}()

	next(ctx)
}

func (r *RecoveryMiddleware) stackTrace() string {
	buf := r.stackBufPool.Get().(*[]byte)
	defer r.stackBufPool.Put(buf)

	n := runtime.Stack(*buf, false)
	if n == len(*buf) {
		bigger := make([]byte, 65536)
		n = runtime.Stack(bigger, false)
		return string(bigger[:n])
	}

	return string((*buf)[:n])
}
