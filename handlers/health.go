package handlers

import (
	"time"

	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

// HealthHandler reports liveness plus the running state of every registered
// component. It is deliberately separate from Handlers: health must answer
// even when the service layer is misconfigured.
type HealthHandler struct {
	started    time.Time
	components map[string]types.LifecycleManager
}

func NewHealthHandler(components map[string]types.LifecycleManager) *HealthHandler {
	return &HealthHandler{
		started:    time.Now(),
		components: components,
	}
}

func (h *HealthHandler) Register(server types.HTTPServer) {
	server.GET("/health", h.Health, nil)
}

func (h *HealthHandler) Health(ctx *fasthttp.RequestCtx) {
	status := "ok"
	states := make(map[string]string, len(h.components))

	for name, component := range h.components {
		if component == nil {
			continue
		}
		if component.IsRunning() {
			states[name] = "running"
		} else {
			states[name] = "stopped"
			status = "degraded"
		}
	}

	code := fasthttp.StatusOK
	if status == "degraded" {
		code = fasthttp.StatusServiceUnavailable
	}

	utils.WriteJSON(ctx, code, map[string]interface{}{
		"status":     status,
		"uptime":     time.Since(h.started).String(),
		"components": states,
	})
}
