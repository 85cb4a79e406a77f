package handlers

import (
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-commerce/utils"
)

func (h *Handlers) DashboardStats(ctx *fasthttp.RequestCtx) {
	stats, err := h.stats.Dashboard(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

func (h *Handlers) DashboardPie(ctx *fasthttp.RequestCtx) {
	charts, err := h.stats.PieCharts(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"charts":  charts,
	})
}

func (h *Handlers) DashboardBar(ctx *fasthttp.RequestCtx) {
	charts, err := h.stats.BarCharts(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"charts":  charts,
	})
}

func (h *Handlers) DashboardLine(ctx *fasthttp.RequestCtx) {
	charts, err := h.stats.LineCharts(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"charts":  charts,
	})
}
