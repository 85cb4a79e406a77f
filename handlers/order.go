package handlers

import (
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

func (h *Handlers) CreateOrder(ctx *fasthttp.RequestCtx) {
	var req types.NewOrderRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	order, err := h.orders.Create(ctx, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.publish("order.created", order)

	utils.WriteJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "order placed successfully",
		"order":   order,
	})
}

// MyOrders lists orders for the user id passed as ?id=. The storefront is
// responsible for passing the signed-in user's id.
func (h *Handlers) MyOrders(ctx *fasthttp.RequestCtx) {
	userID := string(ctx.QueryArgs().Peek("id"))
	if userID == "" {
		h.respondError(ctx, types.Errorf(types.ErrValidationFailed, "missing user id"))
		return
	}

	orders, err := h.orders.ForUser(ctx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}

func (h *Handlers) AllOrders(ctx *fasthttp.RequestCtx) {
	orders, err := h.orders.All(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}

func (h *Handlers) GetOrder(ctx *fasthttp.RequestCtx) {
	order, err := h.orders.Get(ctx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

func (h *Handlers) ProcessOrder(ctx *fasthttp.RequestCtx) {
	order, err := h.orders.Process(ctx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.publish("order.status_changed", order)

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"message": "order processed successfully",
		"order":   order,
	})
}

func (h *Handlers) DeleteOrder(ctx *fasthttp.RequestCtx) {
	id := pathParam(ctx, "id")

	if err := h.orders.Delete(ctx, id); err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"message": "order deleted successfully",
	})
}
