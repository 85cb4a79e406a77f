package handlers

import (
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

func (h *Handlers) CreateCoupon(ctx *fasthttp.RequestCtx) {
	var req types.NewCouponRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	coupon, err := h.coupons.Create(ctx, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"success": true,
		"coupon":  coupon,
	})
}

// ApplyCoupon resolves ?coupon=CODE to its discount amount at checkout.
func (h *Handlers) ApplyCoupon(ctx *fasthttp.RequestCtx) {
	code := string(ctx.QueryArgs().Peek("coupon"))
	if code == "" {
		h.respondError(ctx, types.Errorf(types.ErrValidationFailed, "missing coupon code"))
		return
	}

	discount, err := h.coupons.Discount(ctx, code)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success":  true,
		"discount": discount,
	})
}

func (h *Handlers) AllCoupons(ctx *fasthttp.RequestCtx) {
	coupons, err := h.coupons.All(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"coupons": coupons,
	})
}

func (h *Handlers) DeleteCoupon(ctx *fasthttp.RequestCtx) {
	if err := h.coupons.Delete(ctx, pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"message": "coupon deleted successfully",
	})
}
