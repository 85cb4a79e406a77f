package handlers

import (
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

func (h *Handlers) LatestProducts(ctx *fasthttp.RequestCtx) {
	products, err := h.products.Latest(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success":  true,
		"products": products,
	})
}

func (h *Handlers) AllProducts(ctx *fasthttp.RequestCtx) {
	products, err := h.products.All(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success":  true,
		"products": products,
	})
}

func (h *Handlers) ProductCategories(ctx *fasthttp.RequestCtx) {
	categories, err := h.products.Categories(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": categories,
	})
}

func (h *Handlers) SearchProducts(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	price, _ := strconv.ParseFloat(string(args.Peek("price")), 64)
	page, _ := strconv.Atoi(string(args.Peek("page")))

	result, err := h.products.Search(ctx, types.ProductSearchQuery{
		Search:   string(args.Peek("search")),
		Price:    price,
		Category: string(args.Peek("category")),
		Sort:     string(args.Peek("sort")),
		Page:     page,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success":     true,
		"products":    result.Products,
		"total_pages": result.TotalPages,
	})
}

func (h *Handlers) GetProduct(ctx *fasthttp.RequestCtx) {
	product, err := h.products.Get(ctx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"product": product,
	})
}

func (h *Handlers) CreateProduct(ctx *fasthttp.RequestCtx) {
	var req types.NewProductRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	product, err := h.products.Create(ctx, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.publish("product.created", product)

	utils.WriteJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"success": true,
		"product": product,
	})
}

func (h *Handlers) UpdateProduct(ctx *fasthttp.RequestCtx) {
	var req types.UpdateProductRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	product, err := h.products.Update(ctx, pathParam(ctx, "id"), req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.publish("product.updated", product)

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"product": product,
	})
}

func (h *Handlers) DeleteProduct(ctx *fasthttp.RequestCtx) {
	id := pathParam(ctx, "id")

	if err := h.products.Delete(ctx, id); err != nil {
		h.respondError(ctx, err)
		return
	}

	h.publish("product.deleted", map[string]string{"internal_id": id})

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"message": "product deleted successfully",
	})
}
