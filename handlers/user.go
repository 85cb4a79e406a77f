package handlers

import (
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

// CreateUser is idempotent: posting an existing profile returns it with a
// welcome-back message instead of an error, which is what OAuth sign-in
// flows expect.
func (h *Handlers) CreateUser(ctx *fasthttp.RequestCtx) {
	var req types.NewUserRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	user, created, err := h.users.Create(ctx, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	status := fasthttp.StatusOK
	message := "welcome back, " + user.Name
	if created {
		status = fasthttp.StatusCreated
		message = "welcome, " + user.Name
	}

	utils.WriteJSON(ctx, status, map[string]interface{}{
		"success": true,
		"message": message,
		"user":    user,
	})
}

func (h *Handlers) AllUsers(ctx *fasthttp.RequestCtx) {
	users, err := h.users.All(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
	})
}

func (h *Handlers) GetUser(ctx *fasthttp.RequestCtx) {
	user, err := h.users.Get(ctx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func (h *Handlers) DeleteUser(ctx *fasthttp.RequestCtx) {
	if err := h.users.Delete(ctx, pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success": true,
		"message": "user deleted successfully",
	})
}
