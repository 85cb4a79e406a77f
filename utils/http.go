package utils

import (
	"github.com/valyala/fasthttp"
)

type apiError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func WriteJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := Marshal(payload)
	if err != nil {
		WriteError(ctx, fasthttp.StatusInternalServerError, "failed to encode response")
		return
	}

	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func WriteError(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := Marshal(apiError{Success: false, Message: message})

	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.Response.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	ctx.SetBody(body)
}
