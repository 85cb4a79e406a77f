package types

import (
	"net"

	"github.com/valyala/fasthttp"
)

type FastHTTPHandler func(ctx *fasthttp.RequestCtx)

type HTTPServer interface {
	LifecycleManager
	Add(method, path string, handler FastHTTPHandler, config *RouteConfig)
	GET(path string, handler FastHTTPHandler, config *RouteConfig)
	POST(path string, handler FastHTTPHandler, config *RouteConfig)
	PUT(path string, handler FastHTTPHandler, config *RouteConfig)
	DELETE(path string, handler FastHTTPHandler, config *RouteConfig)
}

type RouteConfig struct {
	AdminOnly           bool
	DisabledMiddlewares []string
}

type Middleware interface {
	Handle(ctx *fasthttp.RequestCtx, next func(*fasthttp.RequestCtx), config *RouteConfig)
	Name() string
	Weight() int
}

type MiddlewareManager interface {
	Register(middleware Middleware) error
	Execute(ctx *fasthttp.RequestCtx, handler func(*fasthttp.RequestCtx), config *RouteConfig)
}

type TLSManager interface {
	LifecycleManager
	Listen(addr string) (net.Listener, error)
}
