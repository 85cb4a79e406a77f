package server

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

type route struct {
	method   string
	pattern  string
	handler  types.FastHTTPHandler
	config   *types.RouteConfig
	segments []string
	params   []string
	dynamic  bool
}

// FastHTTPServer routes requests over a static map plus a segment matcher for
// patterns with {param} placeholders. Routes are registered before Start and
// never change afterwards.
type FastHTTPServer struct {
	ctx             context.Context
	cancel          context.CancelFunc
	config          types.ConfigManager
	logger          types.Logger
	middlewares     types.MiddlewareManager
	tlsManager      types.TLSManager
	server          *fasthttp.Server
	listener        net.Listener
	httpConfig      *types.HTTPConfig
	tlsConfig       *types.TLSConfig
	state           atomic.Value
	shutdownTimeout time.Duration

	mu            sync.RWMutex
	staticRoutes  map[string]*route
	dynamicRoutes []*route
}

func NewHTTPServer(
	ctx context.Context,
	config types.ConfigManager,
	logger types.Logger,
	middlewares types.MiddlewareManager,
	tlsManager types.TLSManager) (*FastHTTPServer, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	serverConfig := config.GetConfig().Server

	server := &FastHTTPServer{
		ctx:             serverCtx,
		cancel:          cancel,
		config:          config,
		logger:          logger,
		middlewares:     middlewares,
		tlsManager:      tlsManager,
		httpConfig:      serverConfig.HTTP,
		tlsConfig:       serverConfig.TLS,
		shutdownTimeout: time.Duration(serverConfig.HTTP.ShutdownTimeout) * time.Second,
		staticRoutes:    make(map[string]*route),
	}

	if server.shutdownTimeout <= 0 {
		server.shutdownTimeout = 5 * time.Second
	}

	server.state.Store(StateStopped)
	return server, nil
}

func (h *FastHTTPServer) Add(method, path string, handler types.FastHTTPHandler, config *types.RouteConfig) {
	if config == nil {
		config = &types.RouteConfig{}
	}

	r := &route{
		method:  method,
		pattern: path,
		handler: handler,
		config:  config,
	}

	r.segments = splitPath(path)
	for _, segment := range r.segments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			r.dynamic = true
			r.params = append(r.params, segment[1:len(segment)-1])
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if r.dynamic {
		h.dynamicRoutes = append(h.dynamicRoutes, r)
	} else {
		h.staticRoutes[method+":"+normalizePath(path)] = r
	}
}

func (h *FastHTTPServer) GET(path string, handler types.FastHTTPHandler, config *types.RouteConfig) {
	h.Add(fasthttp.MethodGet, path, handler, config)
}

func (h *FastHTTPServer) POST(path string, handler types.FastHTTPHandler, config *types.RouteConfig) {
	h.Add(fasthttp.MethodPost, path, handler, config)
}

func (h *FastHTTPServer) PUT(path string, handler types.FastHTTPHandler, config *types.RouteConfig) {
	h.Add(fasthttp.MethodPut, path, handler, config)
}

func (h *FastHTTPServer) DELETE(path string, handler types.FastHTTPHandler, config *types.RouteConfig) {
	h.Add(fasthttp.MethodDelete, path, handler, config)
}

func (h *FastHTTPServer) Start() error {
	if !h.transitionState(StateStopped, StateStarting) {
		return types.ErrServerAlreadyRunning
	}

	defer func() {
		if h.getState() == StateStarting {
			h.setState(StateRunning)
		}
	}()

	h.server = &fasthttp.Server{
		Handler:                      h.mainHandler(),
		ReadTimeout:                  time.Duration(h.httpConfig.ReadTimeout) * time.Second,
		WriteTimeout:                 time.Duration(h.httpConfig.WriteTimeout) * time.Second,
		IdleTimeout:                  time.Duration(h.httpConfig.IdleTimeout) * time.Second,
		TCPKeepalive:                 true,
		DisablePreParseMultipartForm: true,
		CloseOnShutdown:              true,
	}

	addr := fmt.Sprintf("%s:%d", h.httpConfig.Host, h.httpConfig.Port)

	var err error
	if h.tlsConfig != nil && h.tlsConfig.Enabled {
		h.listener, err = h.tlsManager.Listen(addr)
	} else {
		h.listener, err = net.Listen("tcp", addr)
	}
	if err != nil {
		h.setState(StateStopped)
		return types.WrapError(err, "failed to open listener")
	}

	go func() {
		if err := h.server.Serve(h.listener); err != nil {
			h.logger.Error("HTTP server failed", zap.Error(err))
			h.setState(StateStopped)
		}
	}()

	h.logger.Info("HTTP server started successfully",
		zap.String("address", addr),
		zap.Bool("tls", h.tlsConfig != nil && h.tlsConfig.Enabled))

	return nil
}

func (h *FastHTTPServer) Stop() error {
	if !h.transitionState(StateRunning, StateStopping) {
		return types.ErrServerNotRunning
	}

	defer func() {
		h.setState(StateStopped)
		h.cancel()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	if h.server != nil {
		if err := h.server.ShutdownWithContext(ctx); err != nil {
			h.logger.Warn("Server stop timeout, connections may have been dropped", zap.Error(err))
			return nil
		}
	}

	h.logger.Info("HTTP server stopped gracefully")
	return nil
}

func (h *FastHTTPServer) IsRunning() bool {
	return h.getState() == StateRunning
}

func (h *FastHTTPServer) mainHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		method := string(ctx.Method())
		path := normalizePath(string(ctx.Path()))

		h.mu.RLock()
		r := h.staticRoutes[method+":"+path]
		h.mu.RUnlock()

		if r == nil {
			r = h.matchDynamic(ctx, method, path)
		}

		if r == nil {
			if method == fasthttp.MethodOptions {
				h.execute(ctx, func(ctx *fasthttp.RequestCtx) {}, &types.RouteConfig{})
				return
			}
			ctx.Error(types.ErrRouteNotFound.Error(), fasthttp.StatusNotFound)
			return
		}

		h.execute(ctx, r.handler, r.config)
	}
}

func (h *FastHTTPServer) matchDynamic(ctx *fasthttp.RequestCtx, method, path string) *route {
	segments := splitPath(path)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, r := range h.dynamicRoutes {
		if r.method != method || len(r.segments) != len(segments) {
			continue
		}

		// Params are buffered until the whole candidate matches, so a route
		// rejected on a later literal leaves no user values behind.
		params := make([]string, 0, len(r.params))
		matched := true
		for i, routeSegment := range r.segments {
			if strings.HasPrefix(routeSegment, "{") {
				params = append(params, segments[i])
				continue
			}
			if routeSegment != segments[i] {
				matched = false
				break
			}
		}

		if matched {
			for i, name := range r.params {
				ctx.SetUserValue(name, params[i])
			}
			return r
		}
	}

	return nil
}

func (h *FastHTTPServer) execute(ctx *fasthttp.RequestCtx, handler types.FastHTTPHandler, config *types.RouteConfig) {
	if h.middlewares != nil {
		h.middlewares.Execute(ctx, func(ctx *fasthttp.RequestCtx) { handler(ctx) }, config)
		return
	}
	handler(ctx)
}

func (h *FastHTTPServer) getState() State {
	return h.state.Load().(State)
}

func (h *FastHTTPServer) setState(newState State) bool {
	return h.state.CompareAndSwap(h.getState(), newState)
}

func (h *FastHTTPServer) transitionState(from, to State) bool {
	return h.state.CompareAndSwap(from, to)
}

func normalizePath(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return strings.TrimRight(path, "/")
	}
	return path
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}
