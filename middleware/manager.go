package middleware

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-commerce/types"
)

// Manager keeps middlewares in a weight-ordered chain. Registration is only
// allowed before finalization; after that chains are immutable and executed
// lock-free.
type Manager struct {
	config      types.ConfigManager
	logger      types.Logger
	metrics     types.MetricsManager
	mu          sync.Mutex
	registered  map[string]types.Middleware
	ordered     []types.Middleware
	initialized int32
}

func NewManager(config types.ConfigManager, logger types.Logger, metrics types.MetricsManager) *Manager {
	return &Manager{
		config:     config,
		logger:     logger,
		metrics:    metrics,
		registered: make(map[string]types.Middleware),
	}
}

// RegisterMiddlewares wires every middleware enabled in the config and
// freezes the chain.
func (m *Manager) RegisterMiddlewares() error {
	config := m.config.GetConfig()

	if config.Middlewares.Recovery != nil && config.Middlewares.Recovery.Enabled {
		if err := m.Register(NewRecoveryMiddleware(m.config, m.logger)); err != nil {
			return err
		}
	}

	if config.Middlewares.Logging != nil && config.Middlewares.Logging.Enabled {
		if err := m.Register(NewLoggingMiddleware(m.config, m.logger, m.metrics)); err != nil {
			return err
		}
	}

	if config.Middlewares.CORS != nil && config.Middlewares.CORS.Enabled {
		if err := m.Register(NewCORSMiddleware(m.config, m.logger)); err != nil {
			return err
		}
	}

	if config.Middlewares.BodyLimit != nil && config.Middlewares.BodyLimit.Enabled {
		if err := m.Register(NewBodyLimitMiddleware(m.config, m.logger)); err != nil {
			return err
		}
	}

	if err := m.Register(NewAuthMiddleware(m.config, m.logger)); err != nil {
		return err
	}

	if config.Middlewares.Compression != nil && config.Middlewares.Compression.Enabled {
		if err := m.Register(NewCompressionMiddleware(m.config, m.logger)); err != nil {
			return err
		}
	}

	return m.finalize()
}

func (m *Manager) Register(middleware types.Middleware) error {
	if middleware == nil {
		return types.NewError("middleware is nil")
	}

	if atomic.LoadInt32(&m.initialized) == 1 {
		return types.NewError("cannot register middleware after finalization")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.registered[middleware.Name()] = middleware
	return nil
}

func (m *Manager) finalize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	weights := make(map[int]string, len(m.registered))
	for name, mw := range m.registered {
		if other, exists := weights[mw.Weight()]; exists {
			return types.NewErrorf("duplicate weight %d for middlewares '%s' and '%s'", mw.Weight(), other, name)
		}
		weights[mw.Weight()] = name
	}

	m.ordered = make([]types.Middleware, 0, len(m.registered))
	for _, mw := range m.registered {
		m.ordered = append(m.ordered, mw)
	}
	sort.Slice(m.ordered, func(i, j int) bool {
		return m.ordered[i].Weight() < m.ordered[j].Weight()
	})

	atomic.StoreInt32(&m.initialized, 1)
	return nil
}

func (m *Manager) Execute(ctx *fasthttp.RequestCtx, handler func(*fasthttp.RequestCtx), config *types.RouteConfig) {
	if atomic.LoadInt32(&m.initialized) == 0 {
		handler(ctx)
		return
	}

	active := m.activeChain(config)
	if len(active) == 0 {
		handler(ctx)
		return
	}

	var index int
	var next func(*fasthttp.RequestCtx)
	next = func(ctx *fasthttp.RequestCtx) {
		if index >= len(active) {
			handler(ctx)
			return
		}

		mw := active[index]
		index++
		mw.Handle(ctx, next, config)
	}

	next(ctx)
}

func (m *Manager) activeChain(config *types.RouteConfig) []types.Middleware {
	if config == nil || len(config.DisabledMiddlewares) == 0 {
		return m.ordered
	}

	disabled := make(map[string]struct{}, len(config.DisabledMiddlewares))
	for _, name := range config.DisabledMiddlewares {
		disabled[name] = struct{}{}
	}

	active := make([]types.Middleware, 0, len(m.ordered))
	for _, mw := range m.ordered {
		if _, skip := disabled[mw.Name()]; !skip {
			active = append(active, mw)
		}
	}
	return active
}
