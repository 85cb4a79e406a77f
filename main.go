package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/action"
	"github.com/saiset-co/sai-commerce/cache"
	"github.com/saiset-co/sai-commerce/config"
	"github.com/saiset-co/sai-commerce/cron"
	"github.com/saiset-co/sai-commerce/database"
	"github.com/saiset-co/sai-commerce/handlers"
	"github.com/saiset-co/sai-commerce/logger"
	"github.com/saiset-co/sai-commerce/metrics"
	"github.com/saiset-co/sai-commerce/middleware"
	"github.com/saiset-co/sai-commerce/server"
	"github.com/saiset-co/sai-commerce/service"
	"github.com/saiset-co/sai-commerce/tls"
	"github.com/saiset-co/sai-commerce/types"
)

type component struct {
	name    string
	manager types.LifecycleManager
}

func main() {
	configPath := flag.String("config", "config.yml", "path to the service configuration file")
	flag.Parse()

	configManager := config.NewManager(*configPath)
	if err := configManager.Load(); err != nil {
		stdlog.Fatalf("failed to load config %s: %v", *configPath, err)
	}
	cfg := configManager.GetConfig()

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		stdlog.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metricsManager types.MetricsManager
	if cfg.Metrics.Enabled {
		metricsManager, err = metrics.NewPrometheusMetrics(log, cfg.Metrics)
		if err != nil {
			fatal(log, "Failed to initialize metrics", zap.Error(err))
		}
	}

	store, err := database.NewCloverStore(ctx, log, cfg.Database)
	if err != nil {
		fatal(log, "Failed to initialize document store", zap.Error(err))
	}

	cacheImpl, err := cache.NewCache(ctx, configManager, log, metricsManager)
	if err != nil {
		fatal(log, "Failed to initialize cache", zap.Error(err))
	}

	var broker types.ActionBroker
	if cfg.Actions.Enabled {
		broker, err = action.NewEventDispatcher(ctx, configManager, log, metricsManager)
		if err != nil {
			fatal(log, "Failed to initialize action dispatcher", zap.Error(err))
		}
	}

	invalidator := cache.NewInvalidator(cacheImpl, log)
	if broker != nil {
		invalidator = invalidator.WithBroker(broker)
	}

	productService := service.NewProductService(store, cacheImpl, invalidator, log, cfg.Catalog)
	orderService := service.NewOrderService(store, cacheImpl, invalidator, log)
	userService := service.NewUserService(store, invalidator, log)
	couponService := service.NewCouponService(store, log)
	statsService := service.NewStatsService(store, cacheImpl, log)

	middlewareManager := middleware.NewManager(configManager, log, metricsManager)
	if err := middlewareManager.RegisterMiddlewares(); err != nil {
		fatal(log, "Failed to register middlewares", zap.Error(err))
	}

	tlsManager, err := tls.NewCertManager(ctx, log, configManager)
	if err != nil {
		fatal(log, "Failed to initialize TLS manager", zap.Error(err))
	}

	httpServer, err := server.NewHTTPServer(ctx, configManager, log, middlewareManager, tlsManager)
	if err != nil {
		fatal(log, "Failed to initialize HTTP server", zap.Error(err))
	}

	api := handlers.NewHandlers(productService, orderService, userService, couponService, statsService, broker, log)
	api.Register(httpServer)

	if dispatcher, ok := broker.(*action.EventDispatcher); ok {
		dispatcher.RegisterRoutes(httpServer)
	}

	if metricsManager != nil {
		httpServer.GET(cfg.Metrics.Path, types.FastHTTPHandler(metricsManager.Handler()),
			&types.RouteConfig{DisabledMiddlewares: []string{"compression", "logging"}})
	}

	var cronManager types.CronManager
	if cfg.Cron.Enabled {
		cronManager, err = cron.NewManager(ctx, configManager, log, metricsManager)
		if err != nil {
			fatal(log, "Failed to initialize cron manager", zap.Error(err))
		}

		if sweeper, ok := cacheImpl.(cache.Sweeper); ok && cfg.Cron.SweepSchedule != "" {
			err = cronManager.Add("cache_sweep", cfg.Cron.SweepSchedule, func() {
				sweeper.Sweep()
			})
			if err != nil {
				fatal(log, "Failed to register cache sweep job", zap.Error(err))
			}
		}

		if cfg.Cron.WarmupSchedule != "" {
			err = cronManager.Add("stats_warmup", cfg.Cron.WarmupSchedule, func() {
				warmupCtx, warmupCancel := context.WithTimeout(ctx, time.Minute)
				defer warmupCancel()

				if err := statsService.Warmup(warmupCtx); err != nil {
					log.Warn("Dashboard warmup failed", zap.Error(err))
				}
			})
			if err != nil {
				fatal(log, "Failed to register stats warmup job", zap.Error(err))
			}
		}
	}

	health := handlers.NewHealthHandler(map[string]types.LifecycleManager{
		"database": store,
		"cache":    cacheImpl,
		"metrics":  metricsManager,
		"actions":  broker,
		"cron":     cronManager,
		"server":   httpServer,
	})
	health.Register(httpServer)

	components := []component{
		{"metrics", metricsManager},
		{"database", store},
		{"cache", cacheImpl},
		{"actions", broker},
		{"tls", tlsManager},
		{"server", httpServer},
		{"cron", cronManager},
	}

	started := make([]component, 0, len(components))
	for _, c := range components {
		if c.manager == nil {
			continue
		}
		if err := c.manager.Start(); err != nil {
			log.Error("Failed to start component", zap.String("component", c.name), zap.Error(err))
			shutdown(log, started)
			os.Exit(1)
		}
		started = append(started, c)
	}

	log.Info("Service started",
		zap.String("name", cfg.Name),
		zap.String("version", cfg.Version))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals

	log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	cancel()
	shutdown(log, started)
	log.Info("Service stopped")
}

func fatal(log types.Logger, msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
	os.Exit(1)
}

// shutdown stops components in reverse start order so the server drains
// before the stores it depends on go away.
func shutdown(log types.Logger, started []component) {
	for i := len(started) - 1; i >= 0; i-- {
		c := started[i]
		if err := c.manager.Stop(); err != nil {
			log.Error("Failed to stop component", zap.String("component", c.name), zap.Error(err))
		}
	}
}
