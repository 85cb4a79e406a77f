package action

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
)

// EventDispatcher fans one published event out to every configured sink:
// webhook subscribers and the websocket hub for dashboards. Sinks fail
// independently; a dead webhook endpoint never blocks the dashboard feed.
type EventDispatcher struct {
	ctx        context.Context
	logger     types.Logger
	metrics    types.MetricsManager
	webhookMgr *WebhookManager
	hub        *WebSocketHub
	messageID  int64
	running    int32
}

func NewEventDispatcher(ctx context.Context, config types.ConfigManager, logger types.Logger, metrics types.MetricsManager) (types.ActionBroker, error) {
	actionsConfig := config.GetConfig().Actions

	if !actionsConfig.Enabled {
		return nil, types.ErrActionIsDisabled
	}

	dispatcher := &EventDispatcher{
		ctx:     ctx,
		logger:  logger,
		metrics: metrics,
	}

	if actionsConfig.Webhook {
		webhookMgr, err := NewWebhookManager(ctx, logger, metrics, actionsConfig.WebhookDB)
		if err != nil {
			return nil, types.WrapError(err, "failed to create webhook manager")
		}
		dispatcher.webhookMgr = webhookMgr
	}

	if actionsConfig.WebSocket {
		hub, err := NewWebSocketHub(ctx, logger, actionsConfig)
		if err != nil {
			return nil, types.WrapError(err, "failed to create websocket hub")
		}
		dispatcher.hub = hub
	}

	return dispatcher, nil
}

func (ed *EventDispatcher) Publish(action string, payload interface{}) error {
	if !ed.IsRunning() {
		return types.ErrActionNotInitialized
	}

	start := time.Now()

	message := &types.ActionMessage{
		Action:    action,
		Payload:   payload,
		Timestamp: time.Now(),
		Source:    "sai-commerce",
		MessageID: ed.nextMessageID(),
	}

	var wg sync.WaitGroup
	var failures int32

	if ed.hub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ed.hub.Broadcast(message); err != nil {
				atomic.AddInt32(&failures, 1)
				ed.logger.Error("WebSocket broadcast failed",
					zap.String("action", action), zap.Error(err))
			}
		}()
	}

	if ed.webhookMgr != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ed.webhookMgr.Notify(message); err != nil {
				atomic.AddInt32(&failures, 1)
				ed.logger.Error("Webhook notification failed",
					zap.String("action", action), zap.Error(err))
			}
		}()
	}

	wg.Wait()

	result := "success"
	if atomic.LoadInt32(&failures) > 0 {
		result = "partial_failure"
	}
	ed.recordMetric(action, result, time.Since(start))

	return nil
}

func (ed *EventDispatcher) Start() error {
	if !atomic.CompareAndSwapInt32(&ed.running, 0, 1) {
		return types.ErrServerAlreadyRunning
	}

	if ed.webhookMgr != nil {
		if err := ed.webhookMgr.Start(); err != nil {
			atomic.StoreInt32(&ed.running, 0)
			return types.WrapError(err, "failed to start webhook manager")
		}
	}

	if ed.hub != nil {
		if err := ed.hub.Start(); err != nil {
			atomic.StoreInt32(&ed.running, 0)
			return types.WrapError(err, "failed to start websocket hub")
		}
	}

	ed.logger.Info("Event dispatcher started")
	return nil
}

func (ed *EventDispatcher) Stop() error {
	if !atomic.CompareAndSwapInt32(&ed.running, 1, 0) {
		return types.ErrServerNotRunning
	}

	if ed.hub != nil {
		if err := ed.hub.Stop(); err != nil {
			ed.logger.Error("Failed to stop websocket hub", zap.Error(err))
		}
	}

	if ed.webhookMgr != nil {
		if err := ed.webhookMgr.Stop(); err != nil {
			ed.logger.Error("Failed to stop webhook manager", zap.Error(err))
		}
	}

	ed.logger.Info("Event dispatcher stopped")
	return nil
}

func (ed *EventDispatcher) IsRunning() bool {
	return atomic.LoadInt32(&ed.running) == 1
}

// RegisterRoutes exposes the webhook subscription API on the main server.
func (ed *EventDispatcher) RegisterRoutes(server types.HTTPServer) {
	if ed.webhookMgr != nil {
		ed.webhookMgr.RegisterRoutes(server)
	}
}

func (ed *EventDispatcher) nextMessageID() string {
	id := atomic.AddInt64(&ed.messageID, 1)
	return time.Now().Format("20060102T150405") + "-" + strconv.FormatInt(id, 10)
}

func (ed *EventDispatcher) recordMetric(action, result string, duration time.Duration) {
	if ed.metrics == nil {
		return
	}

	ed.metrics.Counter("action_operations_total", map[string]string{
		"action": action,
		"result": result,
	}).Inc()

	ed.metrics.Histogram("action_publish_duration_seconds",
		[]float64{0.001, 0.01, 0.1, 1.0, 5.0},
		map[string]string{"action": action},
	).Observe(duration.Seconds())
}
