package action

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

// WebhookManager stores event subscriptions in SQLite and delivers signed
// POST requests to every enabled endpoint subscribed to an event.
type WebhookManager struct {
	ctx             context.Context
	cancel          context.CancelFunc
	logger          types.Logger
	metrics         types.MetricsManager
	db              *sql.DB
	client          *http.Client
	running         int32
	deliveryTimeout time.Duration
	requestTimeout  time.Duration
}

type Webhook struct {
	ID        string            `json:"id"`
	Event     string            `json:"event"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Secret    string            `json:"secret"`
	Enabled   bool              `json:"enabled"`
	CreatedAt time.Time         `json:"created_at"`
}

type WebhookCreateRequest struct {
	Event   string            `json:"event" validate:"required"`
	URL     string            `json:"url" validate:"required,url"`
	Headers map[string]string `json:"headers"`
	Enabled *bool             `json:"enabled"`
}

func NewWebhookManager(ctx context.Context, logger types.Logger, metrics types.MetricsManager, dbPath string) (*WebhookManager, error) {
	if dbPath == "" {
		dbPath = "./webhooks.db"
	}

	webhookCtx, cancel := context.WithCancel(ctx)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		cancel()
		return nil, types.WrapError(err, "failed to open SQLite database")
	}

	wm := &WebhookManager{
		ctx:     webhookCtx,
		cancel:  cancel,
		logger:  logger,
		metrics: metrics,
		db:      db,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		deliveryTimeout: 30 * time.Second,
		requestTimeout:  5 * time.Second,
	}

	if err := wm.initDatabase(); err != nil {
		cancel()
		_ = db.Close()
		return nil, types.WrapError(err, "failed to initialize database")
	}

	return wm, nil
}

func (wm *WebhookManager) Start() error {
	if !atomic.CompareAndSwapInt32(&wm.running, 0, 1) {
		return types.ErrServerAlreadyRunning
	}

	wm.logger.Info("Webhook manager started")
	return nil
}

func (wm *WebhookManager) Stop() error {
	if !atomic.CompareAndSwapInt32(&wm.running, 1, 0) {
		return types.ErrServerNotRunning
	}

	defer wm.cancel()

	if err := wm.db.Close(); err != nil {
		return types.WrapError(err, "failed to close webhook database")
	}

	wm.logger.Info("Webhook manager stopped gracefully")
	return nil
}

func (wm *WebhookManager) IsRunning() bool {
	return atomic.LoadInt32(&wm.running) == 1
}

func (wm *WebhookManager) initDatabase() error {
	query := `
	CREATE TABLE IF NOT EXISTS webhooks (
		id TEXT PRIMARY KEY,
		event TEXT NOT NULL,
		url TEXT NOT NULL,
		headers TEXT,
		secret TEXT,
		enabled BOOLEAN DEFAULT true,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_webhooks_event ON webhooks(event);
	`

	_, err := wm.db.Exec(query)
	return types.WrapError(err, "failed to create webhooks table")
}

// Notify delivers the message to every enabled subscriber of its event,
// concurrently with a shared deadline.
func (wm *WebhookManager) Notify(message *types.ActionMessage) error {
	if !wm.IsRunning() {
		return types.ErrActionNotInitialized
	}

	webhooks, err := wm.webhooksByEvent(message.Action)
	if err != nil {
		return types.WrapError(err, "failed to get webhooks")
	}

	if len(webhooks) == 0 {
		return nil
	}

	notifyCtx, cancel := context.WithTimeout(wm.ctx, wm.deliveryTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(notifyCtx)

	for _, webhook := range webhooks {
		wh := webhook
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
				return wm.deliver(wh, message)
			}
		})
	}

	return g.Wait()
}

func (wm *WebhookManager) deliver(webhook *Webhook, message *types.ActionMessage) error {
	start := time.Now()

	jsonData, err := utils.Marshal(message)
	if err != nil {
		return types.WrapError(err, "failed to marshal webhook payload")
	}

	deliveryCtx, cancel := context.WithTimeout(wm.ctx, wm.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(deliveryCtx, http.MethodPost, webhook.URL, strings.NewReader(string(jsonData)))
	if err != nil {
		return types.WrapError(err, "failed to create HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sai-commerce-webhook/1.0")

	for key, value := range webhook.Headers {
		req.Header.Set(key, value)
	}

	if webhook.Secret != "" {
		req.Header.Set("X-Signature", "sha256="+signPayload(webhook.Secret, jsonData))
	}

	resp, err := wm.client.Do(req)
	if err != nil {
		wm.recordMetric("delivery", "http_error", message.Action, time.Since(start))
		return types.WrapError(err, "HTTP request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		wm.recordMetric("delivery", "http_error", message.Action, time.Since(start))
		return types.NewErrorf("webhook returned error status: %d", resp.StatusCode)
	}

	wm.recordMetric("delivery", "success", message.Action, time.Since(start))
	return nil
}

func (wm *WebhookManager) webhooksByEvent(event string) ([]*Webhook, error) {
	query := `SELECT id, event, url, headers, secret, enabled, created_at
			  FROM webhooks WHERE event = ? AND enabled = true`

	rows, err := wm.db.Query(query, event)
	if err != nil {
		return nil, types.WrapError(err, "failed to query webhooks")
	}
	defer func() {
		_ = rows.Close()
	}()

	var webhooks []*Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, webhook)
	}

	return webhooks, rows.Err()
}

func (wm *WebhookManager) RegisterRoutes(server types.HTTPServer) {
	config := &types.RouteConfig{AdminOnly: true}

	server.POST("/api/v1/webhooks", wm.handleCreate, config)
	server.GET("/api/v1/webhooks", wm.handleList, config)
	server.DELETE("/api/v1/webhooks/{id}", wm.handleDelete, config)
}

func (wm *WebhookManager) handleCreate(ctx *fasthttp.RequestCtx) {
	var req WebhookCreateRequest
	if err := utils.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.WriteError(ctx, fasthttp.StatusBadRequest, "invalid JSON payload")
		return
	}

	if req.Event == "" || req.URL == "" {
		utils.WriteError(ctx, fasthttp.StatusBadRequest, "event and url are required")
		return
	}

	webhook := &Webhook{
		ID:        fmt.Sprintf("wh_%d", time.Now().UnixNano()),
		Event:     req.Event,
		URL:       req.URL,
		Headers:   req.Headers,
		Secret:    generateSecret(),
		Enabled:   true,
		CreatedAt: time.Now(),
	}
	if req.Enabled != nil {
		webhook.Enabled = *req.Enabled
	}

	headersJSON, _ := utils.Marshal(webhook.Headers)
	_, err := wm.db.Exec(
		`INSERT INTO webhooks (id, event, url, headers, secret, enabled, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		webhook.ID, webhook.Event, webhook.URL, string(headersJSON), webhook.Secret, webhook.Enabled, webhook.CreatedAt)
	if err != nil {
		wm.logger.Error("Failed to insert webhook", zap.Error(err))
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, "failed to create webhook")
		return
	}

	wm.logger.Info("Webhook created",
		zap.String("id", webhook.ID),
		zap.String("event", webhook.Event),
		zap.String("url", webhook.URL))

	utils.WriteJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"success": true,
		"webhook": webhook,
	})
}

func (wm *WebhookManager) handleList(ctx *fasthttp.RequestCtx) {
	rows, err := wm.db.Query(
		`SELECT id, event, url, headers, secret, enabled, created_at FROM webhooks ORDER BY created_at DESC`)
	if err != nil {
		wm.logger.Error("Failed to query webhooks", zap.Error(err))
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, "failed to list webhooks")
		return
	}
	defer func() {
		_ = rows.Close()
	}()

	webhooks := make([]*Webhook, 0)
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			wm.logger.Error("Failed to scan webhook", zap.Error(err))
			utils.WriteError(ctx, fasthttp.StatusInternalServerError, "failed to list webhooks")
			return
		}
		webhooks = append(webhooks, webhook)
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"success":  true,
		"webhooks": webhooks,
		"total":    len(webhooks),
	})
}

func (wm *WebhookManager) handleDelete(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		utils.WriteError(ctx, fasthttp.StatusBadRequest, "webhook id is required")
		return
	}

	result, err := wm.db.Exec(`DELETE FROM webhooks WHERE id = ?`, id)
	if err != nil {
		wm.logger.Error("Failed to delete webhook", zap.Error(err))
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, "failed to delete webhook")
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		utils.WriteError(ctx, fasthttp.StatusNotFound, types.ErrWebhookNotFound.Error())
		return
	}

	wm.logger.Info("Webhook deleted", zap.String("id", id))
	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"success": true})
}

func (wm *WebhookManager) recordMetric(operation, result, event string, duration time.Duration) {
	if wm.metrics == nil {
		return
	}

	wm.metrics.Counter("webhook_operations_total", map[string]string{
		"operation": operation,
		"result":    result,
		"event":     event,
	}).Inc()

	wm.metrics.Histogram("webhook_operation_duration_seconds",
		[]float64{0.01, 0.1, 1.0, 5.0, 30.0},
		map[string]string{"operation": operation},
	).Observe(duration.Seconds())
}

func scanWebhook(rows *sql.Rows) (*Webhook, error) {
	webhook := &Webhook{}
	var headersJSON string

	err := rows.Scan(&webhook.ID, &webhook.Event, &webhook.URL,
		&headersJSON, &webhook.Secret, &webhook.Enabled, &webhook.CreatedAt)
	if err != nil {
		return nil, types.WrapError(err, "failed to scan webhook")
	}

	webhook.Headers = make(map[string]string)
	if headersJSON != "" {
		_ = utils.Unmarshal([]byte(headersJSON), &webhook.Headers)
	}

	return webhook, nil
}

func signPayload(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func generateSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
