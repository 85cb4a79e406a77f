package action

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

type WebSocketConfig struct {
	Addr         string        `json:"addr"`
	Path         string        `json:"path"`
	PingInterval time.Duration `json:"ping_interval"`
	PongWait     time.Duration `json:"pong_wait"`
	WriteWait    time.Duration `json:"write_wait"`
	SendBuffer   int           `json:"send_buffer"`
}

// WebSocketHub accepts dashboard connections on a dedicated listener and
// broadcasts published events to every connected client. A client that cannot
// keep up is dropped rather than allowed to stall the broadcast loop.
type WebSocketHub struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   types.Logger
	config   *WebSocketConfig
	server   *http.Server
	upgrader websocket.Upgrader

	mu        sync.RWMutex
	clients   map[*wsClient]struct{}
	broadcast chan []byte
	running   int32
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewWebSocketHub(ctx context.Context, logger types.Logger, config *types.ActionsConfig) (*WebSocketHub, error) {
	wsConfig := &WebSocketConfig{
		Addr:         "localhost:8081",
		Path:         "/ws",
		PingInterval: 54 * time.Second,
		PongWait:     60 * time.Second,
		WriteWait:    10 * time.Second,
		SendBuffer:   64,
	}

	if config.Config != nil {
		if err := utils.UnmarshalConfig(config.Config, wsConfig); err != nil {
			return nil, types.WrapError(err, "failed to unmarshal websocket config")
		}
	}

	hubCtx, cancel := context.WithCancel(ctx)

	hub := &WebSocketHub{
		ctx:    hubCtx,
		cancel: cancel,
		logger: logger,
		config: wsConfig,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*wsClient]struct{}),
		broadcast: make(chan []byte, 256),
	}

	return hub, nil
}

func (h *WebSocketHub) Broadcast(message *types.ActionMessage) error {
	if atomic.LoadInt32(&h.running) != 1 {
		return types.ErrActionNotInitialized
	}

	data, err := utils.Marshal(message)
	if err != nil {
		return types.WrapError(err, "failed to marshal websocket message")
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-h.ctx.Done():
		return types.ErrActionNotInitialized
	default:
		return types.NewError("broadcast channel is full, dropping message")
	}
}

func (h *WebSocketHub) Start() error {
	if !atomic.CompareAndSwapInt32(&h.running, 0, 1) {
		return types.ErrServerAlreadyRunning
	}

	mux := http.NewServeMux()
	mux.HandleFunc(h.config.Path, h.handleConnection)

	h.server = &http.Server{
		Addr:    h.config.Addr,
		Handler: mux,
	}

	go h.broadcastLoop()

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("WebSocket hub server failed", zap.Error(err))
			atomic.StoreInt32(&h.running, 0)
		}
	}()

	h.logger.Info("WebSocket hub started",
		zap.String("addr", h.config.Addr),
		zap.String("path", h.config.Path))
	return nil
}

func (h *WebSocketHub) Stop() error {
	if !atomic.CompareAndSwapInt32(&h.running, 1, 0) {
		return types.ErrServerNotRunning
	}

	defer h.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.server.Shutdown(shutdownCtx); err != nil {
		h.logger.Warn("WebSocket hub stop timeout", zap.Error(err))
	}

	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		_ = client.conn.Close()
	}
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	h.logger.Info("WebSocket hub stopped gracefully")
	return nil
}

func (h *WebSocketHub) IsRunning() bool {
	return atomic.LoadInt32(&h.running) == 1
}

func (h *WebSocketHub) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("Dashboard client connected",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int("clients", clientCount))

	go h.writePump(client)
	go h.readPump(client)
}

func (h *WebSocketHub) broadcastLoop() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case data, ok := <-h.broadcast:
			if !ok {
				return
			}

			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Slow consumer; disconnect it out of band.
					go h.removeClient(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *WebSocketHub) readPump(client *wsClient) {
	defer h.removeClient(client)

	_ = client.conn.SetReadDeadline(time.Now().Add(h.config.PongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(h.config.PongWait))
	})

	for {
		// Dashboard clients are listen-only; reads exist to process control
		// frames and detect disconnects.
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *WebSocketHub) writePump(client *wsClient) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		h.removeClient(client)
	}()

	for {
		select {
		case <-h.ctx.Done():
			return
		case data, ok := <-client.send:
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			_ = client.conn.SetWriteDeadline(time.Now().Add(h.config.WriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(h.config.WriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHub) removeClient(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client]; !exists {
		return
	}

	delete(h.clients, client)
	close(client.send)
	_ = client.conn.Close()
}
