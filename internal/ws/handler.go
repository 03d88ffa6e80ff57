package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nplusone/internal/config"
	"nplusone/internal/rpc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Handler handles WebSocket connections
type Handler struct {
	executor       rpc.Executor
	requestTimeout time.Duration
	logger         zerolog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHandler creates a new WebSocket handler
func NewHandler(executor rpc.Executor, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		executor:       executor,
		requestTimeout: cfg.GetRequestTimeoutDuration(),
		logger:         logger.With().Str("component", "ws").Logger(),
		clients:        make(map[*Client]struct{}),
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	h.logger.Info().
		Str("remoteAddr", r.RemoteAddr).
		Msg("new WebSocket connection")

	client := NewClient(conn, h.executor, h.requestTimeout, h.logger.With().Str("remoteAddr", r.RemoteAddr).Logger())
	client.onClose = h.remove

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	client.Run(r.Context())
}

// ClientCount returns the number of open connections
func (h *Handler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll closes every open connection
func (h *Handler) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}

func (h *Handler) remove(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}
