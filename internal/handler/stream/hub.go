package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"OraclePortfolio/internal/domain/models"
	xlogger "OraclePortfolio/pkg/logger"
	"OraclePortfolio/pkg/util"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	sendBuffer = 16
)

// Hub streams allocation events to websocket subscribers.
// Subscribers may filter by country with ?countries=FRA,DEU.
type Hub struct {
	logger       *xlogger.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	countries map[string]struct{}
	closeOnce sync.Once
}

func (c *client) wants(country string) bool {
	if len(c.countries) == 0 {
		return true
	}
	_, ok := c.countries[country]
	return ok
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

type HubOption func(*Hub)

// WithPingInterval sets how often idle connections are pinged.
func WithPingInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 && d < pongWait {
			h.pingInterval = d
		}
	}
}

// WithAllowedOrigins restricts browser origins. Empty or "*" allows all.
func WithAllowedOrigins(origins []string) HubOption {
	return func(h *Hub) {
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			if o == "*" {
				return
			}
			allowed[o] = struct{}{}
		}
		if len(allowed) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}
}

func NewHub(logger *xlogger.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		logger:       logger,
		pingInterval: pongWait * 9 / 10,
		clients:      make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/allocations", h.Subscribe)
}

// Subscribe upgrades the request and registers the connection.
func (h *Hub) Subscribe(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// upgrader already wrote the error response
		h.logger.Debug("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer), countries: map[string]struct{}{}}
	for _, code := range util.SplitCodes(c.QueryParam("countries")) {
		cl.countries[code] = struct{}{}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		return conn.Close()
	}
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket subscriber connected",
		xlogger.String("remote", c.RealIP()),
		xlogger.Int("subscribers", n))

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// PublishAllocation broadcasts ev to matching subscribers. Slow subscribers are disconnected.
func (h *Hub) PublishAllocation(_ context.Context, ev models.AllocationEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal allocation event: %w", err)
	}

	h.mu.RLock()
	var slow []*client
	for cl := range h.clients {
		if !cl.wants(ev.Country) {
			continue
		}
		select {
		case cl.send <- b:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range slow {
		h.logger.Warn("dropping slow websocket subscriber")
		h.remove(cl)
	}
	return nil
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.clients = map[*client]struct{}{}
	h.mu.Unlock()

	for _, cl := range clients {
		cl.close()
	}
	return nil
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	cl.close()
}

// readLoop discards client frames and returns when the connection drops.
func (h *Hub) readLoop(cl *client) {
	defer h.remove(cl)

	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read", xlogger.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
