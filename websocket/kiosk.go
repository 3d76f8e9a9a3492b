package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"kioskcms/internal/logger"
	"kioskcms/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// KioskClient is one connected kiosk screen. Events are queued on send and
// written by the client's writePump.
type KioskClient struct {
	conn *websocket.Conn
	send chan []byte
}

// writePump owns all writes to the connection. It stops when send is closed
// or a write fails, closing the connection either way.
func (kc *KioskClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		kc.conn.Close()
	}()

	for {
		select {
		case message, ok := <-kc.send:
			_ = kc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = kc.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := kc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = kc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := kc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// KioskHub fans CMS change events out to every connected kiosk.
type KioskHub struct {
	mu       sync.Mutex
	clients  map[*KioskClient]bool
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewKioskHub accepts upgrades from the listed origins, or from any origin
// when the list is empty or contains "*".
func NewKioskHub(allowedOrigins []string, log *logger.Logger) *KioskHub {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return &KioskHub{
		clients: make(map[*KioskClient]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
		log: log.With("component", "KioskHub"),
	}
}

func (h *KioskHub) register(client *KioskClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	h.log.Info("Kiosk client registered", "clients", len(h.clients))
}

func (h *KioskHub) unregister(client *KioskClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(client)
}

// drop must be called with mu held. Closing send stops the writePump.
func (h *KioskHub) drop(client *KioskClient) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.log.Info("Kiosk client unregistered", "clients", len(h.clients))
}

// Publish queues a change event for every connected kiosk without waiting on
// the network. A kiosk whose queue is full is dropped; it reconnects and
// refetches.
func (h *KioskHub) Publish(event models.ChangeEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Failed to encode kiosk event", "type", event.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			h.log.Warn("Kiosk client too slow; dropping", "type", event.Type)
			h.drop(client)
		}
	}
	h.log.Debug("Broadcasted kiosk event", "type", event.Type, "clients", len(h.clients))
}

// ClientCount returns the number of connected kiosks.
func (h *KioskHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler upgrades the request and keeps the connection registered until the
// kiosk disconnects. Kiosks only listen; inbound messages are discarded.
func (h *KioskHub) Handler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade error", "error", err)
		return
	}

	client := &KioskClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(client)
	defer h.unregister(client)
	go client.writePump()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
