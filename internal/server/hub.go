package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kilupskalvis/gitsim/internal/interp"
)

// MessageType tags frames sent to websocket clients.
type MessageType string

const (
	MessageTypeState  MessageType = "state"
	MessageTypeUpdate MessageType = "update"
	MessageTypeResult MessageType = "result"
	MessageTypeError  MessageType = "error"
)

// Message is the frame written to websocket clients.
type Message struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client serialises writes to one connection; gorilla allows a single
// concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Hub fans interpreter updates out to connected websocket clients.
type Hub struct {
	clientsMu sync.RWMutex
	clients   map[*client]struct{}
	broadcast chan Message
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewHub creates a hub and starts its broadcast loop.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients:   make(map[*client]struct{}),
		broadcast: make(chan Message, 256),
		done:      make(chan struct{}),
		logger:    logger,
	}
	go h.run()
	return h
}

// Notify implements interp.Notifier. It never blocks the interpreter.
func (h *Hub) Notify(u *interp.Update) {
	select {
	case h.broadcast <- Message{Type: MessageTypeUpdate, Data: u}:
	default:
		h.logger.Warn("broadcast channel full, dropping update", "command", u.Command)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close stops the broadcast loop and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.clientsMu.Lock()
		for c := range h.clients {
			c.conn.Close()
			delete(h.clients, c)
		}
		h.clientsMu.Unlock()
	})
}

func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{conn: conn}
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.clientsMu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
	return c
}

func (h *Hub) remove(c *client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.clientsMu.Unlock()
	if ok {
		c.conn.Close()
		h.logger.Debug("websocket client disconnected", "clients", n)
	}
}

func (h *Hub) run() {
	for {
		select {
		case msg := <-h.broadcast:
			h.clientsMu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.clientsMu.RUnlock()

			for _, c := range targets {
				if err := c.write(msg); err != nil {
					h.logger.Debug("broadcast write failed", "error", err)
					h.remove(c)
				}
			}
		case <-h.done:
			return
		}
	}
}
