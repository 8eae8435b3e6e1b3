package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamMessage is one event pushed to attached viewers.
// Types: "progress", "ready", "error", "filter", "theme", "animation", "ping".
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StreamClient is one websocket attached to a viewer session.
type StreamClient struct {
	ID   string
	Conn *websocket.Conn
	Hub  *StreamHub
	Send chan []byte
}

// StreamHub fans session events out to every attached websocket. Each viewer
// session owns one hub; there is no cross-session traffic.
type StreamHub struct {
	clients    map[string]*StreamClient
	clientsMux sync.RWMutex

	register   chan *StreamClient
	unregister chan *StreamClient
	broadcast  chan *StreamMessage

	done     chan struct{}
	stopOnce sync.Once
}

// NewStreamHub creates a hub; call Run in a goroutine to start it.
func NewStreamHub() *StreamHub {
	return &StreamHub{
		clients:    make(map[string]*StreamClient),
		register:   make(chan *StreamClient, 10),
		unregister: make(chan *StreamClient, 10),
		broadcast:  make(chan *StreamMessage, 100),
		done:       make(chan struct{}),
	}
}

// Run services the hub channels until Stop.
func (h *StreamHub) Run() {
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.clientsMux.Lock()
			h.clients[client.ID] = client
			h.clientsMux.Unlock()

		case client := <-h.unregister:
			h.clientsMux.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.clientsMux.Unlock()

		case message := <-h.broadcast:
			h.broadcastToAll(message)

		case <-pingTicker.C:
			h.broadcastToAll(&StreamMessage{
				Type: "ping",
				Data: map[string]int64{"timestamp": time.Now().Unix()},
			})

		case <-h.done:
			return
		}
	}
}

// Stop shuts the hub down and closes every attached connection.
func (h *StreamHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.clientsMux.Lock()
		for _, client := range h.clients {
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
		h.clientsMux.Unlock()
	})
}

// Attach registers a websocket with the hub.
func (h *StreamHub) Attach(client *StreamClient) {
	select {
	case h.register <- client:
	case <-h.done:
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}

// Detach unregisters a websocket.
func (h *StreamHub) Detach(client *StreamClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues an event for every attached viewer. Drops the event when
// the hub is stopped or saturated rather than blocking session methods.
func (h *StreamHub) Broadcast(msgType string, data interface{}) {
	msg := &StreamMessage{Type: msgType, Data: data}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
	}
}

// ClientCount returns the number of attached websockets.
func (h *StreamHub) ClientCount() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

func (h *StreamHub) broadcastToAll(message *StreamMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling stream message: %v", err)
		return
	}

	h.clientsMux.RLock()
	clients := make([]*StreamClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clientsMux.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			// Send buffer full, drop the client
			h.Detach(client)
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
	}
}

// ReadPump drains inbound frames until the connection drops. Viewers never
// send application data; the pump exists to surface disconnects and answer
// pongs.
func (c *StreamClient) ReadPump() {
	defer func() {
		c.Hub.Detach(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Stream read error: %v", err)
			}
			return
		}
	}
}

// WritePump forwards queued events to the connection, coalescing bursts.
func (c *StreamClient) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
