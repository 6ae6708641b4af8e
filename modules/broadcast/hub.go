package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Send pings to the peer with this period.
	pingPeriod = 54 * time.Second

	// Outbound queue per client. A full queue drops frames instead of
	// blocking the sender's handler.
	sendBuffer = 256
)

// Conn is the subset of the websocket connection the hub writes to. It is
// an interface so the hub can be exercised with fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// frame is the outbound wire envelope for named events.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client represents one connected peer. All writes to the connection go
// through the send queue and the write pump.
type Client struct {
	ID string

	conn   Conn
	send   chan []byte
	done   chan struct{}
	roomID string // guarded by the hub lock
}

// NewClient wraps a connection for hub delivery.
func NewClient(id string, conn Conn) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// WritePump drains the send queue onto the connection and keeps the peer
// alive with pings. It runs in a per-connection goroutine and exits when
// the hub closes the queue or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Wait blocks until the write pump has exited.
func (c *Client) Wait() {
	<-c.done
}

// enqueue queues a frame without ever blocking. A slow recipient loses
// frames rather than stalling the sender.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		slog.Warn("send buffer full, dropping frame", "clientId", c.ID)
	}
}

// Hub manages connected clients and room-scoped delivery groups.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]bool // roomID -> set of client IDs
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]bool),
		logger:  slog.Default(),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.logger.Debug("client registered", "clientId", client.ID)
}

// Unregister removes a client from the hub and its room, and closes its
// send queue, which stops the write pump.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	delete(h.clients, clientID)
	h.removeFromRoom(client)
	close(client.send)
	h.logger.Debug("client unregistered", "clientId", clientID)
}

// JoinRoom moves a client into a room group, leaving any previous one.
func (h *Hub) JoinRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	h.removeFromRoom(client)

	client.roomID = roomID
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][clientID] = true
}

// LeaveRoom removes a client from its current room group.
func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		h.removeFromRoom(client)
	}
}

// removeFromRoom detaches the client from its room group. Caller holds the
// lock.
func (h *Hub) removeFromRoom(client *Client) {
	if client.roomID == "" {
		return
	}
	if members := h.rooms[client.roomID]; members != nil {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, client.roomID)
		}
	}
	client.roomID = ""
}

// SendTo delivers a named event to a single connection. Delivery to an
// unknown or dead target is a silent no-op.
func (h *Hub) SendTo(clientID, event string, data any) {
	payload, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		h.logger.Warn("failed to marshal frame", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[clientID]; ok {
		client.enqueue(payload)
	}
}

// BroadcastRoom delivers a named event to every member of the room,
// including the sender.
func (h *Hub) BroadcastRoom(roomID, event string, data any) {
	h.broadcast(roomID, "", event, data)
}

// BroadcastRoomExcept delivers a named event to every member of the room
// except one connection.
func (h *Hub) BroadcastRoomExcept(roomID, exceptID, event string, data any) {
	h.broadcast(roomID, exceptID, event, data)
}

func (h *Hub) broadcast(roomID, exceptID, event string, data any) {
	payload, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		h.logger.Warn("failed to marshal frame", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID := range h.rooms[roomID] {
		if clientID == exceptID {
			continue
		}
		if client, ok := h.clients[clientID]; ok {
			client.enqueue(payload)
		}
	}
}

// CloseAll disconnects every client. Used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
