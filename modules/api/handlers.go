package api

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/knights-meet-server/modules/broadcast"
)

const (
	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Maximum inbound frame size. SDP offers run a few KB; this leaves
	// headroom without letting a client exhaust memory.
	maxFrameSize = 64 * 1024
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// REST API v1
	api := m.app.Group("/api/v1")
	api.Get("/stats", m.statsHandler)

	// WebSocket signaling endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// Static client assets, registered last so API routes win.
	m.app.Static("/", m.publicDir, fiber.Static{
		Index: "index.html",
	})
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
			"active_rooms":      m.hub.RoomCount(),
		},
	})
}

// statsHandler handles GET /api/v1/stats.
func (m *APIModule) statsHandler(c *fiber.Ctx) error {
	lifetime, err := m.stats.GetStats(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to fetch stats",
		})
	}

	return c.JSON(StatsResponse{
		ConnectedClients: m.hub.ClientCount(),
		ActiveRooms:      m.hub.RoomCount(),
		Lifetime:         lifetime,
	})
}

// handleWebSocket handles WebSocket connections at /ws. It owns the read
// side; all writes go through the hub's per-client write pump.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()

	client := broadcast.NewClient(connID, c)
	m.hub.Register(client)
	go client.WritePump()

	session := m.relay.NewSession(connID)
	defer func() {
		m.relay.Disconnect(session)
		m.hub.Unregister(connID)
		client.Wait()
		m.logger.Info("websocket client disconnected", "clientId", connID)
	}()

	m.logger.Info("websocket client connected", "clientId", connID)

	c.SetReadLimit(maxFrameSize)
	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Warn("websocket read error", "clientId", connID, "error", err)
			}
			return
		}
		m.relay.Handle(session, data)
	}
}
