package broadcast

import (
	"context"
	"log/slog"

	"github.com/go-monolith/mono"
)

// Module owns the WebSocket hub for the application lifetime.
type Module struct {
	hub    *Hub
	logger *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new broadcast module.
func NewModule() *Module {
	return &Module{
		hub:    NewHub(),
		logger: slog.Default(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("broadcast module started")
	return nil
}

// Stop disconnects all clients.
func (m *Module) Stop(_ context.Context) error {
	clients := m.hub.ClientCount()
	m.hub.CloseAll()
	m.logger.Info("broadcast module stopped", "clients", clients)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"rooms":             m.hub.RoomCount(),
		},
	}
}

// Hub returns the hub for the api module and relay wiring.
func (m *Module) Hub() *Hub {
	return m.hub
}
