package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-monolith/mono"

	"github.com/example/knights-meet-server/events"
)

// ServiceGetStats is the RequestReply service exposing lifetime counters.
const ServiceGetStats = "get-stats"

// Stats are lifetime counters since process start.
type Stats struct {
	RoomsCreated     int64 `json:"rooms_created"`
	RoomsClosed      int64 `json:"rooms_closed"`
	Joins            int64 `json:"joins"`
	Leaves           int64 `json:"leaves"`
	PeakParticipants int64 `json:"peak_participants"`
}

// GetStatsRequest is the (empty) request payload for the stats service.
type GetStatsRequest struct{}

// Module aggregates room lifecycle events into lifetime counters and serves
// them over the service container. It only observes the event stream; losing
// an event skews a counter but never affects signaling.
type Module struct {
	roomsCreated atomic.Int64
	roomsClosed  atomic.Int64
	joins        atomic.Int64
	leaves       atomic.Int64
	current      atomic.Int64
	peak         atomic.Int64

	logger *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new presence module.
func NewModule() *Module {
	return &Module{logger: slog.Default()}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("presence module started")
	return nil
}

// Stop shuts the module down.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("presence module stopped", "joins", m.joins.Load(), "leaves", m.leaves.Load())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms_created": m.roomsCreated.Load(),
			"joins":         m.joins.Load(),
		},
	}
}

// RegisterEventConsumers subscribes to the room lifecycle events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	consumers := []struct {
		name    string
		handler func(context.Context, *mono.Msg) error
	}{
		{"RoomCreated", m.handleRoomCreated},
		{"RoomClosed", m.handleRoomClosed},
		{"ParticipantJoined", m.handleParticipantJoined},
		{"ParticipantLeft", m.handleParticipantLeft},
	}

	for _, c := range consumers {
		def, ok := registry.GetEventByName(c.name, "v1", "rooms")
		if !ok {
			return fmt.Errorf("event %s.v1 not found from rooms module", c.name)
		}
		if err := registry.RegisterEventConsumer(def, c.handler, m); err != nil {
			return fmt.Errorf("failed to register %s consumer: %w", c.name, err)
		}
	}

	m.logger.Info("registered presence event consumers")
	return nil
}

// RegisterServices exposes the stats counters over the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	return container.RegisterRequestReplyService(ServiceGetStats, m.handleGetStats)
}

func (m *Module) handleGetStats(_ context.Context, _ *mono.Msg) ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

// Snapshot returns the current counter values.
func (m *Module) Snapshot() Stats {
	return Stats{
		RoomsCreated:     m.roomsCreated.Load(),
		RoomsClosed:      m.roomsClosed.Load(),
		Joins:            m.joins.Load(),
		Leaves:           m.leaves.Load(),
		PeakParticipants: m.peak.Load(),
	}
}

func (m *Module) handleRoomCreated(_ context.Context, msg *mono.Msg) error {
	var event events.RoomCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		m.logger.Error("failed to unmarshal RoomCreated event", "error", err)
		return nil // do not retry on unmarshal errors
	}
	m.roomsCreated.Add(1)
	m.logger.Debug("room created", "room", event.RoomID)
	return nil
}

func (m *Module) handleRoomClosed(_ context.Context, msg *mono.Msg) error {
	var event events.RoomClosedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		m.logger.Error("failed to unmarshal RoomClosed event", "error", err)
		return nil
	}
	m.roomsClosed.Add(1)
	m.logger.Debug("room closed", "room", event.RoomID)
	return nil
}

func (m *Module) handleParticipantJoined(_ context.Context, msg *mono.Msg) error {
	var event events.ParticipantJoinedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		m.logger.Error("failed to unmarshal ParticipantJoined event", "error", err)
		return nil
	}
	m.joins.Add(1)
	cur := m.current.Add(1)
	for {
		peak := m.peak.Load()
		if cur <= peak || m.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	return nil
}

func (m *Module) handleParticipantLeft(_ context.Context, msg *mono.Msg) error {
	var event events.ParticipantLeftEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		m.logger.Error("failed to unmarshal ParticipantLeft event", "error", err)
		return nil
	}
	m.leaves.Add(1)
	m.current.Add(-1)
	return nil
}
