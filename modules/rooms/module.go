package rooms

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"

	"github.com/example/knights-meet-server/domain/meeting"
	"github.com/example/knights-meet-server/events"
)

// Module wraps the registry with the framework lifecycle and publishes
// audit events on the internal bus. Event publishing is fire-and-forget and
// never sits on the delivery path of the signaling protocol.
type Module struct {
	registry *Registry
	eventBus mono.EventBus
	logger   *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new rooms module.
func NewModule() *Module {
	return &Module{
		registry: NewRegistry(),
		logger:   slog.Default(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rooms"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.RoomClosedV1.ToBase(),
		events.ParticipantJoinedV1.ToBase(),
		events.ParticipantLeftV1.ToBase(),
	}
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("rooms module started")
	return nil
}

// Stop shuts the module down. All room state is ephemeral and simply dropped.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("rooms module stopped",
		"rooms", m.registry.RoomCount(),
		"participants", m.registry.ParticipantCount())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms":        m.registry.RoomCount(),
			"participants": m.registry.ParticipantCount(),
		},
	}
}

// TryJoin joins the connection to the room, creating it on first join.
func (m *Module) TryJoin(roomID, password, userName, connID string) (meeting.Participant, []meeting.ChatMessage, error) {
	p, history, created, err := m.registry.TryJoin(roomID, password, userName, connID)
	if err != nil {
		return meeting.Participant{}, nil, err
	}

	now := time.Now()
	if created {
		m.logger.Info("room created", "room", roomID)
		m.publishRoomCreated(events.RoomCreatedEvent{RoomID: roomID, Timestamp: now})
	}
	m.logger.Info("participant joined", "room", roomID, "clientId", connID, "name", p.Name)
	m.publishParticipantJoined(events.ParticipantJoinedEvent{
		RoomID:    roomID,
		ConnID:    connID,
		Name:      p.Name,
		Timestamp: now,
	})
	return p, history, nil
}

// Leave removes the connection from the room. The boolean reports whether a
// participant was actually removed.
func (m *Module) Leave(roomID, connID string) (meeting.Participant, bool) {
	p, remaining, ok := m.registry.Leave(roomID, connID)
	if !ok {
		return meeting.Participant{}, false
	}

	now := time.Now()
	m.logger.Info("participant left", "room", roomID, "name", p.Name, "remaining", remaining)
	m.publishParticipantLeft(events.ParticipantLeftEvent{
		RoomID:    roomID,
		ConnID:    connID,
		Name:      p.Name,
		Remaining: remaining,
		Timestamp: now,
	})
	if remaining == 0 {
		m.logger.Info("room closed", "room", roomID)
		m.publishRoomClosed(events.RoomClosedEvent{RoomID: roomID, Timestamp: now})
	}
	return p, true
}

// SetMedia flips a participant's media flag.
func (m *Module) SetMedia(roomID, connID, kind string, enabled bool) bool {
	return m.registry.SetMedia(roomID, connID, kind, enabled)
}

// Snapshot returns the room's roster in join order.
func (m *Module) Snapshot(roomID string) []meeting.Participant {
	return m.registry.Snapshot(roomID)
}

// AppendChat appends a server-stamped chat message to the room history.
func (m *Module) AppendChat(roomID, connID, text string) (meeting.ChatMessage, bool) {
	return m.registry.AppendChat(roomID, connID, text)
}

func (m *Module) publishRoomCreated(event events.RoomCreatedEvent) {
	if m.eventBus == nil {
		return
	}
	if err := events.RoomCreatedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("failed to publish RoomCreated event", "error", err)
	}
}

func (m *Module) publishRoomClosed(event events.RoomClosedEvent) {
	if m.eventBus == nil {
		return
	}
	if err := events.RoomClosedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("failed to publish RoomClosed event", "error", err)
	}
}

func (m *Module) publishParticipantJoined(event events.ParticipantJoinedEvent) {
	if m.eventBus == nil {
		return
	}
	if err := events.ParticipantJoinedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("failed to publish ParticipantJoined event", "error", err)
	}
}

func (m *Module) publishParticipantLeft(event events.ParticipantLeftEvent) {
	if m.eventBus == nil {
		return
	}
	if err := events.ParticipantLeftV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("failed to publish ParticipantLeft event", "error", err)
	}
}
