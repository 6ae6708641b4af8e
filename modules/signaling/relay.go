package signaling

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/example/knights-meet-server/domain/meeting"
)

// Roster is the room registry surface the relay operates on.
type Roster interface {
	TryJoin(roomID, password, userName, connID string) (meeting.Participant, []meeting.ChatMessage, error)
	Leave(roomID, connID string) (meeting.Participant, bool)
	SetMedia(roomID, connID, kind string, enabled bool) bool
	Snapshot(roomID string) []meeting.Participant
	AppendChat(roomID, connID, text string) (meeting.ChatMessage, bool)
}

// Transport delivers named events to single connections and room groups.
// Sends must never block; delivery to a dead target is a no-op.
type Transport interface {
	SendTo(clientID, event string, data any)
	BroadcastRoom(roomID, event string, data any)
	BroadcastRoomExcept(roomID, exceptID, event string, data any)
	JoinRoom(clientID, roomID string)
	LeaveRoom(clientID string)
}

// Session is the per-connection protocol state: connected until a
// successful join, then bound to one room until disconnect. A session is
// only touched by its own connection's read loop.
type Session struct {
	ConnID string
	roomID string
}

// Joined reports whether the connection has successfully joined a room.
func (s *Session) Joined() bool {
	return s.roomID != ""
}

// RoomID returns the joined room, or empty before a successful join.
func (s *Session) RoomID() string {
	return s.roomID
}

// Relay binds inbound events to registry operations and hub delivery. One
// relay serves all connections; per-connection state lives in the Session.
type Relay struct {
	rooms     Roster
	transport Transport
	logger    *slog.Logger
}

// NewRelay creates a relay over the given registry and transport.
func NewRelay(rooms Roster, transport Transport) *Relay {
	return &Relay{
		rooms:     rooms,
		transport: transport,
		logger:    slog.Default(),
	}
}

// NewSession creates the protocol state for a freshly opened connection.
func (r *Relay) NewSession(connID string) *Session {
	return &Session{ConnID: connID}
}

// Handle processes one inbound frame from the connection's read loop.
// Malformed frames and unknown events are ignored.
func (r *Relay) Handle(s *Session, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.logger.Warn("invalid frame", "clientId", s.ConnID, "error", err)
		return
	}

	switch env.Event {
	case EventJoinRoom:
		r.handleJoin(s, env.Data)
	case EventSignal:
		r.handleSignal(s, env.Data)
	case EventChatMessage:
		r.handleChat(s, env.Data)
	case EventToggleMedia:
		r.handleToggle(s, env.Data)
	default:
		r.logger.Warn("unknown event", "clientId", s.ConnID, "event", env.Event)
	}
}

func (r *Relay) handleJoin(s *Session, data json.RawMessage) {
	if s.Joined() {
		// The connection already belongs to a room; a repeated join is
		// ignored rather than re-running the join sequence.
		r.logger.Warn("join ignored, already joined", "clientId", s.ConnID, "room", s.roomID)
		return
	}

	var req JoinRoomPayload
	if err := json.Unmarshal(data, &req); err != nil {
		r.logger.Warn("invalid join payload", "clientId", s.ConnID, "error", err)
		return
	}
	if req.RoomID == "" {
		r.logger.Warn("join without room id", "clientId", s.ConnID)
		return
	}

	p, history, err := r.rooms.TryJoin(req.RoomID, req.Password, req.UserName, s.ConnID)
	if errors.Is(err, meeting.ErrWrongPassword) {
		r.transport.SendTo(s.ConnID, EventPasswordError, passwordErrorMessage)
		return
	}
	if err != nil {
		r.logger.Error("join failed", "clientId", s.ConnID, "room", req.RoomID, "error", err)
		return
	}

	s.roomID = req.RoomID
	r.transport.JoinRoom(s.ConnID, req.RoomID)

	r.transport.SendTo(s.ConnID, EventJoinedSuccessfully, JoinedPayload{
		RoomID:      req.RoomID,
		Name:        p.Name,
		ChatHistory: history,
	})
	r.transport.BroadcastRoomExcept(req.RoomID, s.ConnID, EventUserJoined, p)
	r.transport.BroadcastRoom(req.RoomID, EventParticipantsUpdate, r.rooms.Snapshot(req.RoomID))
}

// handleSignal relays an opaque negotiation payload to the target
// connection, stamping it with the sender's id. The relay is not
// room-scoped: any live connection can be a target.
func (r *Relay) handleSignal(s *Session, data json.RawMessage) {
	if !s.Joined() {
		r.logger.Warn("signal before join ignored", "clientId", s.ConnID)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		r.logger.Warn("invalid signal payload", "clientId", s.ConnID, "error", err)
		return
	}
	targetID, _ := payload["targetID"].(string)
	if targetID == "" {
		r.logger.Warn("signal without target", "clientId", s.ConnID)
		return
	}

	payload["senderID"] = s.ConnID
	r.transport.SendTo(targetID, EventSignal, payload)
}

func (r *Relay) handleChat(s *Session, data json.RawMessage) {
	if !s.Joined() {
		r.logger.Warn("chat before join ignored", "clientId", s.ConnID)
		return
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		r.logger.Warn("invalid chat payload", "clientId", s.ConnID, "error", err)
		return
	}

	msg, ok := r.rooms.AppendChat(s.roomID, s.ConnID, text)
	if !ok {
		return
	}
	r.transport.BroadcastRoom(s.roomID, EventChatMessage, msg)
}

func (r *Relay) handleToggle(s *Session, data json.RawMessage) {
	if !s.Joined() {
		r.logger.Warn("toggle before join ignored", "clientId", s.ConnID)
		return
	}

	var req ToggleMediaPayload
	if err := json.Unmarshal(data, &req); err != nil {
		r.logger.Warn("invalid toggle payload", "clientId", s.ConnID, "error", err)
		return
	}

	if !r.rooms.SetMedia(s.roomID, s.ConnID, req.Type, req.State) {
		return
	}
	r.transport.BroadcastRoomExcept(s.roomID, s.ConnID, EventMediaToggled, MediaToggledPayload{
		ID:    s.ConnID,
		Type:  req.Type,
		State: req.State,
	})
	r.transport.BroadcastRoom(s.roomID, EventParticipantsUpdate, r.rooms.Snapshot(s.roomID))
}

// Disconnect tears down the session when the transport reports the
// connection gone. Remaining members learn about the departure; the last
// leave deletes the room and nobody is notified.
func (r *Relay) Disconnect(s *Session) {
	if !s.Joined() {
		return
	}
	roomID := s.roomID
	s.roomID = ""

	r.transport.LeaveRoom(s.ConnID)
	if _, ok := r.rooms.Leave(roomID, s.ConnID); !ok {
		return
	}
	r.transport.BroadcastRoom(roomID, EventUserLeft, s.ConnID)
	r.transport.BroadcastRoom(roomID, EventParticipantsUpdate, r.rooms.Snapshot(roomID))
}
