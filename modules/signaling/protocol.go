package signaling

import (
	"encoding/json"

	"github.com/example/knights-meet-server/domain/meeting"
)

// Wire event names. Field names and event names are fixed for client
// compatibility.
const (
	EventJoinRoom           = "join-room"
	EventPasswordError      = "password-error"
	EventJoinedSuccessfully = "joined-successfully"
	EventUserJoined         = "user-joined"
	EventParticipantsUpdate = "participants-update"
	EventSignal             = "signal"
	EventChatMessage        = "chat-message"
	EventToggleMedia        = "toggle-media"
	EventMediaToggled       = "media-toggled"
	EventUserLeft           = "user-left"
)

// passwordErrorMessage is the private reply to a rejected join.
const passwordErrorMessage = "Incorrect meeting password."

// Envelope is the inbound wire frame: a named event with an opaque payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRoomPayload is the payload of an inbound join-room event. A missing
// userName yields a generated guest label downstream.
type JoinRoomPayload struct {
	RoomID   string `json:"roomID"`
	Password string `json:"password"`
	UserName string `json:"userName"`
}

// JoinedPayload is the private joined-successfully reply, carrying the
// assigned display name and the full chat history of the room.
type JoinedPayload struct {
	RoomID      string                `json:"roomID"`
	Name        string                `json:"name"`
	ChatHistory []meeting.ChatMessage `json:"chatHistory"`
}

// ToggleMediaPayload is the payload of an inbound toggle-media event.
type ToggleMediaPayload struct {
	Type  string `json:"type"`
	State bool   `json:"state"`
}

// MediaToggledPayload is broadcast to the rest of the room after a toggle.
type MediaToggledPayload struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	State bool   `json:"state"`
}
