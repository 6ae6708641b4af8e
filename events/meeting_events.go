package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomCreatedEvent is published when the first successful join creates a room.
type RoomCreatedEvent struct {
	RoomID    string    `json:"room_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomClosedEvent is published when the last participant leaves a room.
type RoomClosedEvent struct {
	RoomID    string    `json:"room_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantJoinedEvent is published on every successful join.
type ParticipantJoinedEvent struct {
	RoomID    string    `json:"room_id"`
	ConnID    string    `json:"conn_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantLeftEvent is published when a participant disconnects.
type ParticipantLeftEvent struct {
	RoomID    string    `json:"room_id"`
	ConnID    string    `json:"conn_id"`
	Name      string    `json:"name"`
	Remaining int       `json:"remaining"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the rooms module.
var (
	// RoomCreatedV1 is published when a room comes into existence.
	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"rooms",
		"RoomCreated",
		"v1",
	)

	// RoomClosedV1 is published when an empty room is deleted.
	RoomClosedV1 = helper.EventDefinition[RoomClosedEvent](
		"rooms",
		"RoomClosed",
		"v1",
	)

	// ParticipantJoinedV1 is published when a participant joins a room.
	ParticipantJoinedV1 = helper.EventDefinition[ParticipantJoinedEvent](
		"rooms",
		"ParticipantJoined",
		"v1",
	)

	// ParticipantLeftV1 is published when a participant leaves a room.
	ParticipantLeftV1 = helper.EventDefinition[ParticipantLeftEvent](
		"rooms",
		"ParticipantLeft",
		"v1",
	)
)
