package rooms

import (
	"sync"
	"time"

	"github.com/example/knights-meet-server/domain/meeting"
)

// guestPrefixLen is how much of the connection id ends up in a generated
// guest label.
const guestPrefixLen = 4

// room holds the full state of one meeting room. The order slice preserves
// join order so roster snapshots enumerate deterministically.
type room struct {
	password     string
	participants map[string]*meeting.Participant
	order        []string
	chat         []meeting.ChatMessage
}

// Registry is the single source of truth for room existence, membership and
// chat history. A room exists iff it has at least one participant; empty
// rooms are deleted synchronously on the last leave.
//
// A single lock guards the whole table. No operation here is long-running,
// so the coarse lock is not a bottleneck.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
	}
}

// TryJoin validates the password against an existing room, or creates the
// room with the supplied password on first join. On success the participant
// is inserted with default media state and the current chat history is
// returned. The created flag reports whether this join created the room.
// No state is mutated on a password mismatch.
func (r *Registry) TryJoin(roomID, password, userName, connID string) (meeting.Participant, []meeting.ChatMessage, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, exists := r.rooms[roomID]
	if exists && rm.password != password {
		return meeting.Participant{}, nil, false, meeting.ErrWrongPassword
	}

	created := false
	if !exists {
		rm = &room{
			password:     password,
			participants: make(map[string]*meeting.Participant),
		}
		r.rooms[roomID] = rm
		created = true
	}

	name := userName
	if name == "" {
		name = "Guest-" + shortID(connID)
	}

	p := &meeting.Participant{
		ID:    connID,
		Name:  name,
		Video: true,
		Audio: true,
	}
	if _, ok := rm.participants[connID]; !ok {
		rm.order = append(rm.order, connID)
	}
	rm.participants[connID] = p

	history := make([]meeting.ChatMessage, len(rm.chat))
	copy(history, rm.chat)

	return *p, history, created, nil
}

// Leave removes the participant from the room, deleting the room when its
// last participant leaves. It returns the removed participant and how many
// participants remain; the boolean reports whether anything was removed.
func (r *Registry) Leave(roomID, connID string) (meeting.Participant, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return meeting.Participant{}, 0, false
	}
	p, ok := rm.participants[connID]
	if !ok {
		return meeting.Participant{}, 0, false
	}

	delete(rm.participants, connID)
	for i, id := range rm.order {
		if id == connID {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}

	remaining := len(rm.participants)
	if remaining == 0 {
		delete(r.rooms, roomID)
	}
	return *p, remaining, true
}

// SetMedia flips the named media flag on the participant. It silently does
// nothing when the room or participant is gone (a benign race with a
// concurrent disconnect) or when kind is not a known media type.
func (r *Registry) SetMedia(roomID, connID, kind string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	p, ok := rm.participants[connID]
	if !ok {
		return false
	}

	switch kind {
	case meeting.MediaVideo:
		p.Video = enabled
	case meeting.MediaAudio:
		p.Audio = enabled
	default:
		return false
	}
	return true
}

// Snapshot returns the current roster in join order. The result is always
// non-nil and safe for the caller to hold onto.
func (r *Registry) Snapshot(roomID string) []meeting.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return []meeting.Participant{}
	}

	roster := make([]meeting.Participant, 0, len(rm.order))
	for _, id := range rm.order {
		if p, ok := rm.participants[id]; ok {
			roster = append(roster, *p)
		}
	}
	return roster
}

// AppendChat stamps the message with the server's receipt time under the
// sender's current display name and appends it to the room history. It is a
// no-op when the room or sender no longer exists.
func (r *Registry) AppendChat(roomID, connID, text string) (meeting.ChatMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return meeting.ChatMessage{}, false
	}
	p, ok := rm.participants[connID]
	if !ok {
		return meeting.ChatMessage{}, false
	}

	msg := meeting.ChatMessage{
		Sender:    p.Name,
		Text:      text,
		Timestamp: time.Now(),
	}
	rm.chat = append(rm.chat, msg)
	return msg, true
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// ParticipantCount returns the number of participants across all rooms.
func (r *Registry) ParticipantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, rm := range r.rooms {
		total += len(rm.participants)
	}
	return total
}

func shortID(connID string) string {
	if len(connID) < guestPrefixLen {
		return connID
	}
	return connID[:guestPrefixLen]
}
