package meeting

import (
	"errors"
	"time"
)

// Media kinds a participant can toggle.
const (
	MediaVideo = "video"
	MediaAudio = "audio"
)

// ErrWrongPassword is returned when a join attempt supplies a password that
// does not match the one fixed at room creation.
var ErrWrongPassword = errors.New("wrong meeting password")

// Participant is a connection's membership record within exactly one room.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Video bool   `json:"video"`
	Audio bool   `json:"audio"`
}

// ChatMessage is one entry in a room's chat history. Immutable once
// appended; the timestamp is assigned at server receipt time.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
