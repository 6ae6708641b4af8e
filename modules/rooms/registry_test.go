package rooms

import (
	"fmt"
	"testing"
	"time"

	"github.com/example/knights-meet-server/domain/meeting"
)

func TestRegistry_TryJoin_PasswordGating(t *testing.T) {
	r := NewRegistry()

	// First join fixes the room password.
	p, history, created, err := r.TryJoin("team1", "secret", "Alice", "conn-a")
	if err != nil {
		t.Fatalf("TryJoin() unexpected error: %v", err)
	}
	if !created {
		t.Error("TryJoin() created = false, want true for first join")
	}
	if p.Name != "Alice" {
		t.Errorf("TryJoin() name = %q, want %q", p.Name, "Alice")
	}
	if len(history) != 0 {
		t.Errorf("TryJoin() history length = %d, want 0", len(history))
	}

	tests := []struct {
		name        string
		password    string
		expectError bool
	}{
		{
			name:        "matching password",
			password:    "secret",
			expectError: false,
		},
		{
			name:        "wrong password",
			password:    "Secret",
			expectError: true,
		},
		{
			name:        "empty password against non-empty",
			password:    "",
			expectError: true,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(r.Snapshot("team1"))
			_, _, created, err := r.TryJoin("team1", tt.password, "Bob", fmt.Sprintf("conn-%d", i))

			if tt.expectError {
				if err != meeting.ErrWrongPassword {
					t.Fatalf("TryJoin() error = %v, want ErrWrongPassword", err)
				}
				if got := len(r.Snapshot("team1")); got != before {
					t.Errorf("TryJoin() roster changed on rejected join: %d -> %d", before, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("TryJoin() unexpected error: %v", err)
			}
			if created {
				t.Error("TryJoin() created = true, want false for existing room")
			}
		})
	}
}

func TestRegistry_TryJoin_GuestName(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		userName string
		connID   string
		want     string
	}{
		{
			name:     "supplied name kept",
			userName: "Alice",
			connID:   "abcdef12",
			want:     "Alice",
		},
		{
			name:     "missing name generates guest label",
			userName: "",
			connID:   "abcdef34",
			want:     "Guest-abcd",
		},
		{
			name:     "short conn id used whole",
			userName: "",
			connID:   "ab",
			want:     "Guest-ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _, err := r.TryJoin("room-"+tt.connID, "pw", tt.userName, tt.connID)
			if err != nil {
				t.Fatalf("TryJoin() unexpected error: %v", err)
			}
			if p.Name != tt.want {
				t.Errorf("TryJoin() name = %q, want %q", p.Name, tt.want)
			}
		})
	}
}

func TestRegistry_TryJoin_MediaDefaults(t *testing.T) {
	r := NewRegistry()

	p, _, _, err := r.TryJoin("team1", "pw", "Alice", "conn-a")
	if err != nil {
		t.Fatalf("TryJoin() unexpected error: %v", err)
	}
	if !p.Video {
		t.Error("TryJoin() video = false, want true on join")
	}
	if !p.Audio {
		t.Error("TryJoin() audio = false, want true on join")
	}
}

func TestRegistry_Leave(t *testing.T) {
	r := NewRegistry()

	// Three joins, then leaves in mixed order.
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		if _, _, _, err := r.TryJoin("team1", "pw", name, fmt.Sprintf("conn-%d", i)); err != nil {
			t.Fatalf("TryJoin() unexpected error: %v", err)
		}
	}

	p, remaining, ok := r.Leave("team1", "conn-1")
	if !ok {
		t.Fatal("Leave() ok = false, want true")
	}
	if p.Name != "Bob" {
		t.Errorf("Leave() participant = %q, want %q", p.Name, "Bob")
	}
	if remaining != 2 {
		t.Errorf("Leave() remaining = %d, want 2", remaining)
	}

	// Unknown participant and unknown room are no-ops.
	if _, _, ok := r.Leave("team1", "conn-1"); ok {
		t.Error("Leave() ok = true for already-removed participant")
	}
	if _, _, ok := r.Leave("no-such-room", "conn-0"); ok {
		t.Error("Leave() ok = true for unknown room")
	}

	// Room is deleted on last leave.
	r.Leave("team1", "conn-0")
	_, remaining, ok = r.Leave("team1", "conn-2")
	if !ok || remaining != 0 {
		t.Fatalf("Leave() = (remaining=%d, ok=%v), want (0, true)", remaining, ok)
	}
	if r.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0 after last leave", r.RoomCount())
	}

	// A fresh join to the same id establishes a fresh password.
	if _, _, created, err := r.TryJoin("team1", "different", "Dave", "conn-9"); err != nil || !created {
		t.Errorf("TryJoin() after room deletion = (created=%v, err=%v), want (true, nil)", created, err)
	}
}

func TestRegistry_Snapshot_JoinOrder(t *testing.T) {
	r := NewRegistry()

	ids := []string{"conn-a", "conn-b", "conn-c", "conn-d"}
	for i, id := range ids {
		if _, _, _, err := r.TryJoin("team1", "pw", fmt.Sprintf("user-%d", i), id); err != nil {
			t.Fatalf("TryJoin() unexpected error: %v", err)
		}
	}

	roster := r.Snapshot("team1")
	if len(roster) != 4 {
		t.Fatalf("Snapshot() length = %d, want 4", len(roster))
	}
	for i, p := range roster {
		if p.ID != ids[i] {
			t.Errorf("Snapshot()[%d].ID = %q, want %q", i, p.ID, ids[i])
		}
	}

	// Removing from the middle keeps the remaining order intact.
	r.Leave("team1", "conn-b")
	roster = r.Snapshot("team1")
	want := []string{"conn-a", "conn-c", "conn-d"}
	if len(roster) != len(want) {
		t.Fatalf("Snapshot() length = %d, want %d", len(roster), len(want))
	}
	for i, p := range roster {
		if p.ID != want[i] {
			t.Errorf("Snapshot()[%d].ID = %q, want %q", i, p.ID, want[i])
		}
	}

	// Unknown room yields an empty, non-nil roster.
	if got := r.Snapshot("no-such-room"); got == nil || len(got) != 0 {
		t.Errorf("Snapshot() for unknown room = %v, want empty slice", got)
	}
}

func TestRegistry_SetMedia(t *testing.T) {
	r := NewRegistry()
	if _, _, _, err := r.TryJoin("team1", "pw", "Alice", "conn-a"); err != nil {
		t.Fatalf("TryJoin() unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		roomID  string
		connID  string
		kind    string
		enabled bool
		want    bool
	}{
		{
			name:   "disable audio",
			roomID: "team1",
			connID: "conn-a",
			kind:   meeting.MediaAudio,
			want:   true,
		},
		{
			name:    "enable video",
			roomID:  "team1",
			connID:  "conn-a",
			kind:    meeting.MediaVideo,
			enabled: true,
			want:    true,
		},
		{
			name:   "unknown media kind",
			roomID: "team1",
			connID: "conn-a",
			kind:   "screen",
			want:   false,
		},
		{
			name:   "unknown participant",
			roomID: "team1",
			connID: "conn-x",
			kind:   meeting.MediaAudio,
			want:   false,
		},
		{
			name:   "unknown room",
			roomID: "nope",
			connID: "conn-a",
			kind:   meeting.MediaAudio,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.SetMedia(tt.roomID, tt.connID, tt.kind, tt.enabled); got != tt.want {
				t.Errorf("SetMedia() = %v, want %v", got, tt.want)
			}
		})
	}

	roster := r.Snapshot("team1")
	if len(roster) != 1 {
		t.Fatalf("Snapshot() length = %d, want 1", len(roster))
	}
	if roster[0].Audio {
		t.Error("Snapshot() audio = true, want false after toggle")
	}
	if !roster[0].Video {
		t.Error("Snapshot() video = false, want true")
	}
}

func TestRegistry_AppendChat(t *testing.T) {
	r := NewRegistry()
	if _, _, _, err := r.TryJoin("team1", "pw", "Alice", "conn-a"); err != nil {
		t.Fatalf("TryJoin() unexpected error: %v", err)
	}

	before := time.Now()
	msg, ok := r.AppendChat("team1", "conn-a", "hi")
	if !ok {
		t.Fatal("AppendChat() ok = false, want true")
	}
	if msg.Sender != "Alice" {
		t.Errorf("AppendChat() sender = %q, want %q", msg.Sender, "Alice")
	}
	if msg.Text != "hi" {
		t.Errorf("AppendChat() text = %q, want %q", msg.Text, "hi")
	}
	if msg.Timestamp.Before(before) || msg.Timestamp.After(time.Now()) {
		t.Errorf("AppendChat() timestamp %v not within server receipt window", msg.Timestamp)
	}

	// Misses are silent no-ops.
	if _, ok := r.AppendChat("no-such-room", "conn-a", "hi"); ok {
		t.Error("AppendChat() ok = true for unknown room")
	}
	if _, ok := r.AppendChat("team1", "conn-x", "hi"); ok {
		t.Error("AppendChat() ok = true for unknown sender")
	}

	// History is replayed in full to a later joiner.
	r.AppendChat("team1", "conn-a", "second")
	_, history, _, err := r.TryJoin("team1", "pw", "Bob", "conn-b")
	if err != nil {
		t.Fatalf("TryJoin() unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("TryJoin() history length = %d, want 2", len(history))
	}
	if history[0].Text != "hi" || history[1].Text != "second" {
		t.Errorf("TryJoin() history out of order: %q, %q", history[0].Text, history[1].Text)
	}
}

func BenchmarkRegistry_TryJoin(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		connID := fmt.Sprintf("conn-%d", i)
		_, _, _, _ = r.TryJoin("bench", "pw", "", connID)
	}
}

func BenchmarkRegistry_AppendChat(b *testing.B) {
	r := NewRegistry()
	_, _, _, _ = r.TryJoin("bench", "pw", "Alice", "conn-a")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.AppendChat("bench", "conn-a", "benchmark message")
	}
}
