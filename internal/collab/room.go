package collab

import (
	"encoding/json"
	"math/rand/v2"
	"time"
)

// DefaultLanguage is the language a room starts with before anyone
// changes it.
const DefaultLanguage = "javascript"

// Room is one live editing session. All fields are owned by the broker
// dispatcher; nothing outside it may mutate them.
type Room struct {
	ID           string
	Code         string
	Language     string
	Participants map[string]*Participant // keyed by connection id
	Cursors      map[string]CursorState  // keyed by connection id
	CreatedAt    time.Time
}

func newRoom(id string) *Room {
	return &Room{
		ID:           id,
		Language:     DefaultLanguage,
		Participants: map[string]*Participant{},
		Cursors:      map[string]CursorState{},
		CreatedAt:    time.Now(),
	}
}

// Participant is one connection's presence inside a room.
type Participant struct {
	ConnectionID string
	UserID       string
	UserName     string
	Color        string
	JoinedAt     time.Time

	conn Sender
}

func (p *Participant) info() UserInfo {
	return UserInfo{
		ConnectionID: p.ConnectionID,
		UserID:       p.UserID,
		UserName:     p.UserName,
		Color:        p.Color,
		JoinedAt:     p.JoinedAt,
	}
}

// CursorState is the last reported cursor for a connection. Position and
// selection are opaque editor coordinates; the server relays them verbatim.
type CursorState struct {
	Position  json.RawMessage
	Selection json.RawMessage
}

// palette is the fixed set of participant colors. Picks are independent
// and uniform, so two participants can share a color.
var palette = [12]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
	"#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
	"#48C9B0", "#F39C12", "#9B59B6", "#3498DB",
}

func randomColor() string {
	return palette[rand.IntN(len(palette))]
}
