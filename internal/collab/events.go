package collab

import (
	"encoding/json"
	"time"
)

// EventType names an event on the collaboration wire.
type EventType string

// Inbound events (client -> server).
const (
	EventJoinRoom        EventType = "join-room"
	EventCodeChange      EventType = "code-change"
	EventLanguageChange  EventType = "language-change"
	EventCursorMove      EventType = "cursor-move"
	EventAnalysisStarted EventType = "analysis-started"
	EventLeaveRoom       EventType = "leave-room"
)

// Outbound events (server -> client).
const (
	EventRoomState      EventType = "room-state"
	EventUserJoined     EventType = "user-joined"
	EventCodeUpdate     EventType = "code-update"
	EventLanguageUpdate EventType = "language-update"
	EventCursorUpdate   EventType = "cursor-update"
	EventUserAnalyzing  EventType = "user-analyzing"
	EventUserLeft       EventType = "user-left"
	EventError          EventType = "error"
)

// Envelope is the JSON frame exchanged over a connection.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Marshal wraps a payload in an envelope and encodes the whole frame.
func Marshal(t EventType, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: t, Data: raw})
}

type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type CodeChangePayload struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
	UserID string `json:"userId"`
}

type LanguageChangePayload struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

type CursorMovePayload struct {
	RoomID    string          `json:"roomId"`
	Position  json.RawMessage `json:"position"`
	Selection json.RawMessage `json:"selection"`
}

type AnalysisStartedPayload struct {
	RoomID       string `json:"roomId"`
	AnalysisType string `json:"analysisType"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// UserInfo describes one participant as seen by other clients.
type UserInfo struct {
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	Color        string    `json:"color"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// RoomStatePayload is the snapshot sent to a freshly joined connection.
// Users lists the participants that were present before the join; the
// joiner itself is not included.
type RoomStatePayload struct {
	Code     string     `json:"code"`
	Language string     `json:"language"`
	Users    []UserInfo `json:"users"`
}

type CodeUpdatePayload struct {
	Code   string `json:"code"`
	UserID string `json:"userId"`
}

type LanguageUpdatePayload struct {
	Language string `json:"language"`
}

type CursorUpdatePayload struct {
	ConnectionID string          `json:"connectionId"`
	Position     json.RawMessage `json:"position"`
	Selection    json.RawMessage `json:"selection"`
}

type UserAnalyzingPayload struct {
	ConnectionID string `json:"connectionId"`
	AnalysisType string `json:"analysisType"`
}

type UserLeftPayload struct {
	ConnectionID string `json:"connectionId"`
	UserName     string `json:"userName"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
