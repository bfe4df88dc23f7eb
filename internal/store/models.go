package store

import "time"

type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Analysis is one stored code-analysis result. The analysis text itself is
// produced elsewhere; this backend only keeps the history.
type Analysis struct {
	ID              string
	UserID          string
	ProblemName     string
	Code            string
	Language        string
	SyntaxErrors    string
	TimeComplexity  string
	SpaceComplexity string
	Explanation     string
	Improvements    string
	CreatedAt       time.Time
}

// RoomMeta is the durable record of a named room. Live room state stays in
// memory and does not depend on these rows existing.
type RoomMeta struct {
	ID        string
	Name      string
	CreatorID string
	IsPublic  bool
	CreatedAt time.Time
}

// ActivityEntry is one row of the join/leave log.
type ActivityEntry struct {
	ID        int64
	RoomID    string
	UserID    string
	Action    string
	Timestamp time.Time
}
