package httpx

import (
	"context"
	"time"

	"github.com/tanmaysrivastava45/Code-Sense/internal/session"
	"github.com/tanmaysrivastava45/Code-Sense/internal/store"
)

// Store interfaces consumed by the handlers; *store.Postgres satisfies all
// of them, tests substitute fakes.

type UserStore interface {
	CreateUser(ctx context.Context, email, password string) (store.User, error)
	VerifyUser(ctx context.Context, email, password string) (store.User, error)
}

type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, a store.Analysis) (store.Analysis, error)
	AnalysisHistory(ctx context.Context, userID string, limit int) ([]store.Analysis, error)
	AnalysisStats(ctx context.Context, userID string) (int64, *time.Time, error)
	DeleteAnalysis(ctx context.Context, id, userID string) error
}

type RoomStore interface {
	CreateRoomMeta(ctx context.Context, name, creatorID string, isPublic bool) (store.RoomMeta, error)
	ListRoomMeta(ctx context.Context, creatorID string) ([]store.RoomMeta, error)
	GetRoomMeta(ctx context.Context, id string) (store.RoomMeta, error)
	DeleteRoomMeta(ctx context.Context, id, creatorID string) error
}

// Stores bundles everything the router needs from the database;
// *store.Postgres satisfies it.
type Stores interface {
	UserStore
	AnalysisStore
	RoomStore
}

// Sessions is the login-session half of the auth flow.
type Sessions interface {
	Create(ctx context.Context, userID string) (string, error)
	Get(ctx context.Context, id string) (session.Record, error)
	Invalidate(ctx context.Context, id string) error
}
