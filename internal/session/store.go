package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tanmaysrivastava45/Code-Sense/internal/app"
)

var ErrNotFound = errors.New("session not found")

// Record is what a session id resolves to.
type Record struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store keeps login sessions in redis with a TTL, so logout and expiry
// survive process restarts.
type Store struct {
	rdb *redis.Client
	log *slog.Logger
	ttl time.Duration
}

// NewStore connects to redis and verifies connectivity
func NewStore(ctx context.Context, cfg app.Config, log *slog.Logger) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Store{rdb: rdb, log: log, ttl: cfg.SessionTTL}, nil
}

// Create opens a session for userID and returns its id.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(Record{UserID: userID, CreatedAt: time.Now()})
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, key(id), raw, s.ttl).Err(); err != nil {
		return "", err
	}
	s.log.Debug("session.created", "user", userID)
	return id, nil
}

// Get resolves a session id; expired and unknown ids both miss.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	raw, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Invalidate drops a session; missing ids are not an error.
func (s *Store) Invalidate(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, key(id)).Err()
}

// Close shuts down the redis connection
func (s *Store) Close() { _ = s.rdb.Close() }

// key namespacing for session records
func key(id string) string { return "session:" + id }
