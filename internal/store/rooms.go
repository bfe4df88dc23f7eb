package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// CreateRoomMeta stores the durable record for a named room.
func (p *Postgres) CreateRoomMeta(ctx context.Context, name, creatorID string, isPublic bool) (RoomMeta, error) {
	if name == "" {
		name = "Untitled Room"
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO collaboration_rooms (name, creator_id, is_public)
		VALUES ($1, $2, $3)
		RETURNING id, name, creator_id, is_public, created_at
	`, name, creatorID, isPublic)

	var m RoomMeta
	if err := row.Scan(&m.ID, &m.Name, &m.CreatorID, &m.IsPublic, &m.CreatedAt); err != nil {
		return RoomMeta{}, err
	}
	return m, nil
}

// ListRoomMeta returns the rooms a user created, newest first.
func (p *Postgres) ListRoomMeta(ctx context.Context, creatorID string) ([]RoomMeta, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, creator_id, is_public, created_at
		FROM collaboration_rooms
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoomMeta
	for rows.Next() {
		var m RoomMeta
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatorID, &m.IsPublic, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetRoomMeta fetches one room record by id.
func (p *Postgres) GetRoomMeta(ctx context.Context, id string) (RoomMeta, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, name, creator_id, is_public, created_at
		FROM collaboration_rooms
		WHERE id = $1
	`, id)

	var m RoomMeta
	if err := row.Scan(&m.ID, &m.Name, &m.CreatorID, &m.IsPublic, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoomMeta{}, ErrNotFound
		}
		return RoomMeta{}, err
	}
	return m, nil
}

// DeleteRoomMeta removes a room record; only the creator may delete it.
func (p *Postgres) DeleteRoomMeta(ctx context.Context, id, creatorID string) error {
	ct, err := p.pool.Exec(ctx, `
		DELETE FROM collaboration_rooms WHERE id = $1 AND creator_id = $2
	`, id, creatorID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
