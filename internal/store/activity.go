package store

import (
	"context"
	"time"
)

// Record appends one join/leave entry to the collaboration log. It
// implements collab.ActivityLog; the broker calls it fire-and-forget and
// never reads the log back.
func (p *Postgres) Record(ctx context.Context, roomID, userID, action string, at time.Time) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO collaboration_log (room_id, user_id, action, ts)
		VALUES ($1, $2, $3, $4)
	`, roomID, userID, action, at)
	return err
}

// RecentActivity lists the latest log entries for a room, newest first.
func (p *Postgres) RecentActivity(ctx context.Context, roomID string, limit int) ([]ActivityEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, room_id, user_id, action, ts
		FROM collaboration_log
		WHERE room_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.RoomID, &e.UserID, &e.Action, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
