package collab

import (
	"context"
	"log/slog"
	"time"

	"github.com/tanmaysrivastava45/Code-Sense/pkg/metrics"
)

// Activity log actions.
const (
	ActionJoined = "joined"
	ActionLeft   = "left"
)

// ActivityLog is the durable join/leave sink. The broker never reads it
// back; writes are best effort.
type ActivityLog interface {
	Record(ctx context.Context, roomID, userID, action string, at time.Time) error
}

// Presence tracks who is in which room and keeps a global index from
// userId to its most recent connection. Mutations run on the broker
// dispatcher.
type Presence struct {
	log      *slog.Logger
	activity ActivityLog

	// userId -> latest connection id. A user with several tabs open has
	// several valid participants; the index only remembers the newest.
	userConns map[string]string
}

func NewPresence(log *slog.Logger, activity ActivityLog) *Presence {
	return &Presence{log: log, activity: activity, userConns: map[string]string{}}
}

// Join registers a connection in the room with a fresh random color and
// records the activity asynchronously.
func (p *Presence) Join(rm *Room, conn Sender, userID, userName string) *Participant {
	pt := &Participant{
		ConnectionID: conn.ID(),
		UserID:       userID,
		UserName:     userName,
		Color:        randomColor(),
		JoinedAt:     time.Now(),
		conn:         conn,
	}
	rm.Participants[pt.ConnectionID] = pt
	p.userConns[userID] = pt.ConnectionID
	p.record(rm.ID, userID, ActionJoined)
	return pt
}

// Leave removes a connection's participant and cursor entries. The global
// user index is only cleared when it still points at this connection, so
// a newer tab of the same user keeps its entry. Returns the removed
// participant, or nil if the connection was not in the room.
func (p *Presence) Leave(rm *Room, connID string) *Participant {
	pt, ok := rm.Participants[connID]
	if !ok {
		return nil
	}
	delete(rm.Participants, connID)
	delete(rm.Cursors, connID)
	if p.userConns[pt.UserID] == connID {
		delete(p.userConns, pt.UserID)
	}
	p.record(rm.ID, pt.UserID, ActionLeft)
	return pt
}

// ConnectionFor returns the most recent connection id for a user.
func (p *Presence) ConnectionFor(userID string) (string, bool) {
	id, ok := p.userConns[userID]
	return id, ok
}

// record writes to the activity log without ever blocking the dispatcher.
// Failures are logged and dropped.
func (p *Presence) record(roomID, userID, action string) {
	if p.activity == nil {
		return
	}
	at := time.Now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.activity.Record(ctx, roomID, userID, action, at); err != nil {
			metrics.ActivityLogFailures.Inc()
			p.log.Warn("activity.write", "room", roomID, "user", userID, "action", action, "err", err)
		}
	}()
}
