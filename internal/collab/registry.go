package collab

import (
	"log/slog"
	"time"
)

// Registry owns the map of live rooms and the pending-eviction table.
// Every method except timer arming runs on the broker dispatcher, so the
// maps need no locking.
type Registry struct {
	log   *slog.Logger
	grace time.Duration

	rooms   map[string]*Room
	pending map[string]pendingEviction
}

type pendingEviction struct {
	due   time.Time
	timer *time.Timer
}

// NewRegistry builds an empty registry. Grace is how long a room must stay
// empty before it is evicted.
func NewRegistry(log *slog.Logger, grace time.Duration) *Registry {
	return &Registry{
		log:     log,
		grace:   grace,
		rooms:   map[string]*Room{},
		pending: map[string]pendingEviction{},
	}
}

// Get looks up a live room. A missing room is not an error; callers drop
// the event.
func (r *Registry) Get(roomID string) (*Room, bool) {
	rm, ok := r.rooms[roomID]
	return rm, ok
}

// CreateOrGet returns the room for roomID, initializing an empty one on
// first join. Repeated calls never reset existing state. A join also
// clears any pending eviction, so an armed timer that later fires finds
// nothing to do.
func (r *Registry) CreateOrGet(roomID string) *Room {
	delete(r.pending, roomID)
	if rm, ok := r.rooms[roomID]; ok {
		return rm
	}
	rm := newRoom(roomID)
	r.rooms[roomID] = rm
	r.log.Info("room.created", "room", roomID)
	return rm
}

// ScheduleEviction records a pending eviction for a room whose participant
// count just hit zero. When the grace period elapses, due is invoked with
// the room id; callers are expected to route it back onto their dispatch
// loop and call EvictIfEmpty there. A join during the window clears the
// pending entry rather than cancelling the timer, so a late fire no-ops.
func (r *Registry) ScheduleEviction(roomID string, due func(roomID string)) {
	if old, ok := r.pending[roomID]; ok {
		old.timer.Stop()
	}
	r.pending[roomID] = pendingEviction{
		due:   time.Now().Add(r.grace),
		timer: time.AfterFunc(r.grace, func() { due(roomID) }),
	}
	r.log.Debug("room.eviction.scheduled", "room", roomID, "grace", r.grace)
}

// EvictIfEmpty performs the fire-time re-check for a scheduled eviction.
// The room is deleted only if an eviction is still pending, its deadline
// has passed, and the room is still empty. Returns whether the room was
// evicted.
func (r *Registry) EvictIfEmpty(roomID string) bool {
	ev, ok := r.pending[roomID]
	if !ok {
		// Rejoined during the grace window; stale timer fire.
		return false
	}
	if time.Now().Before(ev.due) {
		// Fire from a superseded schedule; the live timer checks later.
		return false
	}
	delete(r.pending, roomID)

	rm, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if len(rm.Participants) > 0 {
		return false
	}
	delete(r.rooms, roomID)
	r.log.Info("room.evicted", "room", roomID)
	return true
}

// Len reports the number of live rooms.
func (r *Registry) Len() int { return len(r.rooms) }
