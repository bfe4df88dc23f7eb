package collab

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tanmaysrivastava45/Code-Sense/pkg/metrics"
)

type cmdKind int

const (
	cmdEvent cmdKind = iota
	cmdDisconnect
	cmdEvictCheck
)

type command struct {
	kind   cmdKind
	sess   *Session
	env    Envelope
	roomID string // evict check only
}

// Broker is the broadcast router. A single dispatcher goroutine drains the
// command queue and performs every room mutation and fanout, so events for
// one room are observed by all recipients in arrival order and the
// registry/presence maps never need locks.
type Broker struct {
	log      *slog.Logger
	registry *Registry
	presence *Presence
	commands chan command
}

// NewBroker wires the router to an explicitly constructed registry and
// presence tracker.
func NewBroker(log *slog.Logger, registry *Registry, presence *Presence) *Broker {
	return &Broker{
		log:      log,
		registry: registry,
		presence: presence,
		commands: make(chan command, 1024),
	}
}

// Run drains the command queue until ctx is cancelled.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-b.commands:
			b.process(cmd)
		}
	}
}

// Connect registers a fresh transport connection with the broker.
func (b *Broker) Connect(conn Sender) *Session {
	return NewSession(conn)
}

// Dispatch queues an inbound event for the session.
func (b *Broker) Dispatch(s *Session, env Envelope) {
	b.commands <- command{kind: cmdEvent, sess: s, env: env}
}

// Disconnect queues the transport-level close for the session.
func (b *Broker) Disconnect(s *Session) {
	b.commands <- command{kind: cmdDisconnect, sess: s}
}

// process handles one command to completion. A panic in one event must
// not take down the dispatcher or leak into other connections: it is
// recovered here and, for a join, reported back to the offending
// connection only.
func (b *Broker) process(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("broker.event.panic", "kind", cmd.kind, "err", r)
			if cmd.kind == cmdEvent && cmd.env.Type == EventJoinRoom && cmd.sess != nil {
				b.sendTo(cmd.sess.conn, EventError, ErrorPayload{Message: "Failed to join room"})
			}
		}
	}()

	switch cmd.kind {
	case cmdEvent:
		b.handleEvent(cmd.sess, cmd.env)
	case cmdDisconnect:
		b.handleDisconnect(cmd.sess)
	case cmdEvictCheck:
		if b.registry.EvictIfEmpty(cmd.roomID) {
			metrics.ActiveRooms.Dec()
		}
	}
}

func (b *Broker) handleEvent(s *Session, env Envelope) {
	metrics.EventsTotal.WithLabelValues(string(env.Type)).Inc()

	switch env.Type {
	case EventJoinRoom:
		if s.state != StateConnected {
			b.log.Debug("broker.event.dropped", "type", env.Type, "state", s.state)
			return
		}
		var p JoinRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			b.sendTo(s.conn, EventError, ErrorPayload{Message: "Failed to join room"})
			return
		}
		b.handleJoin(s, p)

	case EventCodeChange:
		if s.state != StateJoined {
			return
		}
		var p CodeChangePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		rm, ok := b.registry.Get(p.RoomID)
		if !ok {
			return
		}
		// Full-document replace; later arrivals win outright.
		rm.Code = p.Code
		b.broadcast(rm, s.conn.ID(), EventCodeUpdate, CodeUpdatePayload{Code: p.Code, UserID: p.UserID})

	case EventLanguageChange:
		if s.state != StateJoined {
			return
		}
		var p LanguageChangePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		rm, ok := b.registry.Get(p.RoomID)
		if !ok {
			return
		}
		rm.Language = p.Language
		b.broadcast(rm, s.conn.ID(), EventLanguageUpdate, LanguageUpdatePayload{Language: p.Language})

	case EventCursorMove:
		if s.state != StateJoined {
			return
		}
		var p CursorMovePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		rm, ok := b.registry.Get(p.RoomID)
		if !ok {
			return
		}
		rm.Cursors[s.conn.ID()] = CursorState{Position: p.Position, Selection: p.Selection}
		b.broadcast(rm, s.conn.ID(), EventCursorUpdate, CursorUpdatePayload{
			ConnectionID: s.conn.ID(),
			Position:     p.Position,
			Selection:    p.Selection,
		})

	case EventAnalysisStarted:
		if s.state != StateJoined {
			return
		}
		var p AnalysisStartedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		rm, ok := b.registry.Get(p.RoomID)
		if !ok {
			return
		}
		// Pure notification, no room mutation.
		b.broadcast(rm, s.conn.ID(), EventUserAnalyzing, UserAnalyzingPayload{
			ConnectionID: s.conn.ID(),
			AnalysisType: p.AnalysisType,
		})

	case EventLeaveRoom:
		if s.state != StateJoined {
			return
		}
		b.leaveRoom(s)
		s.state = StateDisconnected

	default:
		b.log.Debug("broker.event.unknown", "type", env.Type)
	}
}

func (b *Broker) handleJoin(s *Session, p JoinRoomPayload) {
	before := b.registry.Len()
	rm := b.registry.CreateOrGet(p.RoomID)
	if b.registry.Len() > before {
		metrics.ActiveRooms.Inc()
	}

	// Snapshot the members present before this join; the snapshot a
	// joiner receives never lists the joiner itself.
	users := make([]UserInfo, 0, len(rm.Participants))
	for _, pt := range rm.Participants {
		users = append(users, pt.info())
	}

	pt := b.presence.Join(rm, s.conn, p.UserID, p.UserName)
	s.state = StateJoined
	s.roomID = p.RoomID
	s.userID = p.UserID
	s.userName = p.UserName

	b.sendTo(s.conn, EventRoomState, RoomStatePayload{
		Code:     rm.Code,
		Language: rm.Language,
		Users:    users,
	})
	b.broadcast(rm, s.conn.ID(), EventUserJoined, pt.info())
	b.log.Info("room.joined", "room", rm.ID, "user", p.UserID, "conn", s.conn.ID(), "members", len(rm.Participants))
}

func (b *Broker) handleDisconnect(s *Session) {
	if s.state == StateJoined {
		b.leaveRoom(s)
	}
	s.state = StateDisconnected
}

// leaveRoom removes the session from its room, notifies the remaining
// members, and schedules eviction when the room just emptied.
func (b *Broker) leaveRoom(s *Session) {
	rm, ok := b.registry.Get(s.roomID)
	if !ok {
		return
	}
	pt := b.presence.Leave(rm, s.conn.ID())
	if pt == nil {
		return
	}
	b.broadcast(rm, s.conn.ID(), EventUserLeft, UserLeftPayload{
		ConnectionID: s.conn.ID(),
		UserName:     pt.UserName,
	})
	if len(rm.Participants) == 0 {
		b.registry.ScheduleEviction(rm.ID, b.evictionDue)
	}
	b.log.Info("room.left", "room", rm.ID, "user", pt.UserID, "conn", s.conn.ID(), "members", len(rm.Participants))
}

// evictionDue runs on the eviction timer goroutine; it only re-enters the
// dispatcher so the fire-time re-check is serialized like everything else.
func (b *Broker) evictionDue(roomID string) {
	b.commands <- command{kind: cmdEvictCheck, roomID: roomID}
}

// broadcast fans an event out to every participant except the sender.
func (b *Broker) broadcast(rm *Room, exceptConnID string, t EventType, data any) {
	frame, err := Marshal(t, data)
	if err != nil {
		b.log.Error("broker.marshal", "type", t, "err", err)
		return
	}
	for id, pt := range rm.Participants {
		if id == exceptConnID {
			continue
		}
		pt.conn.Send(frame)
	}
}

// sendTo delivers an event to a single connection.
func (b *Broker) sendTo(conn Sender, t EventType, data any) {
	frame, err := Marshal(t, data)
	if err != nil {
		b.log.Error("broker.marshal", "type", t, "err", err)
		return
	}
	conn.Send(frame)
}
