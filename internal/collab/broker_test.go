package collab

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func newRunContext(t *testing.T, b *Broker) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	return cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func newTestBroker(grace time.Duration) *Broker {
	log := testLogger()
	return NewBroker(log, NewRegistry(log, grace), NewPresence(log, nil))
}

// deliver pushes one inbound event straight through the dispatcher,
// bypassing the queue so tests stay deterministic.
func deliver(t *testing.T, b *Broker, s *Session, typ EventType, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	b.process(command{kind: cmdEvent, sess: s, env: Envelope{Type: typ, Data: raw}})
}

func (f *fakeConn) events(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, 0, len(f.frames))
	for _, frame := range f.frames {
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("bad frame %q: %v", frame, err)
		}
		out = append(out, env)
	}
	return out
}

// lastOf returns the most recent event of the given type, or fails.
func (f *fakeConn) lastOf(t *testing.T, typ EventType) Envelope {
	t.Helper()
	evs := f.events(t)
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == typ {
			return evs[i]
		}
	}
	t.Fatalf("conn %s never received %q (got %d events)", f.id, typ, len(evs))
	return Envelope{}
}

func (f *fakeConn) countOf(t *testing.T, typ EventType) int {
	n := 0
	for _, e := range f.events(t) {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func decodeInto(t *testing.T, env Envelope, v any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode %s payload: %v", env.Type, err)
	}
}

func join(t *testing.T, b *Broker, conn *fakeConn, roomID, userID, name string) *Session {
	t.Helper()
	s := b.Connect(conn)
	deliver(t, b, s, EventJoinRoom, JoinRoomPayload{RoomID: roomID, UserID: userID, UserName: name})
	return s
}

func TestEndToEndScenario(t *testing.T) {
	b := newTestBroker(20 * time.Millisecond)

	// Alice joins the unjoined room R1.
	alice := newFakeConn("conn-alice")
	sAlice := join(t, b, alice, "R1", "u-alice", "Alice")
	if sAlice.State() != StateJoined {
		t.Fatalf("alice state = %v, want joined", sAlice.State())
	}

	var snap RoomStatePayload
	decodeInto(t, alice.lastOf(t, EventRoomState), &snap)
	if snap.Code != "" || snap.Language != "javascript" || len(snap.Users) != 0 {
		t.Fatalf("alice snapshot = %+v, want empty room with empty user list", snap)
	}

	// Bob joins: his snapshot lists Alice; Alice is notified.
	bob := newFakeConn("conn-bob")
	sBob := join(t, b, bob, "R1", "u-bob", "Bob")

	decodeInto(t, bob.lastOf(t, EventRoomState), &snap)
	if len(snap.Users) != 1 || snap.Users[0].UserName != "Alice" {
		t.Fatalf("bob snapshot users = %+v, want [Alice]", snap.Users)
	}
	var joined UserInfo
	decodeInto(t, alice.lastOf(t, EventUserJoined), &joined)
	if joined.UserName != "Bob" || joined.ConnectionID != "conn-bob" {
		t.Fatalf("alice user-joined = %+v, want Bob", joined)
	}

	// Bob edits: Alice sees the update, Bob hears nothing back.
	deliver(t, b, sBob, EventCodeChange, CodeChangePayload{RoomID: "R1", Code: "print(1)", UserID: "u-bob"})
	var upd CodeUpdatePayload
	decodeInto(t, alice.lastOf(t, EventCodeUpdate), &upd)
	if upd.Code != "print(1)" {
		t.Fatalf("alice code-update = %+v", upd)
	}
	if n := bob.countOf(t, EventCodeUpdate); n != 0 {
		t.Fatalf("bob received %d echoes of his own edit", n)
	}

	// Bob disconnects: Alice is notified, no eviction yet.
	b.process(command{kind: cmdDisconnect, sess: sBob})
	var left UserLeftPayload
	decodeInto(t, alice.lastOf(t, EventUserLeft), &left)
	if left.UserName != "Bob" {
		t.Fatalf("user-left = %+v, want Bob", left)
	}
	if len(b.registry.pending) != 0 {
		t.Fatal("eviction scheduled while the room still has a member")
	}

	// Alice disconnects: room empty, eviction pending.
	b.process(command{kind: cmdDisconnect, sess: sAlice})
	if _, ok := b.registry.pending["R1"]; !ok {
		t.Fatal("eviction not scheduled for the emptied room")
	}

	// Nobody rejoins within the grace window.
	time.Sleep(40 * time.Millisecond)
	b.process(command{kind: cmdEvictCheck, roomID: "R1"})
	if _, ok := b.registry.Get("R1"); ok {
		t.Fatal("room survived its grace period empty")
	}
}

func TestUnknownRoomEventsAreDropped(t *testing.T) {
	b := newTestBroker(time.Minute)

	conn := newFakeConn("c1")
	s := b.Connect(conn)
	// Force the joined state against a room that was never created.
	s.state = StateJoined
	s.roomID = "ghost"

	deliver(t, b, s, EventCodeChange, CodeChangePayload{RoomID: "ghost", Code: "x"})
	deliver(t, b, s, EventLanguageChange, LanguageChangePayload{RoomID: "ghost", Language: "go"})
	deliver(t, b, s, EventCursorMove, CursorMovePayload{RoomID: "ghost"})
	deliver(t, b, s, EventAnalysisStarted, AnalysisStartedPayload{RoomID: "ghost", AnalysisType: "full"})

	if got := len(conn.events(t)); got != 0 {
		t.Fatalf("%d events emitted for an unknown room, want 0", got)
	}
	if b.registry.Len() != 0 {
		t.Fatal("unknown-room event materialized a room")
	}
}

func TestLastWriteWins(t *testing.T) {
	b := newTestBroker(time.Minute)
	a, c, observer := newFakeConn("a"), newFakeConn("c"), newFakeConn("o")
	sa := join(t, b, a, "R1", "u-a", "A")
	sc := join(t, b, c, "R1", "u-c", "C")
	join(t, b, observer, "R1", "u-o", "O")

	deliver(t, b, sa, EventCodeChange, CodeChangePayload{RoomID: "R1", Code: "version A", UserID: "u-a"})
	deliver(t, b, sc, EventCodeChange, CodeChangePayload{RoomID: "R1", Code: "version B", UserID: "u-c"})

	var upd CodeUpdatePayload
	decodeInto(t, observer.lastOf(t, EventCodeUpdate), &upd)
	if upd.Code != "version B" {
		t.Fatalf("observer final code = %q, want the later write", upd.Code)
	}
	rm, _ := b.registry.Get("R1")
	if rm.Code != "version B" {
		t.Fatalf("room code = %q, want the later write", rm.Code)
	}
}

func TestNoSelfEcho(t *testing.T) {
	b := newTestBroker(time.Minute)
	sender, other := newFakeConn("s"), newFakeConn("o")
	ss := join(t, b, sender, "R1", "u-s", "S")
	join(t, b, other, "R1", "u-o", "O")

	deliver(t, b, ss, EventCodeChange, CodeChangePayload{RoomID: "R1", Code: "x"})
	deliver(t, b, ss, EventLanguageChange, LanguageChangePayload{RoomID: "R1", Language: "go"})
	deliver(t, b, ss, EventCursorMove, CursorMovePayload{RoomID: "R1", Position: json.RawMessage(`{"line":1}`)})

	for _, typ := range []EventType{EventCodeUpdate, EventLanguageUpdate, EventCursorUpdate} {
		if n := sender.countOf(t, typ); n != 0 {
			t.Errorf("sender echoed %d %s events", n, typ)
		}
		if n := other.countOf(t, typ); n != 1 {
			t.Errorf("other saw %d %s events, want 1", n, typ)
		}
	}
}

func TestCursorStateReplacedPerConnection(t *testing.T) {
	b := newTestBroker(time.Minute)
	conn, other := newFakeConn("c"), newFakeConn("o")
	s := join(t, b, conn, "R1", "u1", "U")
	join(t, b, other, "R1", "u2", "O")

	deliver(t, b, s, EventCursorMove, CursorMovePayload{RoomID: "R1", Position: json.RawMessage(`{"line":1}`)})
	deliver(t, b, s, EventCursorMove, CursorMovePayload{RoomID: "R1", Position: json.RawMessage(`{"line":9}`)})

	rm, _ := b.registry.Get("R1")
	if got := string(rm.Cursors["c"].Position); got != `{"line":9}` {
		t.Fatalf("cursor = %s, want last write", got)
	}
}

func TestAnalysisStartedIsPureNotification(t *testing.T) {
	b := newTestBroker(time.Minute)
	conn, other := newFakeConn("c"), newFakeConn("o")
	s := join(t, b, conn, "R1", "u1", "U")
	join(t, b, other, "R1", "u2", "O")

	rm, _ := b.registry.Get("R1")
	codeBefore := rm.Code

	deliver(t, b, s, EventAnalysisStarted, AnalysisStartedPayload{RoomID: "R1", AnalysisType: "complexity"})

	var note UserAnalyzingPayload
	decodeInto(t, other.lastOf(t, EventUserAnalyzing), &note)
	if note.AnalysisType != "complexity" || note.ConnectionID != "c" {
		t.Fatalf("user-analyzing = %+v", note)
	}
	if rm.Code != codeBefore {
		t.Fatal("analysis-started mutated room state")
	}
}

func TestMalformedJoinReportedOnlyToSender(t *testing.T) {
	b := newTestBroker(time.Minute)
	bystander := newFakeConn("by")
	join(t, b, bystander, "R1", "u-by", "By")
	before := len(bystander.events(t))

	bad := newFakeConn("bad")
	s := b.Connect(bad)
	b.process(command{kind: cmdEvent, sess: s, env: Envelope{Type: EventJoinRoom, Data: json.RawMessage(`{notjson`)}})

	var ep ErrorPayload
	decodeInto(t, bad.lastOf(t, EventError), &ep)
	if ep.Message == "" {
		t.Fatal("expected an error message")
	}
	if s.State() == StateJoined {
		t.Fatal("failed join must not transition the session")
	}
	if len(bystander.events(t)) != before {
		t.Fatal("failure leaked to another connection")
	}
}

func TestPanicInOneEventIsIsolated(t *testing.T) {
	b := newTestBroker(time.Minute)

	// A nil session panics inside the handler; the dispatcher must absorb it.
	b.process(command{kind: cmdEvent, sess: nil, env: Envelope{Type: EventCodeChange, Data: json.RawMessage(`{}`)}})

	// The dispatcher still works afterwards.
	conn := newFakeConn("c1")
	join(t, b, conn, "R1", "u1", "U")
	conn.lastOf(t, EventRoomState)
}

func TestSecondJoinFromJoinedSessionIsDropped(t *testing.T) {
	b := newTestBroker(time.Minute)
	conn := newFakeConn("c1")
	s := join(t, b, conn, "R1", "u1", "U")

	deliver(t, b, s, EventJoinRoom, JoinRoomPayload{RoomID: "R2", UserID: "u1", UserName: "U"})
	if s.RoomID() != "R1" {
		t.Fatalf("session room = %q, want to stay R1", s.RoomID())
	}
	if _, ok := b.registry.Get("R2"); ok {
		t.Fatal("join from joined state created a room")
	}
}

func TestEventsAfterLeaveAreDropped(t *testing.T) {
	b := newTestBroker(time.Minute)
	conn, other := newFakeConn("c"), newFakeConn("o")
	s := join(t, b, conn, "R1", "u1", "U")
	join(t, b, other, "R1", "u2", "O")

	deliver(t, b, s, EventLeaveRoom, LeaveRoomPayload{RoomID: "R1", UserID: "u1"})
	if s.State() != StateDisconnected {
		t.Fatalf("state after leave = %v, want disconnected", s.State())
	}
	before := other.countOf(t, EventCodeUpdate)

	deliver(t, b, s, EventCodeChange, CodeChangePayload{RoomID: "R1", Code: "zombie"})
	if other.countOf(t, EventCodeUpdate) != before {
		t.Fatal("event from a disconnected session was broadcast")
	}
	rm, _ := b.registry.Get("R1")
	if rm.Code == "zombie" {
		t.Fatal("disconnected session mutated room state")
	}
}

func TestRejoinDuringGracePreservesRoomState(t *testing.T) {
	b := newTestBroker(20 * time.Millisecond)
	conn := newFakeConn("c1")
	s := join(t, b, conn, "R1", "u1", "U")
	deliver(t, b, s, EventCodeChange, CodeChangePayload{RoomID: "R1", Code: "keep me", UserID: "u1"})
	deliver(t, b, s, EventLanguageChange, LanguageChangePayload{RoomID: "R1", Language: "python"})

	b.process(command{kind: cmdDisconnect, sess: s})
	if _, ok := b.registry.pending["R1"]; !ok {
		t.Fatal("eviction not scheduled")
	}

	// Rejoin inside the grace window, then let the stale check arrive.
	conn2 := newFakeConn("c2")
	join(t, b, conn2, "R1", "u1", "U")
	time.Sleep(40 * time.Millisecond)
	b.process(command{kind: cmdEvictCheck, roomID: "R1"})

	rm, ok := b.registry.Get("R1")
	if !ok {
		t.Fatal("room evicted despite rejoin during grace")
	}
	if rm.Code != "keep me" || rm.Language != "python" {
		t.Fatalf("room state reset: code=%q language=%q", rm.Code, rm.Language)
	}

	var snap RoomStatePayload
	decodeInto(t, conn2.lastOf(t, EventRoomState), &snap)
	if snap.Code != "keep me" || snap.Language != "python" {
		t.Fatalf("rejoin snapshot = %+v, want preserved state", snap)
	}
}

func TestDispatchThroughQueue(t *testing.T) {
	b := newTestBroker(time.Minute)
	cancel := newRunContext(t, b)
	defer cancel()

	conn := newFakeConn("c1")
	s := b.Connect(conn)
	raw, _ := json.Marshal(JoinRoomPayload{RoomID: "R1", UserID: "u1", UserName: "U"})
	b.Dispatch(s, Envelope{Type: EventJoinRoom, Data: raw})

	waitFor(t, func() bool { return len(conn.events(t)) > 0 })
	conn.lastOf(t, EventRoomState)
}
