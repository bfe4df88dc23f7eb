package collab

// Sender is the outbound half of one client connection. Send must not
// block: implementations enqueue into a buffered channel and drop the
// frame when the peer cannot keep up or has gone away.
type Sender interface {
	ID() string
	Send(frame []byte)
}

// State is the lifecycle phase of one connection.
type State int

const (
	// StateConnected: transport is up, no room joined yet.
	StateConnected State = iota
	// StateJoined: the connection is a participant in exactly one room.
	StateJoined
	// StateDisconnected: terminal; all further events are dropped.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined-room"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is the per-connection state machine. It is created by the
// gateway when a transport connection is accepted and mutated only by the
// broker dispatcher.
type Session struct {
	conn Sender

	state    State
	roomID   string
	userID   string
	userName string
}

// NewSession wraps an accepted connection in the Connected state.
func NewSession(conn Sender) *Session {
	return &Session{conn: conn, state: StateConnected}
}

// State reports the current lifecycle phase.
func (s *Session) State() State { return s.state }

// RoomID is the room this session joined, empty before a join.
func (s *Session) RoomID() string { return s.roomID }
