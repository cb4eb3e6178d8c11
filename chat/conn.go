package chat

// Conn is the slice of the transport connection the session layer needs:
// emit to this socket and join/leave its local delivery groups. A
// socketio.Conn satisfies it directly.
type Conn interface {
	ID() string
	Emit(event string, v ...interface{})
	Join(room string)
	Leave(room string)
}

// Broadcaster delivers an event to every locally held socket joined to a
// room. A *socketio.Server satisfies it directly.
type Broadcaster interface {
	BroadcastToRoom(namespace, room, event string, args ...interface{}) bool
}

// Publisher fans an outbound event out to every process holding sockets
// for the room, this one included. Implemented by the Router.
type Publisher interface {
	Publish(roomID, event string, payload interface{})
}
