package chat

// Inbound event names
const (
	EventJoinRoom   = "join-room"
	EventNewMessage = "chat:new-message"
)

// Outbound event names. EventNewMessage is reused on the way out.
const (
	EventRoomJoined = "chat:room-joined"
	EventRoomLeft   = "chat:room-left"
	EventError      = "error"
)
