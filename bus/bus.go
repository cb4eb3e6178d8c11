// Package bus provides the cross-process fan-out mechanism that delivers an
// event to every process holding connections for a given room.
package bus

import "encoding/json"

// Handler receives every event published to the bus, including events
// published by the same process, so local delivery and peer delivery share
// one code path.
type Handler func(roomID, event string, payload []byte)

// Bus is the fan-out contract. Delivery is at-most-once per process
// instance: events published while a subscriber is briefly disconnected are
// not redelivered. Events published by the same originating process for the
// same room arrive in publish order at every subscriber; no ordering holds
// across different originating processes.
type Bus interface {
	// Publish broadcasts the event, fire-and-forget from the caller's view
	Publish(roomID, event string, payload []byte) error

	// Subscribe registers the handler; each process registers once at startup
	Subscribe(h Handler) error

	Close() error
}

// envelope is the wire format events travel in between processes
type envelope struct {
	RoomID  string          `json:"roomId"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}
