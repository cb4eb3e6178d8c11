package chat

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/caremesh/consult-chat-api/bus"
)

// Router owns the per-connection sessions on this process and moves events
// between them, the local sockets and the fan-out bus. Outbound events go
// through the bus; the bus hands them back to every process's subscriber
// (this one included), which delivers to its local delivery groups. Local
// and peer delivery therefore share the deliver path.
type Router struct {
	store    Store
	bus      bus.Bus
	local    Broadcaster
	presence PresenceStore

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRouter wires the router to its store, bus and local broadcaster.
// presence may be nil.
func NewRouter(store Store, b bus.Bus, local Broadcaster, presence PresenceStore) *Router {
	return &Router{
		store:    store,
		bus:      b,
		local:    local,
		presence: presence,
		sessions: make(map[string]*Session),
	}
}

// Start registers the bus subscription; call once at process startup
func (r *Router) Start() error {
	return r.bus.Subscribe(r.deliver)
}

// Attach creates the session owning conn and starts its event loop
func (r *Router) Attach(conn Conn) *Session {
	s := newSession(conn, r.store, r, r.presence)
	r.mu.Lock()
	r.sessions[conn.ID()] = s
	r.mu.Unlock()
	go s.run()
	return s
}

// Session looks up the session owning the given connection
func (r *Router) Session(connID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[connID]
}

// Detach removes the connection's session and runs its disconnect
// teardown. The returned channel is closed once teardown has finished.
func (r *Router) Detach(connID string) <-chan struct{} {
	r.mu.Lock()
	s := r.sessions[connID]
	delete(r.sessions, connID)
	r.mu.Unlock()

	if s == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.Close()
}

// ActiveUserIDs lists the users currently joined through this process
func (r *Router) ActiveUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for _, s := range r.sessions {
		if id, ok := s.ActiveUser(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Publish fans payload out to every subscriber of the room. A bus failure
// degrades to local-only delivery instead of blocking or failing the
// triggering connection.
func (r *Router) Publish(roomID, event string, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		zap.S().Errorw("failed to marshal outbound event",
			"event", event,
			"roomId", roomID,
			"error", err,
		)
		return
	}
	if err := r.bus.Publish(roomID, event, b); err != nil {
		ferr := &FanoutError{Err: err}
		zap.S().Errorw("fan-out bus unreachable, delivering locally only",
			"event", event,
			"roomId", roomID,
			"error", ferr,
		)
		r.deliver(roomID, event, b)
	}
}

// deliver hands a bus event to the sockets this process holds for the room
func (r *Router) deliver(roomID, event string, payload []byte) {
	var v map[string]interface{}
	if err := json.Unmarshal(payload, &v); err != nil {
		zap.S().Errorw("dropping malformed bus payload",
			"event", event,
			"roomId", roomID,
			"error", err,
		)
		return
	}
	r.local.BroadcastToRoom("/", roomID, event, v)
}
