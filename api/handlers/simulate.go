package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/caremesh/consult-chat-api/chat"
	"github.com/caremesh/consult-chat-api/config"
	"github.com/caremesh/consult-chat-api/models"
)

// Simulate exposes a synchronous HTTP surface that replays the socket
// protocol against virtual connections. It exists for external testing and
// documentation only; real clients use the socket.io transport.
type Simulate struct {
	Chat *chat.Router

	mu    sync.Mutex
	conns map[string]*virtualConn
}

// NewSimulate initializes the simulation surface over the chat router
func NewSimulate(router *chat.Router) *Simulate {
	return &Simulate{
		Chat:  router,
		conns: make(map[string]*virtualConn),
	}
}

// EmittedEvent is one event delivered directly to the virtual connection
type EmittedEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type simulateJoinRequest struct {
	ConnectionID string `json:"connectionId"`
	models.JoinRoomRequest
}

type simulateMessageRequest struct {
	ConnectionID string `json:"connectionId"`
	models.NewMessageRequest
}

type simulateDisconnectRequest struct {
	ConnectionID string `json:"connectionId"`
}

type simulateResponse struct {
	ConnectionID string         `json:"connectionId"`
	Emitted      []EmittedEvent `json:"emitted"`
}

// JoinRoomHandler replays a join-room event on the virtual connection,
// creating it when no connectionId is supplied
func (s *Simulate) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req simulateJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	conn := s.ensureConn(req.ConnectionID)
	sess := s.Chat.Session(conn.id)
	if sess == nil {
		config.ErrorStatus("connection is gone", http.StatusNotFound, w, fmt.Errorf("no session for %s", conn.id))
		return
	}

	<-sess.Join(req.JoinRoomRequest)
	s.respond(w, conn)
}

// NewMessageHandler replays a chat:new-message event on the virtual connection
func (s *Simulate) NewMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req simulateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	conn := s.lookupConn(req.ConnectionID)
	if conn == nil {
		config.ErrorStatus("unknown connection", http.StatusNotFound, w, fmt.Errorf("no virtual connection %q", req.ConnectionID))
		return
	}

	sess := s.Chat.Session(conn.id)
	if sess == nil {
		config.ErrorStatus("connection is gone", http.StatusNotFound, w, fmt.Errorf("no session for %s", conn.id))
		return
	}

	<-sess.NewMessage(req.NewMessageRequest)
	s.respond(w, conn)
}

// DisconnectHandler tears the virtual connection down, running the same
// cleanup a dropped socket triggers
func (s *Simulate) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	var req simulateDisconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	conn := s.lookupConn(req.ConnectionID)
	if conn == nil {
		config.ErrorStatus("unknown connection", http.StatusNotFound, w, fmt.Errorf("no virtual connection %q", req.ConnectionID))
		return
	}

	<-s.Chat.Detach(conn.id)

	s.mu.Lock()
	delete(s.conns, conn.id)
	s.mu.Unlock()

	s.respond(w, conn)
}

func (s *Simulate) ensureConn(id string) *virtualConn {
	if id == "" {
		id = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn, ok := s.conns[id]; ok {
		return conn
	}
	conn := &virtualConn{id: id}
	s.conns[id] = conn
	s.Chat.Attach(conn)
	return conn
}

func (s *Simulate) lookupConn(id string) *virtualConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[id]
}

func (s *Simulate) respond(w http.ResponseWriter, conn *virtualConn) {
	b, err := json.Marshal(simulateResponse{
		ConnectionID: conn.id,
		Emitted:      conn.drain(),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// virtualConn satisfies chat.Conn and records everything emitted to it
type virtualConn struct {
	id string

	mu      sync.Mutex
	emitted []EmittedEvent
}

func (c *virtualConn) ID() string { return c.id }

func (c *virtualConn) Emit(event string, v ...interface{}) {
	var payload interface{}
	if len(v) > 0 {
		payload = v[0]
	}
	c.mu.Lock()
	c.emitted = append(c.emitted, EmittedEvent{Event: event, Payload: payload})
	c.mu.Unlock()
}

// Join and Leave are no-ops: virtual connections are not in the socket.io
// room index, so room broadcasts do not reach them
func (c *virtualConn) Join(room string) {}

func (c *virtualConn) Leave(room string) {}

func (c *virtualConn) drain() []EmittedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.emitted
	c.emitted = nil
	if out == nil {
		out = []EmittedEvent{}
	}
	return out
}
