package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/caremesh/consult-chat-api/models"
)

// State is the connection session lifecycle state
type State int

// Session states. Error is only ever held while a failed join is being
// reported; the session then returns to Idle so the client can retry.
const (
	StateIdle State = iota
	StateJoining
	StateJoined
	StateLeft
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateLeft:
		return "left"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

type task struct {
	fn   func()
	done chan struct{}
}

// Session binds one live connection to (room, role, user) once joined and
// mediates every store, log and bus operation that connection triggers.
// Events are consumed by a single goroutine off a queue, so handlers for
// one connection never run concurrently or out of order, and disconnect
// teardown always runs after any in-flight handler using the state that
// handler bound.
type Session struct {
	conn     Conn
	store    Store
	pub      Publisher
	presence PresenceStore

	tasks chan task

	mu         sync.Mutex
	closed     bool
	activeUser string

	// owned by the run loop
	state     State
	roomID    string
	userID    string
	role      models.Role
	patientID string
	consultID string
}

func newSession(conn Conn, store Store, pub Publisher, presence PresenceStore) *Session {
	return &Session{
		conn:     conn,
		store:    store,
		pub:      pub,
		presence: presence,
		tasks:    make(chan task, 32),
		state:    StateIdle,
	}
}

func (s *Session) run() {
	for t := range s.tasks {
		t.fn()
		close(t.done)
	}
}

// enqueue appends fn to the session's task queue. The returned channel is
// closed once fn has finished, or immediately if the session is closed.
func (s *Session) enqueue(fn func()) <-chan struct{} {
	done := make(chan struct{})
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(done)
		return done
	}
	s.tasks <- task{fn: fn, done: done}
	return done
}

// Join handles an inbound join-room event
func (s *Session) Join(req models.JoinRoomRequest) <-chan struct{} {
	return s.enqueue(func() { s.handleJoin(req) })
}

// NewMessage handles an inbound chat:new-message event
func (s *Session) NewMessage(req models.NewMessageRequest) <-chan struct{} {
	return s.enqueue(func() { s.handleMessage(req) })
}

// Close enqueues disconnect teardown as the session's final task and stops
// accepting new events. Teardown runs after any handler already in flight.
func (s *Session) Close() <-chan struct{} {
	done := make(chan struct{})
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(done)
		return done
	}
	s.closed = true
	s.tasks <- task{fn: s.handleDisconnect, done: done}
	close(s.tasks)
	return done
}

// ActiveUser reports the user bound to this session while it is Joined
func (s *Session) ActiveUser() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeUser, s.activeUser != ""
}

func (s *Session) setActiveUser(id string) {
	s.mu.Lock()
	s.activeUser = id
	s.mu.Unlock()
}

func (s *Session) handleJoin(req models.JoinRoomRequest) {
	if s.state == StateJoining || s.state == StateJoined {
		s.conn.Emit(EventError, models.ErrorResponse{Message: "already joined a room"})
		return
	}

	if req.RoomID == "" {
		s.rejectInvalid("roomId")
		return
	}
	if req.UserID == "" {
		s.rejectInvalid("userId")
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		s.rejectInvalid("role")
		return
	}

	s.state = StateJoining
	s.roomID = req.RoomID
	s.userID = req.UserID
	s.role = role
	s.patientID = req.PatientID
	s.consultID = req.ConsultID

	ctx := context.Background()

	if _, err := s.store.EnsureUser(ctx, s.userID); err != nil {
		s.failJoin(err)
		return
	}
	s.setStatus(ctx, "connected")

	token := RoomToken(s.role, s.userID, s.patientID, s.consultID, s.roomID)
	room, _, err := s.store.ResolveOrCreateRoom(ctx, token, s.roomID)
	if err != nil {
		s.failJoin(err)
		return
	}

	created, err := s.store.UpsertMembership(ctx, room.ID, s.userID, s.role)
	if err != nil {
		s.failJoin(err)
		return
	}

	notice := fmt.Sprintf("%s %s has joined the room.", s.role.Label(), s.userID)
	if created {
		if _, err := s.store.AppendMessage(ctx, s.roomID, s.userID, s.role, notice); err != nil {
			s.failJoin(err)
			return
		}
		s.pub.Publish(s.roomID, EventRoomJoined, models.RoomNotice{Message: notice})
	} else {
		// duplicate join: idempotent success acknowledged to the requester
		// only, no second membership, notice or room-wide broadcast
		s.conn.Emit(EventRoomJoined, models.RoomNotice{Message: notice})
	}

	s.conn.Join(s.roomID)
	s.state = StateJoined
	s.setActiveUser(s.userID)

	zap.S().Infow("user joined room",
		"userId", s.userID,
		"role", s.role.Label(),
		"roomId", s.roomID,
	)
}

func (s *Session) handleMessage(req models.NewMessageRequest) {
	if s.state != StateJoined {
		s.conn.Emit(EventError, models.ErrorResponse{Message: "cannot send a message before joining a room"})
		return
	}
	if req.RoomID == "" {
		s.rejectInvalid("roomId")
		return
	}

	ctx := context.Background()
	msg, err := s.store.AppendMessage(ctx, req.RoomID, s.userID, s.role, req.MessageContent)
	if err != nil {
		zap.S().Errorw("error sending message",
			"connId", s.conn.ID(),
			"roomId", req.RoomID,
			"error", err,
		)
		s.conn.Emit(EventError, models.ErrorResponse{Message: "An error occurred while sending the message."})
		return
	}

	s.pub.Publish(req.RoomID, EventNewMessage, models.ChatMessage{
		Message:   req.MessageContent,
		RoomID:    req.RoomID,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Session) handleDisconnect() {
	defer func() {
		s.state = StateLeft
		s.setActiveUser("")
	}()

	if s.state != StateJoined {
		zap.S().Debugw("client disconnected without a room", "connId", s.conn.ID())
		return
	}

	ctx := context.Background()
	zap.S().Infow("user disconnected from room",
		"userId", s.userID,
		"role", s.role.Label(),
		"roomId", s.roomID,
	)

	if err := s.store.MarkDisconnected(ctx, s.userID); err != nil {
		zap.S().Errorw("error during disconnection", "connId", s.conn.ID(), "error", err)
		return
	}
	s.setStatus(ctx, "disconnected")

	if err := s.store.RemoveMembership(ctx, s.roomID, s.userID); err != nil {
		zap.S().Errorw("error during disconnection", "connId", s.conn.ID(), "error", err)
		return
	}

	notice := fmt.Sprintf("%s %s has disconnected from the room.", s.role.Label(), s.userID)
	if _, err := s.store.AppendMessage(ctx, s.roomID, s.userID, s.role, notice); err != nil {
		zap.S().Errorw("error during disconnection", "connId", s.conn.ID(), "error", err)
		return
	}

	s.pub.Publish(s.roomID, EventRoomLeft, models.RoomNotice{Message: notice})
}

// failJoin reports a store failure on the triggering connection only and
// returns the session to Idle so a retry is possible
func (s *Session) failJoin(err error) {
	zap.S().Errorw("error joining room",
		"connId", s.conn.ID(),
		"roomId", s.roomID,
		"error", err,
	)
	s.state = StateError
	s.conn.Emit(EventError, models.ErrorResponse{Message: "An error occurred while joining the room."})

	s.state = StateIdle
	s.roomID = ""
	s.userID = ""
	s.role = ""
	s.patientID = ""
	s.consultID = ""
}

// rejectInvalid reports a validation failure without mutating any state
func (s *Session) rejectInvalid(field string) {
	verr := &ValidationError{Field: field}
	zap.S().Debugw("rejected event", "connId", s.conn.ID(), "error", verr)
	s.conn.Emit(EventError, models.ErrorResponse{Message: verr.Error()})
}

// setStatus records advisory presence, best effort
func (s *Session) setStatus(ctx context.Context, status string) {
	if s.presence == nil {
		return
	}
	if err := s.presence.SetStatus(ctx, s.userID, status); err != nil {
		zap.S().Warnw("failed to set presence status",
			"userId", s.userID,
			"status", status,
			"error", err,
		)
	}
}
