package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/caremesh/consult-chat-api/api/handlers"
	"github.com/caremesh/consult-chat-api/bus"
	"github.com/caremesh/consult-chat-api/chat"
	"github.com/caremesh/consult-chat-api/models"
)

// stubStore is an in-memory chat.Store for driving the simulation surface
type stubStore struct {
	mu          sync.Mutex
	rooms       map[string]string
	memberships map[string]bool
	messages    []models.Message
}

func newStubStore() *stubStore {
	return &stubStore{
		rooms:       make(map[string]string),
		memberships: make(map[string]bool),
	}
}

func (s *stubStore) EnsureUser(_ context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID, Username: "user" + userID, Connected: true}, nil
}

func (s *stubStore) ResolveOrCreateRoom(_ context.Context, token, roomID string) (*models.Room, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.rooms[token]; ok {
		return &models.Room{ID: id, Token: token}, false, nil
	}
	s.rooms[token] = roomID
	return &models.Room{ID: roomID, Token: token}, true, nil
}

func (s *stubStore) UpsertMembership(_ context.Context, roomID, userID string, _ models.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roomID + "/" + userID
	if s.memberships[key] {
		return false, nil
	}
	s.memberships[key] = true
	return true, nil
}

func (s *stubStore) RemoveMembership(_ context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memberships, roomID+"/"+userID)
	return nil
}

func (s *stubStore) MarkDisconnected(_ context.Context, _ string) error { return nil }

func (s *stubStore) AppendMessage(_ context.Context, roomID, userID string, role models.Role, content string) (*models.Message, error) {
	msg := models.Message{RoomID: roomID, UserID: userID, Role: role, Content: content, CreatedAt: time.Now().UTC()}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return &msg, nil
}

type recordedBroadcast struct {
	Room  string
	Event string
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []recordedBroadcast
}

func (b *recordingBroadcaster) BroadcastToRoom(_, room, event string, _ ...interface{}) bool {
	b.mu.Lock()
	b.calls = append(b.calls, recordedBroadcast{Room: room, Event: event})
	b.mu.Unlock()
	return true
}

func (b *recordingBroadcaster) broadcasts() []recordedBroadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]recordedBroadcast, len(b.calls))
	copy(out, b.calls)
	return out
}

type simulatedResponse struct {
	ConnectionID string `json:"connectionId"`
	Emitted      []struct {
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	} `json:"emitted"`
}

func newSimulateFixture(t *testing.T) (*handlers.Simulate, *recordingBroadcaster) {
	local := &recordingBroadcaster{}
	router := chat.NewRouter(newStubStore(), bus.NewMemoryBus(), local, nil)
	assert.NoError(t, router.Start())
	return handlers.NewSimulate(router), local
}

func postSimulate(t *testing.T, handler http.HandlerFunc, body string) (*httptest.ResponseRecorder, simulatedResponse) {
	req, err := http.NewRequest("POST", "/", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp simulatedResponse
	if rr.Code == http.StatusOK {
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func TestSimulate_JoinRoomBroadcastsNotice(t *testing.T) {
	sim, local := newSimulateFixture(t)

	rr, resp := postSimulate(t, sim.JoinRoomHandler,
		`{"roomId":"123","role":"consult","userId":"666","patientId":"456"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, resp.ConnectionID)
	assert.Empty(t, resp.Emitted)

	calls := local.broadcasts()
	if assert.Len(t, calls, 1) {
		assert.Equal(t, recordedBroadcast{Room: "123", Event: "chat:room-joined"}, calls[0])
	}
}

func TestSimulate_DuplicateJoinAcksWithoutBroadcast(t *testing.T) {
	sim, local := newSimulateFixture(t)

	_, first := postSimulate(t, sim.JoinRoomHandler,
		`{"roomId":"123","role":"consult","userId":"666","patientId":"456"}`)
	assert.NotEmpty(t, first.ConnectionID)

	// same user joins again on a second connection: the membership row
	// already exists, so the requester gets a direct ack and the room sees
	// no second notice
	rr, resp := postSimulate(t, sim.JoinRoomHandler,
		`{"roomId":"123","role":"consult","userId":"666","patientId":"456"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEqual(t, first.ConnectionID, resp.ConnectionID)
	if assert.Len(t, resp.Emitted, 1) {
		assert.Equal(t, "chat:room-joined", resp.Emitted[0].Event)
	}
	assert.Len(t, local.broadcasts(), 1)
}

func TestSimulate_NewMessageFlow(t *testing.T) {
	sim, local := newSimulateFixture(t)

	_, joined := postSimulate(t, sim.JoinRoomHandler,
		`{"roomId":"123","role":"consult","userId":"666","patientId":"456"}`)

	rr, resp := postSimulate(t, sim.NewMessageHandler,
		`{"connectionId":"`+joined.ConnectionID+`","roomId":"123","messageContent":"hi"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, resp.Emitted)

	calls := local.broadcasts()
	if assert.Len(t, calls, 2) {
		assert.Equal(t, recordedBroadcast{Room: "123", Event: "chat:new-message"}, calls[1])
	}
}

func TestSimulate_NewMessageBeforeJoin(t *testing.T) {
	sim, _ := newSimulateFixture(t)

	// attach a connection without joining by sending an invalid join first
	rr, resp := postSimulate(t, sim.JoinRoomHandler, `{"role":"consult","userId":"666"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	if assert.Len(t, resp.Emitted, 1) {
		assert.Equal(t, "error", resp.Emitted[0].Event)
		assert.Equal(t, `missing or invalid field "roomId"`, resp.Emitted[0].Payload["message"])
	}

	rr, resp = postSimulate(t, sim.NewMessageHandler,
		`{"connectionId":"`+resp.ConnectionID+`","roomId":"123","messageContent":"hi"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	if assert.Len(t, resp.Emitted, 1) {
		assert.Equal(t, "error", resp.Emitted[0].Event)
		assert.Equal(t, "cannot send a message before joining a room", resp.Emitted[0].Payload["message"])
	}
}

func TestSimulate_UnknownConnection(t *testing.T) {
	sim, _ := newSimulateFixture(t)

	rr, _ := postSimulate(t, sim.NewMessageHandler,
		`{"connectionId":"nope","roomId":"123","messageContent":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = postSimulate(t, sim.DisconnectHandler, `{"connectionId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSimulate_DisconnectTearsDownMembership(t *testing.T) {
	sim, local := newSimulateFixture(t)

	_, joined := postSimulate(t, sim.JoinRoomHandler,
		`{"roomId":"123","role":"patient","userId":"456","consultId":"666"}`)

	rr, _ := postSimulate(t, sim.DisconnectHandler,
		`{"connectionId":"`+joined.ConnectionID+`"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	calls := local.broadcasts()
	if assert.Len(t, calls, 2) {
		assert.Equal(t, recordedBroadcast{Room: "123", Event: "chat:room-left"}, calls[1])
	}

	// the connection is gone afterwards
	rr, _ = postSimulate(t, sim.DisconnectHandler,
		`{"connectionId":"`+joined.ConnectionID+`"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
