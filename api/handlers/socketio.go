package handlers

import (
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"go.uber.org/zap"

	"github.com/caremesh/consult-chat-api/chat"
	"github.com/caremesh/consult-chat-api/models"
)

// InitializeSocketIO creates the Socket.IO server, binds the chat event
// router to it and subscribes the router to the fan-out bus
func (a *App) InitializeSocketIO() error {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			polling.Default,
			websocket.Default,
		},
	})
	a.Socket = server
	a.Chat = chat.NewRouter(a.Store, a.Bus, server, a.presence)

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		a.Chat.Attach(s)
		zap.S().Debugw("client connected", "connId", s.ID())
		return nil
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		zap.S().Errorw("socket error", "error", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		a.Chat.Detach(s.ID())
		zap.S().Debugw("client disconnected", "connId", s.ID(), "reason", reason)
	})

	server.OnEvent("/", chat.EventJoinRoom, func(s socketio.Conn, msg map[string]interface{}) {
		sess := a.Chat.Session(s.ID())
		if sess == nil {
			return
		}
		sess.Join(models.JoinRoomRequest{
			RoomID:    stringField(msg, "roomId"),
			Role:      stringField(msg, "role"),
			UserID:    stringField(msg, "userId"),
			PatientID: stringField(msg, "patientId"),
			ConsultID: stringField(msg, "consultId"),
		})
	})

	server.OnEvent("/", chat.EventNewMessage, func(s socketio.Conn, msg map[string]interface{}) {
		sess := a.Chat.Session(s.ID())
		if sess == nil {
			return
		}
		sess.NewMessage(models.NewMessageRequest{
			RoomID:         stringField(msg, "roomId"),
			MessageContent: stringField(msg, "messageContent"),
		})
	})

	go func() {
		if err := server.Serve(); err != nil {
			zap.S().Errorw("socket.io server error", "error", err)
		}
	}()

	return a.Chat.Start()
}

func stringField(msg map[string]interface{}, key string) string {
	v, _ := msg[key].(string)
	return v
}
