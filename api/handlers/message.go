package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/caremesh/consult-chat-api/config"
	"github.com/caremesh/consult-chat-api/databases"
	"github.com/caremesh/consult-chat-api/models"
)

// Message exported for testing purposes
type Message struct {
	DB databases.MessageDatabase
}

// MessagesByRoomIDHandler returns a room's messages in creation-time order,
// used for history replay on reconnect
func (m Message) MessagesByRoomIDHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]

	zap.S().Debugf("room_id: %v", roomID)

	dbResp, err := m.DB.FindByRoomID(context.Background(), roomID)
	if err != nil {
		config.ErrorStatus("failed to get messages by room ID", http.StatusNotFound, w, err)
		return
	}
	// Because clients require that the data elements exist, if len == 0
	// then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Message{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
