package models

// JoinRoomRequest is the payload of the inbound join-room event
type JoinRoomRequest struct {
	RoomID    string `json:"roomId"`
	Role      string `json:"role"`
	UserID    string `json:"userId"`
	PatientID string `json:"patientId,omitempty"`
	ConsultID string `json:"consultId,omitempty"`
}

// NewMessageRequest is the payload of the inbound chat:new-message event
type NewMessageRequest struct {
	RoomID         string `json:"roomId"`
	MessageContent string `json:"messageContent"`
}

// RoomNotice is the payload of the outbound chat:room-joined and
// chat:room-left events
type RoomNotice struct {
	Message string `json:"message"`
}

// ChatMessage is the payload of the outbound chat:new-message event
type ChatMessage struct {
	Message   string `json:"message"`
	RoomID    string `json:"roomId"`
	CreatedAt string `json:"createdAt"`
}

// ErrorResponse is the payload of the outbound error event, delivered only
// to the originating connection
type ErrorResponse struct {
	Message string `json:"message"`
}
