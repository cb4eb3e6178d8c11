package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message holds the structure for the message collection in mongo. Rows are
// immutable once appended and ordered by createdAt within a room. Covers
// both user-authored chat messages and system join/leave notices.
type Message struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RoomID    string             `json:"roomId" bson:"roomId"`
	UserID    string             `json:"userId" bson:"userId"`
	Role      Role               `json:"role" bson:"role"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
