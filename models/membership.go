package models

import "time"

// Membership holds the structure for the membership collection in mongo.
// At most one row exists per (roomId, userId); it is created on a
// successful join and deleted when that user disconnects.
type Membership struct {
	RoomID    string    `json:"roomId" bson:"roomId"`
	UserID    string    `json:"userId" bson:"userId"`
	Role      Role      `json:"role" bson:"role"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
