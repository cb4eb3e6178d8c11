package models

import "time"

// Room holds the structure for the room collection in mongo. Token uniquely
// identifies the logical room and is derived from the join payload, never
// chosen by the client. A room is created exactly once per distinct token.
type Room struct {
	ID        string    `json:"id" bson:"_id"`
	Token     string    `json:"token" bson:"token"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
