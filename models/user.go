package models

import "time"

// User holds the structure for the user collection in mongo. Users are
// created implicitly on their first join-room and are never deleted;
// Connected is advisory presence state only.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Username  string    `json:"username" bson:"username"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Connected bool      `json:"connected" bson:"connected"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
