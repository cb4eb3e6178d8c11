package databases

// go generate: mockery --name RoomDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caremesh/consult-chat-api/models"
)

const roomCollection = "rooms"

// RoomDatabase contains the methods to use with the room database
type RoomDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Room, error)
	ResolveOrCreate(ctx context.Context, token, roomID string) (*models.Room, bool, error)
}

type roomDatabase struct {
	db DatabaseHelper
}

// NewRoomDatabase initializes a new instance of room database with the provided db connection
func NewRoomDatabase(db DatabaseHelper) RoomDatabase {
	return &roomDatabase{
		db: db,
	}
}

func (r *roomDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Room, error) {
	room := &models.Room{}
	err := r.db.Collection(roomCollection).FindOne(ctx, filter).Decode(&room)
	if err != nil {
		return nil, err
	}
	return room, nil
}

// ResolveOrCreate conditionally inserts a room keyed by its unique token.
// Two participants racing to create the same logical room resolve to a
// single winner through the upsert; the loser reads the winner's row.
func (r *roomDatabase) ResolveOrCreate(ctx context.Context, token, roomID string) (*models.Room, bool, error) {
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":       roomID,
			"token":     token,
			"createdAt": time.Now().UTC(),
		},
	}
	res, err := r.db.Collection(roomCollection).UpdateOne(ctx, bson.M{"token": token}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, false, err
	}
	created := res.UpsertedCount > 0

	room, err := r.FindOne(ctx, bson.M{"token": token})
	if err != nil {
		return nil, false, err
	}
	return room, created, nil
}
