package databases

// go generate: mockery --name MessageDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caremesh/consult-chat-api/models"
)

const messageCollection = "messages"

// MessageDatabase contains the methods to use with the message database.
// The log is append-only; no update or delete operations exist.
type MessageDatabase interface {
	Append(ctx context.Context, roomID, userID string, role models.Role, content string) (*models.Message, error)
	FindByRoomID(ctx context.Context, roomID string) ([]models.Message, error)
}

type messageDatabase struct {
	db DatabaseHelper
}

// NewMessageDatabase initializes a new instance of message database with the provided db connection
func NewMessageDatabase(db DatabaseHelper) MessageDatabase {
	return &messageDatabase{
		db: db,
	}
}

func (m *messageDatabase) Append(ctx context.Context, roomID, userID string, role models.Role, content string) (*models.Message, error) {
	msg := models.Message{
		ID:        primitive.NewObjectID(),
		RoomID:    roomID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := m.db.Collection(messageCollection).InsertOne(ctx, msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindByRoomID returns the room's messages in creation-time order
func (m *messageDatabase) FindByRoomID(ctx context.Context, roomID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.db.Collection(messageCollection).Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
