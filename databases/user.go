package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caremesh/consult-chat-api/models"
)

const userCollection = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.User, error)
	EnsureConnected(ctx context.Context, userID string) (*models.User, error)
	MarkDisconnected(ctx context.Context, userID string) error
	MarkStale(ctx context.Context, activeIDs []string) (int64, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindOne(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureConnected fetches or creates the user for userID and flips connected
// on. First joins get placeholder profile fields derived from the id.
func (u *userDatabase) EnsureConnected(ctx context.Context, userID string) (*models.User, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"connected": true,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"username":  fmt.Sprintf("user%s", userID),
			"name":      fmt.Sprintf("User %s", userID),
			"email":     fmt.Sprintf("user%s@example.com", userID),
			"createdAt": now,
		},
	}
	_, err := u.db.Collection(userCollection).UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, err
	}
	return u.FindOne(ctx, bson.M{"_id": userID})
}

func (u *userDatabase) MarkDisconnected(ctx context.Context, userID string) error {
	update := bson.M{"$set": bson.M{"connected": false, "updatedAt": time.Now().UTC()}}
	_, err := u.db.Collection(userCollection).UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

// MarkStale flips connected off for every user not in activeIDs. Presence is
// advisory, so last-writer-wins between instances is acceptable here.
func (u *userDatabase) MarkStale(ctx context.Context, activeIDs []string) (int64, error) {
	if activeIDs == nil {
		activeIDs = []string{}
	}
	filter := bson.M{
		"connected": true,
		"_id":       bson.M{"$nin": activeIDs},
	}
	update := bson.M{"$set": bson.M{"connected": false, "updatedAt": time.Now().UTC()}}
	res, err := u.db.Collection(userCollection).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
