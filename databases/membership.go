package databases

// go generate: mockery --name MembershipDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caremesh/consult-chat-api/models"
)

const membershipCollection = "memberships"

// MembershipDatabase contains the methods to use with the membership database
type MembershipDatabase interface {
	Find(ctx context.Context, filter interface{}) ([]models.Membership, error)
	Upsert(ctx context.Context, roomID, userID string, role models.Role) (bool, error)
	Remove(ctx context.Context, roomID, userID string) error
}

type membershipDatabase struct {
	db DatabaseHelper
}

// NewMembershipDatabase initializes a new instance of membership database with the provided db connection
func NewMembershipDatabase(db DatabaseHelper) MembershipDatabase {
	return &membershipDatabase{
		db: db,
	}
}

func (m *membershipDatabase) Find(ctx context.Context, filter interface{}) ([]models.Membership, error) {
	cursor, err := m.db.Collection(membershipCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var memberships []models.Membership
	if err := cursor.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// Upsert inserts the (roomID, userID) membership if absent. A second join
// for the same pair is a no-op returning created = false, which keeps the
// one-row-per-pair invariant under concurrent join attempts.
func (m *membershipDatabase) Upsert(ctx context.Context, roomID, userID string, role models.Role) (bool, error) {
	filter := bson.M{"roomId": roomID, "userId": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"role":      role,
			"createdAt": time.Now().UTC(),
		},
	}
	res, err := m.db.Collection(membershipCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// Remove deletes the membership if present, idempotent no-op otherwise
func (m *membershipDatabase) Remove(ctx context.Context, roomID, userID string) error {
	_, err := m.db.Collection(membershipCollection).DeleteOne(ctx, bson.M{"roomId": roomID, "userId": userID})
	return err
}
