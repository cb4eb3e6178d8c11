package chat

import (
	"context"

	"github.com/caremesh/consult-chat-api/models"
)

// Store is the membership store and message log contract the session layer
// depends on. Every operation must be atomic with respect to concurrent
// callers; implementations report failures as *StoreError.
type Store interface {
	// EnsureUser fetches or creates the user and sets connected = true
	EnsureUser(ctx context.Context, userID string) (*models.User, error)

	// ResolveOrCreateRoom conditionally inserts a room keyed by its unique
	// token. On conflict the existing row is returned with created = false;
	// two concurrent first-joins race-resolve to a single winner.
	ResolveOrCreateRoom(ctx context.Context, token, roomID string) (*models.Room, bool, error)

	// UpsertMembership inserts the (roomID, userID) membership, or is a
	// no-op returning created = false when one already exists
	UpsertMembership(ctx context.Context, roomID, userID string, role models.Role) (bool, error)

	// RemoveMembership deletes the membership if present; idempotent
	RemoveMembership(ctx context.Context, roomID, userID string) error

	// MarkDisconnected sets connected = false on the user
	MarkDisconnected(ctx context.Context, userID string) error

	// AppendMessage durably appends a chat or system message to the room log
	AppendMessage(ctx context.Context, roomID, userID string, role models.Role, content string) (*models.Message, error)
}

// PresenceStore records the advisory user:<id>:status keys. Failures are
// logged and ignored; presence is never used for correctness decisions.
type PresenceStore interface {
	SetStatus(ctx context.Context, userID, status string) error
}
