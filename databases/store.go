package databases

import (
	"context"

	"github.com/caremesh/consult-chat-api/chat"
	"github.com/caremesh/consult-chat-api/models"
)

// Store composes the per-collection databases into the chat.Store contract.
// All failures crossing this boundary are wrapped as *chat.StoreError so
// the session layer can translate them uniformly.
type Store struct {
	Users       UserDatabase
	Rooms       RoomDatabase
	Memberships MembershipDatabase
	Messages    MessageDatabase
}

// NewStore initializes a store over the provided db connection
func NewStore(db DatabaseHelper) *Store {
	return &Store{
		Users:       NewUserDatabase(db),
		Rooms:       NewRoomDatabase(db),
		Memberships: NewMembershipDatabase(db),
		Messages:    NewMessageDatabase(db),
	}
}

var _ chat.Store = (*Store)(nil)

// EnsureUser fetches or creates the user and sets connected = true
func (s *Store) EnsureUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Users.EnsureConnected(ctx, userID)
	if err != nil {
		return nil, chat.NewStoreError("ensure user", err)
	}
	return user, nil
}

// ResolveOrCreateRoom conditionally inserts a room keyed by token
func (s *Store) ResolveOrCreateRoom(ctx context.Context, token, roomID string) (*models.Room, bool, error) {
	room, created, err := s.Rooms.ResolveOrCreate(ctx, token, roomID)
	if err != nil {
		return nil, false, chat.NewStoreError("resolve room", err)
	}
	return room, created, nil
}

// UpsertMembership inserts the membership if absent
func (s *Store) UpsertMembership(ctx context.Context, roomID, userID string, role models.Role) (bool, error) {
	created, err := s.Memberships.Upsert(ctx, roomID, userID, role)
	if err != nil {
		return false, chat.NewStoreError("upsert membership", err)
	}
	return created, nil
}

// RemoveMembership deletes the membership if present
func (s *Store) RemoveMembership(ctx context.Context, roomID, userID string) error {
	if err := s.Memberships.Remove(ctx, roomID, userID); err != nil {
		return chat.NewStoreError("remove membership", err)
	}
	return nil
}

// MarkDisconnected sets connected = false on the user
func (s *Store) MarkDisconnected(ctx context.Context, userID string) error {
	if err := s.Users.MarkDisconnected(ctx, userID); err != nil {
		return chat.NewStoreError("mark disconnected", err)
	}
	return nil
}

// AppendMessage appends a chat or system message to the room log
func (s *Store) AppendMessage(ctx context.Context, roomID, userID string, role models.Role, content string) (*models.Message, error) {
	msg, err := s.Messages.Append(ctx, roomID, userID, role, content)
	if err != nil {
		return nil, chat.NewStoreError("append message", err)
	}
	return msg, nil
}
