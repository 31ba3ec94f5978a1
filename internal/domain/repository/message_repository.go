package repository

import (
	"context"
	"time"

	"classipost/internal/domain/entity"
)

type MessageFilter struct {
	// ConversationIDs scopes the listing to the caller's conversations.
	ConversationIDs []string
	Type            string
	UnreadOnly      bool
	// ExcludeSender drops messages sent by this user, used with UnreadOnly.
	ExcludeSender string
	Limit         int
	Offset        int
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)

	// ListByConversation returns the conversation's log in creation order.
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)

	// List returns messages across conversations, newest first.
	List(ctx context.Context, filter MessageFilter) ([]*entity.Message, int64, error)

	// Last returns the most recent message of a conversation, or nil.
	Last(ctx context.Context, conversationID string) (*entity.Message, error)

	// MarkRead flips the message to read. Calling it on an already-read
	// message is a no-op; readAt is never overwritten.
	MarkRead(ctx context.Context, conversationID, messageID string, at time.Time) error

	// MarkAllRead marks every unread message in the conversation not sent
	// by excludeSender. Returns the number updated.
	MarkAllRead(ctx context.Context, conversationID, excludeSender string, at time.Time) (int64, error)

	Flag(ctx context.Context, conversationID, messageID string) error

	Count(ctx context.Context, conversationID string) (int64, error)
	CountBySender(ctx context.Context, conversationID, senderID string) (int64, error)
	CountUnread(ctx context.Context, conversationID, excludeSender string) (int64, error)
}
