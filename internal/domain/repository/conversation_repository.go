package repository

import (
	"context"
	"time"

	"classipost/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)

	// GetByTriple resolves the unique conversation for a
	// (buyer, seller, listing) triple, or NotFound.
	GetByTriple(ctx context.Context, buyerID, sellerID, listingID string) (*entity.Conversation, error)

	// ListByUser returns every conversation where the user is buyer or
	// seller, ordered by last message time descending, falling back to
	// creation time for conversations without messages.
	ListByUser(ctx context.Context, userID string) ([]*entity.Conversation, error)

	// ListByPair returns every conversation the two users share, in either
	// buyer/seller orientation, regardless of listing.
	ListByPair(ctx context.Context, userA, userB string) ([]*entity.Conversation, error)

	Update(ctx context.Context, conversation *entity.Conversation) error

	// SetBlocked marks every conversation shared by the pair as blocked by
	// blockedBy, in a single atomic write. Returns the number updated.
	SetBlocked(ctx context.Context, userA, userB, blockedBy string) (int64, error)

	// ClearBlocked unblocks the pair's conversations that were blocked by
	// blockedBy; conversations blocked by the other party are untouched.
	ClearBlocked(ctx context.Context, userA, userB, blockedBy string) (int64, error)

	// AdvanceLastMessage moves the conversation's last message timestamp
	// forward to at, only if at is later than the stored value.
	AdvanceLastMessage(ctx context.Context, conversationID string, at time.Time) error
}
