package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"classipost/internal/domain/entity"
	"classipost/internal/domain/repository"
	"classipost/pkg/errors"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		doc := r.client.Collection("conversations").NewDoc()
		conversation.ID = doc.ID
	}

	now := time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}
	conversation.UpdatedAt = now

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreConversationRepository) GetByTriple(ctx context.Context, buyerID, sellerID, listingID string) (*entity.Conversation, error) {
	iter := r.client.Collection("conversations").
		Where("buyerId", "==", buyerID).
		Where("sellerId", "==", sellerID).
		Where("listingId", "==", listingID).
		Limit(1).
		Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Conversation", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreConversationRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	asBuyer, err := r.collect(ctx, r.client.Collection("conversations").Where("buyerId", "==", userID).Documents(ctx))
	if err != nil {
		return nil, err
	}
	asSeller, err := r.collect(ctx, r.client.Collection("conversations").Where("sellerId", "==", userID).Documents(ctx))
	if err != nil {
		return nil, err
	}

	conversations := append(asBuyer, asSeller...)
	sort.SliceStable(conversations, func(i, j int) bool {
		return lastActivity(conversations[i]).After(lastActivity(conversations[j]))
	})

	return conversations, nil
}

func (r *firestoreConversationRepository) ListByPair(ctx context.Context, userA, userB string) ([]*entity.Conversation, error) {
	forward, err := r.collect(ctx, r.client.Collection("conversations").
		Where("buyerId", "==", userA).
		Where("sellerId", "==", userB).
		Documents(ctx))
	if err != nil {
		return nil, err
	}
	reverse, err := r.collect(ctx, r.client.Collection("conversations").
		Where("buyerId", "==", userB).
		Where("sellerId", "==", userA).
		Documents(ctx))
	if err != nil {
		return nil, err
	}

	return append(forward, reverse...), nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	conversation.UpdatedAt = time.Now()

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}

	return nil
}

// SetBlocked marks every conversation the pair shares as blocked by
// blockedBy in one batched commit.
func (r *firestoreConversationRepository) SetBlocked(ctx context.Context, userA, userB, blockedBy string) (int64, error) {
	conversations, err := r.ListByPair(ctx, userA, userB)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	batch := r.client.Batch()
	var count int64
	for _, conversation := range conversations {
		batch.Update(r.client.Collection("conversations").Doc(conversation.ID), []firestore.Update{
			{Path: "isBlocked", Value: true},
			{Path: "blockedBy", Value: blockedBy},
			{Path: "updatedAt", Value: now},
		})
		count++
	}
	if count == 0 {
		return 0, nil
	}

	if _, err := batch.Commit(ctx); err != nil {
		return 0, errors.Internal("Failed to block conversations", err)
	}

	return count, nil
}

// ClearBlocked unblocks only the conversations that blockedBy blocked.
func (r *firestoreConversationRepository) ClearBlocked(ctx context.Context, userA, userB, blockedBy string) (int64, error) {
	conversations, err := r.ListByPair(ctx, userA, userB)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	batch := r.client.Batch()
	var count int64
	for _, conversation := range conversations {
		if !conversation.IsBlocked || conversation.BlockedBy != blockedBy {
			continue
		}
		batch.Update(r.client.Collection("conversations").Doc(conversation.ID), []firestore.Update{
			{Path: "isBlocked", Value: false},
			{Path: "blockedBy", Value: firestore.Delete},
			{Path: "updatedAt", Value: now},
		})
		count++
	}
	if count == 0 {
		return 0, nil
	}

	if _, err := batch.Commit(ctx); err != nil {
		return 0, errors.Internal("Failed to unblock conversations", err)
	}

	return count, nil
}

// AdvanceLastMessage moves lastMessageAt forward to at inside a
// transaction, so concurrent appends can never move it backwards.
func (r *firestoreConversationRepository) AdvanceLastMessage(ctx context.Context, conversationID string, at time.Time) error {
	ref := r.client.Collection("conversations").Doc(conversationID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return err
		}
		if conversation.LastMessageAt != nil && !at.After(*conversation.LastMessageAt) {
			return nil
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "lastMessageAt", Value: at},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to advance last message time", err)
	}

	return nil
}

func (r *firestoreConversationRepository) collect(ctx context.Context, iter *firestore.DocumentIterator) ([]*entity.Conversation, error) {
	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate conversations", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return nil, errors.Internal("Failed to parse conversation data", err)
		}
		conversations = append(conversations, &conversation)
	}
	return conversations, nil
}

func lastActivity(conversation *entity.Conversation) time.Time {
	if conversation.LastMessageAt != nil {
		return *conversation.LastMessageAt
	}
	return conversation.CreatedAt
}
