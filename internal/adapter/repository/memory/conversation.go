// Package memory provides in-memory repository implementations backed by
// maps and mutexes. They honor the same contracts as the Firestore
// adapters and back the use case tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"classipost/internal/domain/entity"
	"classipost/internal/domain/repository"
	"classipost/pkg/errors"
)

type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[string]*entity.Conversation),
	}
}

var _ repository.ConversationRepository = (*ConversationRepository)(nil)

func (r *ConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	now := time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}
	conversation.UpdatedAt = now

	stored := *conversation
	r.conversations[conversation.ID] = &stored
	return nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	copied := *conversation
	return &copied, nil
}

func (r *ConversationRepository) GetByTriple(ctx context.Context, buyerID, sellerID, listingID string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, conversation := range r.conversations {
		if conversation.BuyerID == buyerID && conversation.SellerID == sellerID && conversation.ListingID == listingID {
			copied := *conversation
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *ConversationRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.Conversation
	for _, conversation := range r.conversations {
		if conversation.HasParticipant(userID) {
			copied := *conversation
			result = append(result, &copied)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return activityTime(result[i]).After(activityTime(result[j]))
	})
	return result, nil
}

func (r *ConversationRepository) ListByPair(ctx context.Context, userA, userB string) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.Conversation
	for _, conversation := range r.conversations {
		if conversation.HasParticipant(userA) && conversation.HasParticipant(userB) {
			copied := *conversation
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *ConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conversation.ID]; !ok {
		return errors.NotFound("Conversation", nil)
	}
	conversation.UpdatedAt = time.Now()
	stored := *conversation
	r.conversations[conversation.ID] = &stored
	return nil
}

func (r *ConversationRepository) SetBlocked(ctx context.Context, userA, userB, blockedBy string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var count int64
	for _, conversation := range r.conversations {
		if !conversation.HasParticipant(userA) || !conversation.HasParticipant(userB) {
			continue
		}
		conversation.IsBlocked = true
		conversation.BlockedBy = blockedBy
		conversation.UpdatedAt = now
		count++
	}
	return count, nil
}

func (r *ConversationRepository) ClearBlocked(ctx context.Context, userA, userB, blockedBy string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var count int64
	for _, conversation := range r.conversations {
		if !conversation.HasParticipant(userA) || !conversation.HasParticipant(userB) {
			continue
		}
		if !conversation.IsBlocked || conversation.BlockedBy != blockedBy {
			continue
		}
		conversation.IsBlocked = false
		conversation.BlockedBy = ""
		conversation.UpdatedAt = now
		count++
	}
	return count, nil
}

func (r *ConversationRepository) AdvanceLastMessage(ctx context.Context, conversationID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if conversation.LastMessageAt != nil && !at.After(*conversation.LastMessageAt) {
		return nil
	}
	stamp := at
	conversation.LastMessageAt = &stamp
	conversation.UpdatedAt = time.Now()
	return nil
}

func activityTime(conversation *entity.Conversation) time.Time {
	if conversation.LastMessageAt != nil {
		return *conversation.LastMessageAt
	}
	return conversation.CreatedAt
}
