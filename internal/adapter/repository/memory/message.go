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

type MessageRepository struct {
	mu sync.RWMutex
	// messages are keyed by conversation, preserving insertion order inside
	// each log.
	messages map[string][]*entity.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		messages: make(map[string][]*entity.Message),
	}
}

var _ repository.MessageRepository = (*MessageRepository)(nil)

func (r *MessageRepository) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	stored := *message
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], &stored)
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	message := r.find(conversationID, messageID)
	if message == nil {
		return nil, errors.NotFound("Message", nil)
	}
	copied := *message
	return &copied, nil
}

func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.messages[conversationID]
	ordered := make([]*entity.Message, 0, len(log))
	for _, message := range log {
		copied := *message
		ordered = append(ordered, &copied)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	total := int64(len(ordered))
	return page(ordered, limit, offset), total, nil
}

func (r *MessageRepository) List(ctx context.Context, filter repository.MessageFilter) ([]*entity.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.Message
	for _, conversationID := range filter.ConversationIDs {
		for _, message := range r.messages[conversationID] {
			if filter.Type != "" && message.Type != filter.Type {
				continue
			}
			if filter.UnreadOnly && message.IsRead {
				continue
			}
			if filter.ExcludeSender != "" && message.SenderID == filter.ExcludeSender {
				continue
			}
			copied := *message
			result = append(result, &copied)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	total := int64(len(result))
	return page(result, filter.Limit, filter.Offset), total, nil
}

func (r *MessageRepository) Last(ctx context.Context, conversationID string) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *entity.Message
	for _, message := range r.messages[conversationID] {
		if last == nil || message.CreatedAt.After(last.CreatedAt) {
			last = message
		}
	}
	if last == nil {
		return nil, nil
	}
	copied := *last
	return &copied, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, messageID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message := r.find(conversationID, messageID)
	if message == nil {
		return errors.NotFound("Message", nil)
	}
	if message.IsRead {
		return nil
	}
	stamp := at
	message.IsRead = true
	message.ReadAt = &stamp
	return nil
}

func (r *MessageRepository) MarkAllRead(ctx context.Context, conversationID, excludeSender string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, message := range r.messages[conversationID] {
		if message.IsRead || message.SenderID == excludeSender {
			continue
		}
		stamp := at
		message.IsRead = true
		message.ReadAt = &stamp
		count++
	}
	return count, nil
}

func (r *MessageRepository) Flag(ctx context.Context, conversationID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message := r.find(conversationID, messageID)
	if message == nil {
		return errors.NotFound("Message", nil)
	}
	message.IsFlagged = true
	return nil
}

func (r *MessageRepository) Count(ctx context.Context, conversationID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.messages[conversationID])), nil
}

func (r *MessageRepository) CountBySender(ctx context.Context, conversationID, senderID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, message := range r.messages[conversationID] {
		if message.SenderID == senderID {
			count++
		}
	}
	return count, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, conversationID, excludeSender string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, message := range r.messages[conversationID] {
		if !message.IsRead && message.SenderID != excludeSender {
			count++
		}
	}
	return count, nil
}

func (r *MessageRepository) find(conversationID, messageID string) *entity.Message {
	for _, message := range r.messages[conversationID] {
		if message.ID == messageID {
			return message
		}
	}
	return nil
}

func page(messages []*entity.Message, limit, offset int) []*entity.Message {
	if offset >= len(messages) {
		return []*entity.Message{}
	}
	end := len(messages)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return messages[offset:end]
}
