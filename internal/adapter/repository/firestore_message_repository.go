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

// Messages live in a subcollection under their conversation, so a
// conversation's log is a single contiguous range.
type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.client.Collection("conversations").Doc(conversationID).Collection("messages")
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		doc := r.messages(message.ConversationID).NewDoc()
		message.ID = doc.ID
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.messages(message.ConversationID).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.messages(conversationID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.messages(conversationID).OrderBy("createdAt", firestore.Asc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	messages, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *firestoreMessageRepository) List(ctx context.Context, filter repository.MessageFilter) ([]*entity.Message, int64, error) {
	var messages []*entity.Message
	for _, conversationID := range filter.ConversationIDs {
		query := r.messages(conversationID).Query
		if filter.Type != "" {
			query = query.Where("type", "==", filter.Type)
		}
		if filter.UnreadOnly {
			query = query.Where("isRead", "==", false)
		}

		batch, err := r.collect(query.Documents(ctx))
		if err != nil {
			return nil, 0, err
		}
		for _, message := range batch {
			if filter.ExcludeSender != "" && message.SenderID == filter.ExcludeSender {
				continue
			}
			messages = append(messages, message)
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})

	total := int64(len(messages))
	if filter.Offset >= len(messages) {
		return []*entity.Message{}, total, nil
	}
	end := len(messages)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}

	return messages[filter.Offset:end], total, nil
}

func (r *firestoreMessageRepository) Last(ctx context.Context, conversationID string) (*entity.Message, error) {
	iter := r.messages(conversationID).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Internal("Failed to get last message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

// MarkRead is idempotent: a message already read keeps its original readAt.
func (r *firestoreMessageRepository) MarkRead(ctx context.Context, conversationID, messageID string, at time.Time) error {
	ref := r.messages(conversationID).Doc(messageID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return err
		}
		if message.IsRead {
			return nil
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "isRead", Value: true},
			{Path: "readAt", Value: at},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to mark message as read", err)
	}

	return nil
}

func (r *firestoreMessageRepository) MarkAllRead(ctx context.Context, conversationID, excludeSender string, at time.Time) (int64, error) {
	unread, err := r.collect(r.messages(conversationID).
		Where("isRead", "==", false).
		Documents(ctx))
	if err != nil {
		return 0, err
	}

	batch := r.client.Batch()
	var count int64
	for _, message := range unread {
		if message.SenderID == excludeSender {
			continue
		}
		batch.Update(r.messages(conversationID).Doc(message.ID), []firestore.Update{
			{Path: "isRead", Value: true},
			{Path: "readAt", Value: at},
		})
		count++
	}
	if count == 0 {
		return 0, nil
	}

	if _, err := batch.Commit(ctx); err != nil {
		return 0, errors.Internal("Failed to mark messages as read", err)
	}

	return count, nil
}

func (r *firestoreMessageRepository) Flag(ctx context.Context, conversationID, messageID string) error {
	_, err := r.messages(conversationID).Doc(messageID).Update(ctx, []firestore.Update{
		{Path: "isFlagged", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to flag message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) Count(ctx context.Context, conversationID string) (int64, error) {
	docs, err := r.messages(conversationID).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count messages", err)
	}
	return int64(len(docs)), nil
}

func (r *firestoreMessageRepository) CountBySender(ctx context.Context, conversationID, senderID string) (int64, error) {
	docs, err := r.messages(conversationID).
		Where("senderId", "==", senderID).
		Documents(ctx).
		GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count messages", err)
	}
	return int64(len(docs)), nil
}

func (r *firestoreMessageRepository) CountUnread(ctx context.Context, conversationID, excludeSender string) (int64, error) {
	unread, err := r.collect(r.messages(conversationID).
		Where("isRead", "==", false).
		Documents(ctx))
	if err != nil {
		return 0, err
	}

	var count int64
	for _, message := range unread {
		if message.SenderID == excludeSender {
			continue
		}
		count++
	}
	return count, nil
}

func (r *firestoreMessageRepository) collect(iter *firestore.DocumentIterator) ([]*entity.Message, error) {
	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}
	return messages, nil
}
