package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"classipost/internal/domain/entity"
	"classipost/internal/domain/repository"
	"classipost/pkg/errors"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		doc := r.client.Collection("notifications").NewDoc()
		notification.ID = doc.ID
	}

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("notifications").Doc(notification.ID).Set(ctx, notification)
	if err != nil {
		return errors.Internal("Failed to create notification", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	doc, err := r.client.Collection("notifications").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Notification", err)
		}
		return nil, errors.Internal("Failed to get notification", err)
	}

	var notification entity.Notification
	if err := doc.DataTo(&notification); err != nil {
		return nil, errors.Internal("Failed to parse notification data", err)
	}

	return &notification, nil
}

func (r *firestoreNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, filter repository.NotificationFilter) ([]*entity.Notification, int64, error) {
	query := r.client.Collection("notifications").Query.
		Where("recipientId", "==", recipientID)
	if filter.IsRead != nil {
		query = query.Where("isRead", "==", *filter.IsRead)
	}
	if filter.Type != "" {
		query = query.Where("type", "==", filter.Type)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count notifications", err)
	}
	total := int64(len(allDocs))

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	notifications, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	ref := r.client.Collection("notifications").Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			return err
		}
		if notification.IsRead {
			return nil
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "isRead", Value: true},
			{Path: "readAt", Value: at},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", err)
		}
		return errors.Internal("Failed to mark notification as read", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	unread, err := r.collect(r.client.Collection("notifications").
		Where("recipientId", "==", recipientID).
		Where("isRead", "==", false).
		Documents(ctx))
	if err != nil {
		return 0, err
	}
	if len(unread) == 0 {
		return 0, nil
	}

	batch := r.client.Batch()
	for _, notification := range unread {
		batch.Update(r.client.Collection("notifications").Doc(notification.ID), []firestore.Update{
			{Path: "isRead", Value: true},
			{Path: "readAt", Value: at},
		})
	}

	if _, err := batch.Commit(ctx); err != nil {
		return 0, errors.Internal("Failed to mark notifications as read", err)
	}

	return int64(len(unread)), nil
}

func (r *firestoreNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	docs, err := r.client.Collection("notifications").
		Where("recipientId", "==", recipientID).
		Where("isRead", "==", false).
		Documents(ctx).
		GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count notifications", err)
	}
	return int64(len(docs)), nil
}

// DeleteRead removes read notifications only; unread ones always survive.
func (r *firestoreNotificationRepository) DeleteRead(ctx context.Context, recipientID string) (int64, error) {
	read, err := r.collect(r.client.Collection("notifications").
		Where("recipientId", "==", recipientID).
		Where("isRead", "==", true).
		Documents(ctx))
	if err != nil {
		return 0, err
	}
	if len(read) == 0 {
		return 0, nil
	}

	batch := r.client.Batch()
	for _, notification := range read {
		batch.Delete(r.client.Collection("notifications").Doc(notification.ID))
	}

	if _, err := batch.Commit(ctx); err != nil {
		return 0, errors.Internal("Failed to delete notifications", err)
	}

	return int64(len(read)), nil
}

func (r *firestoreNotificationRepository) SetEmailSent(ctx context.Context, id string) error {
	_, err := r.client.Collection("notifications").Doc(id).Update(ctx, []firestore.Update{
		{Path: "emailSent", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", err)
		}
		return errors.Internal("Failed to update notification", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) collect(iter *firestore.DocumentIterator) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate notifications", err)
		}

		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			return nil, errors.Internal("Failed to parse notification data", err)
		}
		notifications = append(notifications, &notification)
	}
	return notifications, nil
}
