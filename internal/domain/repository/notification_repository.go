package repository

import (
	"context"
	"time"

	"classipost/internal/domain/entity"
)

type NotificationFilter struct {
	IsRead *bool
	Type   string
	Limit  int
	Offset int
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)

	// ListByRecipient returns the recipient's notifications newest first.
	ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]*entity.Notification, int64, error)

	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)

	// DeleteRead removes the recipient's read notifications. Unread ones
	// are never deleted here.
	DeleteRead(ctx context.Context, recipientID string) (int64, error)

	SetEmailSent(ctx context.Context, id string) error
}
