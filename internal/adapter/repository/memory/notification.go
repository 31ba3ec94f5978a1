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

type NotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*entity.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		notifications: make(map[string]*entity.Notification),
	}
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	stored := *notification
	r.notifications[notification.ID] = &stored
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notification, ok := r.notifications[id]
	if !ok {
		return nil, errors.NotFound("Notification", nil)
	}
	copied := *notification
	return &copied, nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, filter repository.NotificationFilter) ([]*entity.Notification, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.Notification
	for _, notification := range r.notifications {
		if notification.RecipientID != recipientID {
			continue
		}
		if filter.IsRead != nil && notification.IsRead != *filter.IsRead {
			continue
		}
		if filter.Type != "" && notification.Type != filter.Type {
			continue
		}
		copied := *notification
		result = append(result, &copied)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	total := int64(len(result))
	if filter.Offset >= len(result) {
		return []*entity.Notification{}, total, nil
	}
	end := len(result)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return result[filter.Offset:end], total, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notification, ok := r.notifications[id]
	if !ok {
		return errors.NotFound("Notification", nil)
	}
	if notification.IsRead {
		return nil
	}
	stamp := at
	notification.IsRead = true
	notification.ReadAt = &stamp
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, notification := range r.notifications {
		if notification.RecipientID != recipientID || notification.IsRead {
			continue
		}
		stamp := at
		notification.IsRead = true
		notification.ReadAt = &stamp
		count++
	}
	return count, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, notification := range r.notifications {
		if notification.RecipientID == recipientID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) DeleteRead(ctx context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, notification := range r.notifications {
		if notification.RecipientID == recipientID && notification.IsRead {
			delete(r.notifications, id)
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) SetEmailSent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notification, ok := r.notifications[id]
	if !ok {
		return errors.NotFound("Notification", nil)
	}
	notification.EmailSent = true
	return nil
}
