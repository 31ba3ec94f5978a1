package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"classipost/internal/domain/entity"
	"classipost/internal/domain/repository"
	"classipost/pkg/errors"
	"classipost/pkg/logger"
)

// NotificationSettings carries the system-wide dispatch configuration so the
// dispatcher stays testable without ambient state.
type NotificationSettings struct {
	EmailEnabled  bool
	SiteURL       string
	PreviewLength int
}

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	mailer           EmailSender
	pusher           RealtimePusher
	settings         NotificationSettings
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	mailer EmailSender,
	pusher RealtimePusher,
	settings NotificationSettings,
) *NotificationUseCase {
	if settings.PreviewLength <= 0 {
		settings.PreviewLength = 100
	}
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
		pusher:           pusher,
		settings:         settings,
	}
}

type NotifyInput struct {
	RecipientID    string
	Type           string
	Title          string
	Body           string
	ConversationID string
	ListingID      string
	ActionURL      string
}

// Notify persists the in-app record, then attempts external delivery when
// the system toggle and the recipient's category preference allow it. The
// stored record is the source of truth; transport failures only leave
// email_sent unset.
func (uc *NotificationUseCase) Notify(ctx context.Context, input NotifyInput) (*entity.Notification, error) {
	recipient, err := uc.userRepo.GetByID(ctx, input.RecipientID)
	if err != nil {
		return nil, err
	}

	notification := &entity.Notification{
		RecipientID:    input.RecipientID,
		Type:           input.Type,
		Title:          input.Title,
		Body:           input.Body,
		ConversationID: input.ConversationID,
		ListingID:      input.ListingID,
		ActionURL:      input.ActionURL,
	}

	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		return nil, err
	}

	if uc.shouldSendEmail(recipient, input.Type) {
		uc.sendEmail(ctx, notification, recipient)
	}

	uc.push(notification)

	return notification, nil
}

func (uc *NotificationUseCase) shouldSendEmail(recipient *entity.User, notificationType string) bool {
	if !uc.settings.EmailEnabled || uc.mailer == nil {
		return false
	}
	if entity.IsMessageNotification(notificationType) {
		return recipient.MessageNotificationsEnabled
	}
	return recipient.NotificationsEnabled
}

func (uc *NotificationUseCase) sendEmail(ctx context.Context, notification *entity.Notification, recipient *entity.User) {
	body, err := renderEmailBody(emailContext{
		RecipientName: recipient.DisplayName,
		Title:         notification.Title,
		Body:          notification.Body,
		ActionURL:     notification.ActionURL,
		SiteURL:       uc.settings.SiteURL,
	})
	if err != nil {
		logger.Error("Failed to render notification email for %s: %v", recipient.ID, err)
		return
	}

	if err := uc.mailer.Send(ctx, recipient.Email, recipient.DisplayName, notification.Title, body); err != nil {
		logger.Error("Failed to send notification email to %s: %v", recipient.Email, err)
		return
	}

	notification.EmailSent = true
	if err := uc.notificationRepo.SetEmailSent(ctx, notification.ID); err != nil {
		logger.Warn("Failed to record email_sent for notification %s: %v", notification.ID, err)
	}
}

func (uc *NotificationUseCase) push(notification *entity.Notification) {
	if uc.pusher == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":         "notification",
		"notification": notification,
	})
	if err != nil {
		return
	}
	uc.pusher.SendToUser(notification.RecipientID, payload)
}

// NotifyNewMessage notifies the receiving participant of an appended
// message. The body is a bounded preview of the message content.
func (uc *NotificationUseCase) NotifyNewMessage(ctx context.Context, recipientID string, sender *entity.User, message *entity.Message, conversation *entity.Conversation) (*entity.Notification, error) {
	preview := message.Content
	if runes := []rune(preview); len(runes) > uc.settings.PreviewLength {
		preview = string(runes[:uc.settings.PreviewLength]) + "..."
	}
	if message.Type == entity.MessageTypeImage && preview == "" {
		preview = "Sent an image"
	}

	return uc.Notify(ctx, NotifyInput{
		RecipientID:    recipientID,
		Type:           entity.NotificationNewMessage,
		Title:          fmt.Sprintf("New message from %s", sender.DisplayName),
		Body:           preview,
		ConversationID: conversation.ID,
		ListingID:      conversation.ListingID,
		ActionURL:      fmt.Sprintf("/messages/%s", conversation.ID),
	})
}

// NotifyNewConversation notifies the seller that a buyer opened contact.
func (uc *NotificationUseCase) NotifyNewConversation(ctx context.Context, recipientID string, sender *entity.User, conversation *entity.Conversation, listing *entity.Listing) (*entity.Notification, error) {
	return uc.Notify(ctx, NotifyInput{
		RecipientID:    recipientID,
		Type:           entity.NotificationNewConversation,
		Title:          fmt.Sprintf("%s is interested in your listing", sender.DisplayName),
		Body:           fmt.Sprintf("%s started a conversation about '%s'", sender.DisplayName, listing.Title),
		ConversationID: conversation.ID,
		ListingID:      listing.ID,
		ActionURL:      fmt.Sprintf("/messages/%s", conversation.ID),
	})
}

func (uc *NotificationUseCase) NotifyListingApproved(ctx context.Context, recipientID string, listing *entity.Listing) (*entity.Notification, error) {
	return uc.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		Type:        entity.NotificationListingApproved,
		Title:       "Your listing has been approved!",
		Body:        fmt.Sprintf("Your listing '%s' has been approved and is now live.", listing.Title),
		ListingID:   listing.ID,
		ActionURL:   fmt.Sprintf("/listings/%s", listing.ID),
	})
}

func (uc *NotificationUseCase) NotifyListingRejected(ctx context.Context, recipientID string, listing *entity.Listing, reason string) (*entity.Notification, error) {
	body := fmt.Sprintf("Your listing '%s' was not approved.", listing.Title)
	if reason != "" {
		body += " Reason: " + reason
	}
	return uc.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		Type:        entity.NotificationListingRejected,
		Title:       "Your listing was not approved",
		Body:        body,
		ListingID:   listing.ID,
		ActionURL:   "/dashboard/my-listings",
	})
}

func (uc *NotificationUseCase) NotifyListingExpired(ctx context.Context, recipientID string, listing *entity.Listing) (*entity.Notification, error) {
	return uc.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		Type:        entity.NotificationListingExpired,
		Title:       "Your listing has expired",
		Body:        fmt.Sprintf("Your listing '%s' has expired. You can renew it from your dashboard.", listing.Title),
		ListingID:   listing.ID,
		ActionURL:   "/dashboard/my-listings",
	})
}

func (uc *NotificationUseCase) NotifyListingExpiringSoon(ctx context.Context, recipientID string, listing *entity.Listing, daysLeft int) (*entity.Notification, error) {
	return uc.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		Type:        entity.NotificationListingExpiringSoon,
		Title:       fmt.Sprintf("Your listing expires in %d days", daysLeft),
		Body:        fmt.Sprintf("Your listing '%s' will expire in %d days. Renew it to keep it active.", listing.Title, daysLeft),
		ListingID:   listing.ID,
		ActionURL:   "/dashboard/my-listings",
	})
}

func (uc *NotificationUseCase) NotifySystem(ctx context.Context, recipientID, title, body, actionURL string) (*entity.Notification, error) {
	return uc.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		Type:        entity.NotificationSystem,
		Title:       title,
		Body:        body,
		ActionURL:   actionURL,
	})
}

type ListNotificationsInput struct {
	IsRead *bool
	Type   string
	Limit  int
	Offset int
}

func (uc *NotificationUseCase) List(ctx context.Context, recipientID string, input ListNotificationsInput) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByRecipient(ctx, recipientID, repository.NotificationFilter{
		IsRead: input.IsRead,
		Type:   input.Type,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
}

func (uc *NotificationUseCase) MarkRead(ctx context.Context, recipientID, notificationID string) (*entity.Notification, error) {
	notification, err := uc.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if notification.RecipientID != recipientID {
		return nil, errors.NotFound("Notification", nil)
	}

	now := time.Now()
	if err := uc.notificationRepo.MarkRead(ctx, notificationID, now); err != nil {
		return nil, err
	}
	if !notification.IsRead {
		notification.IsRead = true
		notification.ReadAt = &now
	}
	return notification, nil
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return uc.notificationRepo.MarkAllRead(ctx, recipientID, time.Now())
}

func (uc *NotificationUseCase) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return uc.notificationRepo.CountUnread(ctx, recipientID)
}

// ClearRead bulk-deletes the recipient's read notifications.
func (uc *NotificationUseCase) ClearRead(ctx context.Context, recipientID string) (int64, error) {
	return uc.notificationRepo.DeleteRead(ctx, recipientID)
}
