package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classipost/internal/adapter/repository/memory"
	"classipost/internal/domain/entity"
	apperrors "classipost/pkg/errors"
)

type sentEmail struct {
	ToEmail string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent []sentEmail
	fail bool
}

func (m *fakeMailer) Send(ctx context.Context, toEmail, toName, subject, htmlBody string) error {
	if m.fail {
		return errors.New("transport down")
	}
	m.sent = append(m.sent, sentEmail{ToEmail: toEmail, Subject: subject, Body: htmlBody})
	return nil
}

func newTestUser(id string, emailPrefs, messagePrefs bool) *entity.User {
	return &entity.User{
		ID:                          id,
		DisplayName:                 "User " + id,
		Email:                       id + "@example.com",
		NotificationsEnabled:        emailPrefs,
		MessageNotificationsEnabled: messagePrefs,
	}
}

func newNotificationFixture(t *testing.T, emailEnabled bool, mailer EmailSender, users ...*entity.User) (*NotificationUseCase, *memory.NotificationRepository) {
	t.Helper()
	notificationRepo := memory.NewNotificationRepository()
	userRepo := memory.NewUserRepository(users...)
	uc := NewNotificationUseCase(notificationRepo, userRepo, mailer, nil, NotificationSettings{
		EmailEnabled: emailEnabled,
		SiteURL:      "https://classipost.example",
	})
	return uc, notificationRepo
}

func TestNotifyPersistsRecordWhenEmailDisabled(t *testing.T) {
	mailer := &fakeMailer{}
	uc, _ := newNotificationFixture(t, false, mailer, newTestUser("u1", true, true))

	notification, err := uc.Notify(context.Background(), NotifyInput{
		RecipientID: "u1",
		Type:        entity.NotificationSystem,
		Title:       "Maintenance window",
		Body:        "Scheduled downtime tonight",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, notification.ID)
	assert.False(t, notification.EmailSent)
	assert.Empty(t, mailer.sent)

	stored, err := uc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored)
}

func TestNotifySendsEmailWhenEnabled(t *testing.T) {
	mailer := &fakeMailer{}
	uc, _ := newNotificationFixture(t, true, mailer, newTestUser("u1", true, true))

	notification, err := uc.Notify(context.Background(), NotifyInput{
		RecipientID: "u1",
		Type:        entity.NotificationSystem,
		Title:       "Welcome",
		Body:        "Hello there",
		ActionURL:   "/dashboard",
	})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "u1@example.com", mailer.sent[0].ToEmail)
	assert.Equal(t, "Welcome", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Body, "https://classipost.example/dashboard")
	assert.True(t, notification.EmailSent)
}

func TestNotifyRespectsRecipientPreference(t *testing.T) {
	mailer := &fakeMailer{}
	uc, _ := newNotificationFixture(t, true, mailer, newTestUser("u1", false, true))

	notification, err := uc.Notify(context.Background(), NotifyInput{
		RecipientID: "u1",
		Type:        entity.NotificationListingApproved,
		Title:       "Your listing has been approved!",
		Body:        "body",
	})
	require.NoError(t, err)

	// The in-app record still exists; only the email is suppressed.
	assert.Empty(t, mailer.sent)
	assert.False(t, notification.EmailSent)
}

func TestNotifyMessageCategoryUsesMessagePreference(t *testing.T) {
	// General notifications off, message notifications on.
	mailer := &fakeMailer{}
	uc, _ := newNotificationFixture(t, true, mailer, newTestUser("u1", false, true))

	_, err := uc.Notify(context.Background(), NotifyInput{
		RecipientID: "u1",
		Type:        entity.NotificationNewMessage,
		Title:       "New message from User u2",
		Body:        "hi",
	})
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 1)

	// And the inverse: message notifications off blocks message emails even
	// when general notifications are on.
	mailer2 := &fakeMailer{}
	uc2, _ := newNotificationFixture(t, true, mailer2, newTestUser("u2", true, false))

	_, err = uc2.Notify(context.Background(), NotifyInput{
		RecipientID: "u2",
		Type:        entity.NotificationNewConversation,
		Title:       "User u1 is interested in your listing",
		Body:        "body",
	})
	require.NoError(t, err)
	assert.Empty(t, mailer2.sent)
}

func TestNotifySwallowsTransportFailure(t *testing.T) {
	mailer := &fakeMailer{fail: true}
	uc, repo := newNotificationFixture(t, true, mailer, newTestUser("u1", true, true))

	notification, err := uc.Notify(context.Background(), NotifyInput{
		RecipientID: "u1",
		Type:        entity.NotificationSystem,
		Title:       "Title",
		Body:        "Body",
	})
	require.NoError(t, err)
	assert.False(t, notification.EmailSent)

	stored, err := repo.GetByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.False(t, stored.EmailSent)
}

func TestNotifyUnknownRecipient(t *testing.T) {
	uc, _ := newNotificationFixture(t, false, nil)

	_, err := uc.Notify(context.Background(), NotifyInput{
		RecipientID: "ghost",
		Type:        entity.NotificationSystem,
		Title:       "Title",
		Body:        "Body",
	})
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestNotifyNewMessageTruncatesPreview(t *testing.T) {
	uc, repo := newNotificationFixture(t, false, nil, newTestUser("seller", true, true), newTestUser("buyer", true, true))

	long := strings.Repeat("héllo ", 40)
	conversation := &entity.Conversation{ID: "c1", BuyerID: "buyer", SellerID: "seller", ListingID: "l1"}
	message := &entity.Message{ID: "m1", ConversationID: "c1", SenderID: "buyer", Type: entity.MessageTypeText, Content: long}

	sender := newTestUser("buyer", true, true)
	notification, err := uc.NotifyNewMessage(context.Background(), "seller", sender, message, conversation)
	require.NoError(t, err)

	assert.Equal(t, entity.NotificationNewMessage, notification.Type)
	assert.Len(t, []rune(notification.Body), 103)
	assert.True(t, strings.HasSuffix(notification.Body, "..."))
	assert.Equal(t, "/messages/c1", notification.ActionURL)

	stored, err := repo.GetByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, "seller", stored.RecipientID)
}

func TestNotifyNewMessageImageFallback(t *testing.T) {
	uc, _ := newNotificationFixture(t, false, nil, newTestUser("seller", true, true))

	conversation := &entity.Conversation{ID: "c1", BuyerID: "buyer", SellerID: "seller", ListingID: "l1"}
	message := &entity.Message{ID: "m1", ConversationID: "c1", SenderID: "buyer", Type: entity.MessageTypeImage, MediaURL: "https://cdn.example/pic.jpg"}

	notification, err := uc.NotifyNewMessage(context.Background(), "seller", newTestUser("buyer", true, true), message, conversation)
	require.NoError(t, err)
	assert.Equal(t, "Sent an image", notification.Body)
}

func TestMarkReadOwnershipAndIdempotency(t *testing.T) {
	uc, _ := newNotificationFixture(t, false, nil, newTestUser("u1", true, true), newTestUser("u2", true, true))

	notification, err := uc.NotifySystem(context.Background(), "u1", "Title", "Body", "")
	require.NoError(t, err)

	// A different user cannot see or mark it.
	_, err = uc.MarkRead(context.Background(), "u2", notification.ID)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))

	first, err := uc.MarkRead(context.Background(), "u1", notification.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	second, err := uc.MarkRead(context.Background(), "u1", notification.ID)
	require.NoError(t, err)
	assert.True(t, second.IsRead)

	count, err := uc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestClearReadDeletesOnlyRead(t *testing.T) {
	uc, _ := newNotificationFixture(t, false, nil, newTestUser("u1", true, true))

	read, err := uc.NotifySystem(context.Background(), "u1", "Old", "Body", "")
	require.NoError(t, err)
	_, err = uc.NotifySystem(context.Background(), "u1", "Fresh", "Body", "")
	require.NoError(t, err)

	_, err = uc.MarkRead(context.Background(), "u1", read.ID)
	require.NoError(t, err)

	deleted, err := uc.ClearRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, total, err := uc.List(context.Background(), "u1", ListNotificationsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Fresh", remaining[0].Title)
}

func TestListFilters(t *testing.T) {
	uc, _ := newNotificationFixture(t, false, nil, newTestUser("u1", true, true))

	first, err := uc.NotifySystem(context.Background(), "u1", "One", "Body", "")
	require.NoError(t, err)
	_, err = uc.Notify(context.Background(), NotifyInput{
		RecipientID: "u1",
		Type:        entity.NotificationListingExpired,
		Title:       "Your listing has expired",
		Body:        "Body",
	})
	require.NoError(t, err)

	_, err = uc.MarkRead(context.Background(), "u1", first.ID)
	require.NoError(t, err)

	isRead := false
	unread, total, err := uc.List(context.Background(), "u1", ListNotificationsInput{IsRead: &isRead})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, entity.NotificationListingExpired, unread[0].Type)

	byType, total, err := uc.List(context.Background(), "u1", ListNotificationsInput{Type: entity.NotificationListingExpired})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, byType, 1)
	assert.Equal(t, entity.NotificationListingExpired, byType[0].Type)
}
