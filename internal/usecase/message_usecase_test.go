package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classipost/internal/domain/entity"
	apperrors "classipost/pkg/errors"
)

func startConversation(t *testing.T, f *fixture) string {
	t.Helper()
	conversation, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)
	return conversation.ID
}

func TestSendAppendsAndNotifiesRecipient(t *testing.T) {
	f := newFixture(t)
	conversationID := startConversation(t, f)

	message, err := f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{Content: "Is this available?"})
	require.NoError(t, err)

	assert.Equal(t, entity.MessageTypeText, message.Type)
	assert.False(t, message.IsRead)
	require.NotNil(t, message.Sender)
	assert.Equal(t, "buyer", message.Sender.ID)

	conversation, err := f.conversationRepo.GetByID(context.Background(), conversationID)
	require.NoError(t, err)
	require.NotNil(t, conversation.LastMessageAt)
	assert.True(t, conversation.LastMessageAt.Equal(message.CreatedAt))

	// The other participant gets the message notification; the sender does
	// not.
	sellerNotifs, _, err := f.notifications.List(context.Background(), "seller", ListNotificationsInput{Type: entity.NotificationNewMessage})
	require.NoError(t, err)
	require.Len(t, sellerNotifs, 1)
	assert.Equal(t, "New message from User buyer", sellerNotifs[0].Title)

	buyerNotifs, _, err := f.notifications.List(context.Background(), "buyer", ListNotificationsInput{})
	require.NoError(t, err)
	assert.Empty(t, buyerNotifs)
}

func TestSendSystemMessageSkipsNotification(t *testing.T) {
	f := newFixture(t)
	conversationID := startConversation(t, f)

	_, err := f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{
		Type:    entity.MessageTypeSystem,
		Content: "Conversation opened",
	})
	require.NoError(t, err)

	notifs, _, err := f.notifications.List(context.Background(), "seller", ListNotificationsInput{Type: entity.NotificationNewMessage})
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	conversationID := startConversation(t, f)

	_, err := f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{})
	assert.True(t, apperrors.Is(err, "VALIDATION_ERROR"))

	_, err = f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{Type: entity.MessageTypeImage})
	assert.True(t, apperrors.Is(err, "VALIDATION_ERROR"))

	message, err := f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{
		Type:     entity.MessageTypeImage,
		MediaURL: "https://cdn.example/photo.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MessageTypeImage, message.Type)
}

func TestSendRejectedForNonParticipant(t *testing.T) {
	f := newFixture(t)
	conversationID := startConversation(t, f)

	_, err := f.messages.Send(context.Background(), "other", conversationID, SendMessageInput{Content: "hi"})
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
}

func TestSendRejectedWhenBlockedOrArchived(t *testing.T) {
	f := newFixture(t)
	conversationID := startConversation(t, f)

	_, err := f.conversations.Archive(context.Background(), "seller", conversationID)
	require.NoError(t, err)

	_, err = f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{Content: "hello?"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "CONFLICT"))
	assert.Contains(t, err.Error(), "archived")

	_, err = f.conversations.Unarchive(context.Background(), "seller", conversationID)
	require.NoError(t, err)
	_, err = f.conversations.Block(context.Background(), "seller", conversationID)
	require.NoError(t, err)

	// Neither side can write to a blocked conversation.
	_, err = f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{Content: "hello?"})
	assert.True(t, apperrors.Is(err, "CONFLICT"))
	_, err = f.messages.Send(context.Background(), "seller", conversationID, SendMessageInput{Content: "hello?"})
	assert.True(t, apperrors.Is(err, "CONFLICT"))
}

func TestMarkReadRules(t *testing.T) {
	f := newFixture(t)
	conversationID := startConversation(t, f)

	sent, err := f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{Content: "hello"})
	require.NoError(t, err)

	// A sender cannot mark their own message.
	_, err = f.messages.MarkRead(context.Background(), "buyer", conversationID, sent.ID)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))

	first, err := f.messages.MarkRead(context.Background(), "seller", conversationID, sent.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)
	firstReadAt := *first.ReadAt

	// Marking again succeeds and keeps the original read time.
	second, err := f.messages.MarkRead(context.Background(), "seller", conversationID, sent.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ReadAt)
	assert.True(t, second.ReadAt.Equal(firstReadAt))
}

func TestMarkAllReadCountsOnlyOtherParty(t *testing.T) {
	f := newFixture(t)
	conversationID := startConversation(t, f)

	_, err := f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{Content: "one"})
	require.NoError(t, err)
	_, err = f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{Content: "two"})
	require.NoError(t, err)
	_, err = f.messages.Send(context.Background(), "seller", conversationID, SendMessageInput{Content: "reply"})
	require.NoError(t, err)

	count, err := f.messages.MarkAllRead(context.Background(), "seller", conversationID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Repeat is a no-op.
	count, err = f.messages.MarkAllRead(context.Background(), "seller", conversationID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestListMessagesFilters(t *testing.T) {
	f := newFixture(t)
	conversationID := startConversation(t, f)

	_, err := f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{Content: "question"})
	require.NoError(t, err)
	_, err = f.messages.Send(context.Background(), "seller", conversationID, SendMessageInput{Content: "answer"})
	require.NoError(t, err)

	// Unread view excludes the caller's own messages.
	unread, total, err := f.messages.List(context.Background(), "buyer", ListMessagesInput{UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, unread, 1)
	assert.Equal(t, "answer", unread[0].Content)

	scoped, total, err := f.messages.List(context.Background(), "buyer", ListMessagesInput{ConversationID: conversationID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	// Newest first across the conversation view.
	assert.Equal(t, "answer", scoped[0].Content)

	_, _, err = f.messages.List(context.Background(), "other", ListMessagesInput{ConversationID: conversationID})
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
}

func TestFlagMessage(t *testing.T) {
	f := newFixture(t)
	conversationID := startConversation(t, f)

	sent, err := f.messages.Send(context.Background(), "buyer", conversationID, SendMessageInput{Content: "spam"})
	require.NoError(t, err)

	_, err = f.messages.Flag(context.Background(), "buyer", conversationID, sent.ID)
	assert.True(t, apperrors.Is(err, "VALIDATION_ERROR"))

	flagged, err := f.messages.Flag(context.Background(), "seller", conversationID, sent.ID)
	require.NoError(t, err)
	assert.True(t, flagged.IsFlagged)

	stored, err := f.messageRepo.GetByID(context.Background(), conversationID, sent.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFlagged)
}
