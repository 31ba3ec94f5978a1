package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classipost/internal/adapter/repository/memory"
	"classipost/internal/domain/entity"
	apperrors "classipost/pkg/errors"
)

type fixture struct {
	conversations *ConversationUseCase
	messages      *MessageUseCase
	notifications *NotificationUseCase

	conversationRepo *memory.ConversationRepository
	messageRepo      *memory.MessageRepository
	notificationRepo *memory.NotificationRepository
	listingRepo      *memory.ListingRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conversationRepo := memory.NewConversationRepository()
	messageRepo := memory.NewMessageRepository()
	notificationRepo := memory.NewNotificationRepository()
	userRepo := memory.NewUserRepository(
		newTestUser("buyer", true, true),
		newTestUser("seller", true, true),
		newTestUser("other", true, true),
	)
	listingRepo := memory.NewListingRepository(
		&entity.Listing{ID: "l1", OwnerID: "seller", Title: "Vintage bike", Status: entity.ListingStatusActive},
		&entity.Listing{ID: "l2", OwnerID: "seller", Title: "Bookshelf", Status: entity.ListingStatusActive},
		&entity.Listing{ID: "l3", OwnerID: "buyer", Title: "Old couch", Status: entity.ListingStatusActive},
		&entity.Listing{ID: "expired", OwnerID: "seller", Title: "Gone", Status: entity.ListingStatusExpired},
	)

	notifications := NewNotificationUseCase(notificationRepo, userRepo, nil, nil, NotificationSettings{})
	messages := NewMessageUseCase(messageRepo, conversationRepo, userRepo, notifications, nil)
	conversations := NewConversationUseCase(conversationRepo, messageRepo, userRepo, listingRepo, notifications, nil)

	return &fixture{
		conversations:    conversations,
		messages:         messages,
		notifications:    notifications,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		notificationRepo: notificationRepo,
		listingRepo:      listingRepo,
	}
}

func TestStartCreatesConversationAndNotifiesSellerOnce(t *testing.T) {
	f := newFixture(t)

	conversation, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{
		ListingID:      "l1",
		InitialMessage: "Is this still available?",
	})
	require.NoError(t, err)

	assert.Equal(t, "buyer", conversation.BuyerID)
	assert.Equal(t, "seller", conversation.SellerID)
	assert.NotNil(t, conversation.LastMessageAt)
	require.NotNil(t, conversation.LastMessage)
	assert.Equal(t, "Is this still available?", conversation.LastMessage.Content)

	// Exactly one notification for the seller, of the conversation kind.
	all, total, err := f.notifications.List(context.Background(), "seller", ListNotificationsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, entity.NotificationNewConversation, all[0].Type)
	assert.Equal(t, "User buyer is interested in your listing", all[0].Title)
}

func TestStartIsIdempotentPerTriple(t *testing.T) {
	f := newFixture(t)

	first, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)

	second, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// A different listing with the same pair is a separate conversation.
	otherListing, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, otherListing.ID)
}

func TestStartResumeUnarchivesAndNotifiesMessageOnly(t *testing.T) {
	f := newFixture(t)

	first, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)

	_, err = f.conversations.Archive(context.Background(), "buyer", first.ID)
	require.NoError(t, err)

	resumed, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{
		ListingID:      "l1",
		InitialMessage: "Still interested",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, resumed.ID)
	assert.False(t, resumed.IsArchived)

	all, _, err := f.notifications.List(context.Background(), "seller", ListNotificationsInput{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest first: the resume produced a message notification, not another
	// conversation notification.
	assert.Equal(t, entity.NotificationNewMessage, all[0].Type)
	assert.Equal(t, entity.NotificationNewConversation, all[1].Type)
}

func TestStartRejectsOwnListing(t *testing.T) {
	f := newFixture(t)

	_, err := f.conversations.Start(context.Background(), "seller", StartConversationInput{ListingID: "l1"})
	assert.True(t, apperrors.Is(err, "CONFLICT"))
}

func TestStartRejectsInactiveListing(t *testing.T) {
	f := newFixture(t)

	_, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "expired"})
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))

	_, err = f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "missing"})
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestBlockCoversWholePair(t *testing.T) {
	f := newFixture(t)

	first, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)
	_, err = f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l2"})
	require.NoError(t, err)

	result, err := f.conversations.Block(context.Background(), "buyer", first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.UpdatedCount)

	// The blocker cannot start new contact either, and gets told why.
	_, err = f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "CONFLICT"))
	assert.Contains(t, err.Error(), "You have blocked this user")

	// Blocking is symmetric: the seller cannot reach the buyer through any
	// of the buyer's listings.
	_, err = f.conversations.Start(context.Background(), "seller", StartConversationInput{ListingID: "l3"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "CONFLICT"))
	assert.Contains(t, err.Error(), "This user has blocked you")
}

func TestUnblockOnlyByBlocker(t *testing.T) {
	f := newFixture(t)

	conversation, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)

	_, err = f.conversations.Block(context.Background(), "buyer", conversation.ID)
	require.NoError(t, err)

	_, err = f.conversations.Unblock(context.Background(), "seller", conversation.ID)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))

	result, err := f.conversations.Unblock(context.Background(), "buyer", conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.UpdatedCount)

	// Contact works again after the block is lifted.
	_, err = f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l2"})
	assert.NoError(t, err)
}

func TestArchiveIsOrthogonalToBlock(t *testing.T) {
	f := newFixture(t)

	conversation, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)

	_, err = f.conversations.Block(context.Background(), "seller", conversation.ID)
	require.NoError(t, err)

	archived, err := f.conversations.Archive(context.Background(), "buyer", conversation.ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)
	assert.True(t, archived.IsBlocked)
	assert.Equal(t, "seller", archived.BlockedBy)

	unarchived, err := f.conversations.Unarchive(context.Background(), "buyer", conversation.ID)
	require.NoError(t, err)
	assert.False(t, unarchived.IsArchived)
	assert.True(t, unarchived.IsBlocked)
}

func TestGetMarksOtherPartyMessagesRead(t *testing.T) {
	f := newFixture(t)

	conversation, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)

	_, err = f.messages.Send(context.Background(), "buyer", conversation.ID, SendMessageInput{Content: "hello"})
	require.NoError(t, err)
	_, err = f.messages.Send(context.Background(), "buyer", conversation.ID, SendMessageInput{Content: "anyone there?"})
	require.NoError(t, err)

	count, err := f.conversations.UnreadCount(context.Background(), "seller")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	detail, err := f.conversations.Get(context.Background(), "seller", conversation.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "hello", detail.Messages[0].Content)

	count, err = f.conversations.UnreadCount(context.Background(), "seller")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The sender's own unread count was never affected.
	count, err = f.conversations.UnreadCount(context.Background(), "buyer")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGetRejectsNonParticipant(t *testing.T) {
	f := newFixture(t)

	conversation, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)

	_, err = f.conversations.Get(context.Background(), "other", conversation.ID, 0, 0)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
}

func TestListFiltersAndHydrates(t *testing.T) {
	f := newFixture(t)

	first, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)
	second, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l2"})
	require.NoError(t, err)

	_, err = f.conversations.Archive(context.Background(), "buyer", second.ID)
	require.NoError(t, err)

	active, total, err := f.conversations.List(context.Background(), "buyer", ListConversationsInput{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)
	require.NotNil(t, active[0].Listing)
	assert.Equal(t, "Vintage bike", active[0].Listing.Title)
	require.NotNil(t, active[0].OtherUser)
	assert.Equal(t, "seller", active[0].OtherUser.ID)

	archived, total, err := f.conversations.List(context.Background(), "buyer", ListConversationsInput{Status: "archived"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second.ID, archived[0].ID)

	byTitle, total, err := f.conversations.List(context.Background(), "buyer", ListConversationsInput{Search: "bookshelf"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second.ID, byTitle[0].ID)
}

func TestListOrdersByRecentActivity(t *testing.T) {
	f := newFixture(t)

	first, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)
	second, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l2"})
	require.NoError(t, err)

	// Activity in the older conversation moves it back to the top.
	_, err = f.messages.Send(context.Background(), "buyer", first.ID, SendMessageInput{Content: "ping"})
	require.NoError(t, err)

	listed, _, err := f.conversations.List(context.Background(), "buyer", ListConversationsInput{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)
}

func TestAdvanceLastMessageNeverMovesBackwards(t *testing.T) {
	f := newFixture(t)

	conversation, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)

	newer := time.Now().Add(time.Minute)
	older := newer.Add(-30 * time.Second)

	require.NoError(t, f.conversationRepo.AdvanceLastMessage(context.Background(), conversation.ID, newer))
	require.NoError(t, f.conversationRepo.AdvanceLastMessage(context.Background(), conversation.ID, older))

	stored, err := f.conversationRepo.GetByID(context.Background(), conversation.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessageAt)
	assert.True(t, stored.LastMessageAt.Equal(newer))
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	first, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l1"})
	require.NoError(t, err)
	second, err := f.conversations.Start(context.Background(), "buyer", StartConversationInput{ListingID: "l2"})
	require.NoError(t, err)

	_, err = f.messages.Send(context.Background(), "buyer", first.ID, SendMessageInput{Content: "one"})
	require.NoError(t, err)
	_, err = f.messages.Send(context.Background(), "seller", first.ID, SendMessageInput{Content: "two"})
	require.NoError(t, err)
	_, err = f.messages.Send(context.Background(), "seller", second.ID, SendMessageInput{Content: "three"})
	require.NoError(t, err)

	_, err = f.conversations.Archive(context.Background(), "buyer", second.ID)
	require.NoError(t, err)

	stats, err := f.conversations.Stats(context.Background(), "buyer")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalConversations)
	assert.Equal(t, int64(1), stats.ActiveConversations)
	assert.Equal(t, int64(1), stats.MessagesSent)
	assert.Equal(t, int64(2), stats.MessagesReceived)
	assert.Equal(t, int64(2), stats.UnreadMessages)
}
