package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"classipost/internal/domain/entity"
	"classipost/internal/domain/repository"
	"classipost/internal/infrastructure/ratelimit"
	"classipost/pkg/errors"
	"classipost/pkg/logger"
)

type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	userRepo         repository.UserRepository
	listingRepo      repository.ListingRepository
	notifier         *NotificationUseCase
	rateLimiter      *ratelimit.RateLimiter
}

func NewConversationUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	notifier *NotificationUseCase,
	rateLimiter *ratelimit.RateLimiter,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		listingRepo:      listingRepo,
		notifier:         notifier,
		rateLimiter:      rateLimiter,
	}
}

type StartConversationInput struct {
	ListingID      string `json:"listing_id" validate:"required"`
	InitialMessage string `json:"initial_message" validate:"max=5000"`
}

// ConversationResponse hydrates a conversation with the listing, the other
// participant, and per-caller read state.
type ConversationResponse struct {
	*entity.Conversation
	Listing     *entity.Listing `json:"listing,omitempty"`
	OtherUser   *entity.User    `json:"other_user,omitempty"`
	UnreadCount int64           `json:"unread_count"`
	LastMessage *entity.Message `json:"last_message,omitempty"`
}

type ConversationDetailResponse struct {
	ConversationResponse
	Messages []*MessageResponse `json:"messages"`
	Total    int64              `json:"total_messages"`
}

// BlockResult reports a bulk block/unblock over every conversation the
// pair shares.
type BlockResult struct {
	UpdatedCount int64        `json:"updated_count"`
	OtherUser    *entity.User `json:"other_user,omitempty"`
}

// MessageStats aggregates the caller's messaging activity.
type MessageStats struct {
	TotalConversations  int64 `json:"total_conversations"`
	ActiveConversations int64 `json:"active_conversations"`
	MessagesSent        int64 `json:"messages_sent"`
	MessagesReceived    int64 `json:"messages_received"`
	UnreadMessages      int64 `json:"unread_messages"`
}

// Start opens (or resumes) the buyer's conversation about a listing. Each
// (buyer, seller, listing) triple has at most one conversation, so starting
// twice returns the existing one, unarchived.
func (uc *ConversationUseCase) Start(ctx context.Context, buyerID string, input StartConversationInput) (*ConversationResponse, error) {
	if uc.rateLimiter != nil {
		if allowed, _ := uc.rateLimiter.Allow(buyerID, "start_conversation"); !allowed {
			return nil, errors.TooManyRequests("You are starting conversations too quickly. Please try again later.")
		}
	}

	listing, err := uc.listingRepo.GetActive(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID == buyerID {
		return nil, errors.Conflict("You cannot start a conversation about your own listing")
	}
	sellerID := listing.OwnerID

	// Blocking is pair-level: one blocked conversation with this user, about
	// any listing, forbids new contact.
	existing, err := uc.conversationRepo.ListByPair(ctx, buyerID, sellerID)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		if !c.IsBlocked {
			continue
		}
		if c.BlockedBy == buyerID {
			return nil, errors.Conflict("You have blocked this user. Unblock them before starting a conversation.")
		}
		return nil, errors.Conflict("This user has blocked you.")
	}

	conversation, err := uc.conversationRepo.GetByTriple(ctx, buyerID, sellerID, input.ListingID)
	created := false
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
		conversation = &entity.Conversation{
			BuyerID:   buyerID,
			SellerID:  sellerID,
			ListingID: input.ListingID,
		}
		if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
			return nil, err
		}
		created = true
	} else if conversation.IsArchived {
		// Resuming contact unarchives; block state is left untouched.
		conversation.IsArchived = false
		if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
			return nil, err
		}
	}

	buyer, err := uc.userRepo.GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	var initialMessage *entity.Message
	if input.InitialMessage != "" {
		initialMessage = &entity.Message{
			ConversationID: conversation.ID,
			SenderID:       buyerID,
			Type:           entity.MessageTypeText,
			Content:        input.InitialMessage,
		}
		if err := uc.messageRepo.Create(ctx, initialMessage); err != nil {
			return nil, err
		}
		if err := uc.conversationRepo.AdvanceLastMessage(ctx, conversation.ID, initialMessage.CreatedAt); err != nil {
			logger.Warn("Failed to advance last message time for conversation %s: %v", conversation.ID, err)
		}
		conversation.LastMessageAt = &initialMessage.CreatedAt
	}

	// A fresh conversation produces exactly one notification for the seller,
	// even when it carries an initial message. Resuming an existing one only
	// notifies about the message itself.
	if uc.notifier != nil {
		if created {
			if _, err := uc.notifier.NotifyNewConversation(ctx, sellerID, buyer, conversation, listing); err != nil {
				logger.Warn("Failed to notify %s of new conversation: %v", sellerID, err)
			}
		} else if initialMessage != nil {
			if _, err := uc.notifier.NotifyNewMessage(ctx, sellerID, buyer, initialMessage, conversation); err != nil {
				logger.Warn("Failed to notify %s of new message: %v", sellerID, err)
			}
		}
	}

	response := uc.hydrate(ctx, buyerID, conversation)
	response.Listing = listing
	return response, nil
}

type ListConversationsInput struct {
	// Status filters to "active", "archived" or "blocked"; empty means all.
	Status    string
	ListingID string
	Search    string
	Limit     int
	Offset    int
}

// List returns the caller's conversations, most recently active first,
// hydrated with listing, counterpart and unread counts. Search matches the
// other participant's name or the listing title.
func (uc *ConversationUseCase) List(ctx context.Context, userID string, input ListConversationsInput) ([]*ConversationResponse, int64, error) {
	conversations, err := uc.conversationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]*entity.Conversation, 0, len(conversations))
	for _, c := range conversations {
		switch input.Status {
		case "active":
			if !c.IsActive() {
				continue
			}
		case "archived":
			if !c.IsArchived {
				continue
			}
		case "blocked":
			if !c.IsBlocked {
				continue
			}
		}
		if input.ListingID != "" && c.ListingID != input.ListingID {
			continue
		}
		filtered = append(filtered, c)
	}

	responses := make([]*ConversationResponse, 0, len(filtered))
	search := strings.ToLower(strings.TrimSpace(input.Search))
	for _, c := range filtered {
		response := uc.hydrate(ctx, userID, c)
		if search != "" && !matchesSearch(response, search) {
			continue
		}
		responses = append(responses, response)
	}

	sort.SliceStable(responses, func(i, j int) bool {
		return activityTime(responses[i].Conversation).After(activityTime(responses[j].Conversation))
	})

	total := int64(len(responses))
	responses = paginate(responses, input.Limit, input.Offset)
	return responses, total, nil
}

// Get returns the conversation with its full message log in send order, and
// marks the other party's messages as read.
func (uc *ConversationUseCase) Get(ctx context.Context, userID, conversationID string, limit, offset int) (*ConversationDetailResponse, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	if _, err := uc.messageRepo.MarkAllRead(ctx, conversationID, userID, time.Now()); err != nil {
		logger.Warn("Failed to mark conversation %s read for %s: %v", conversationID, userID, err)
	}

	messages, total, err := uc.messageRepo.ListByConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}

	senders := make(map[string]*entity.User)
	messageResponses := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		sender, ok := senders[message.SenderID]
		if !ok {
			if sender, err = uc.userRepo.GetByID(ctx, message.SenderID); err != nil {
				sender = nil
			}
			senders[message.SenderID] = sender
		}
		messageResponses = append(messageResponses, &MessageResponse{Message: message, Sender: sender})
	}

	return &ConversationDetailResponse{
		ConversationResponse: *uc.hydrate(ctx, userID, conversation),
		Messages:             messageResponses,
		Total:                total,
	}, nil
}

// Archive hides the conversation from the caller's active list. Archiving
// never touches block state.
func (uc *ConversationUseCase) Archive(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	return uc.setArchived(ctx, userID, conversationID, true)
}

func (uc *ConversationUseCase) Unarchive(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	return uc.setArchived(ctx, userID, conversationID, false)
}

func (uc *ConversationUseCase) setArchived(ctx context.Context, userID, conversationID string, archived bool) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	if conversation.IsArchived == archived {
		return conversation, nil
	}
	conversation.IsArchived = archived
	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Block blocks the other participant across every conversation the pair
// shares, regardless of listing.
func (uc *ConversationUseCase) Block(ctx context.Context, userID, conversationID string) (*BlockResult, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	otherID := conversation.OtherParticipant(userID)
	count, err := uc.conversationRepo.SetBlocked(ctx, userID, otherID, userID)
	if err != nil {
		return nil, err
	}

	result := &BlockResult{UpdatedCount: count}
	if other, err := uc.userRepo.GetByID(ctx, otherID); err == nil {
		result.OtherUser = other
	}
	return result, nil
}

// Unblock reverses a block placed by the caller. Conversations blocked by
// the other party stay blocked.
func (uc *ConversationUseCase) Unblock(ctx context.Context, userID, conversationID string) (*BlockResult, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	if conversation.IsBlocked && conversation.BlockedBy != userID {
		return nil, errors.Forbidden("Only the user who blocked can unblock", nil)
	}

	otherID := conversation.OtherParticipant(userID)
	count, err := uc.conversationRepo.ClearBlocked(ctx, userID, otherID, userID)
	if err != nil {
		return nil, err
	}

	result := &BlockResult{UpdatedCount: count}
	if other, err := uc.userRepo.GetByID(ctx, otherID); err == nil {
		result.OtherUser = other
	}
	return result, nil
}

// UnreadCount totals unread messages from other parties across all of the
// caller's conversations.
func (uc *ConversationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	conversations, err := uc.conversationRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range conversations {
		count, err := uc.messageRepo.CountUnread(ctx, c.ID, userID)
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

// Stats aggregates the caller's conversation and message counts.
func (uc *ConversationUseCase) Stats(ctx context.Context, userID string) (*MessageStats, error) {
	conversations, err := uc.conversationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &MessageStats{TotalConversations: int64(len(conversations))}
	for _, c := range conversations {
		if c.IsActive() {
			stats.ActiveConversations++
		}

		total, err := uc.messageRepo.Count(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		sent, err := uc.messageRepo.CountBySender(ctx, c.ID, userID)
		if err != nil {
			return nil, err
		}
		unread, err := uc.messageRepo.CountUnread(ctx, c.ID, userID)
		if err != nil {
			return nil, err
		}

		stats.MessagesSent += sent
		stats.MessagesReceived += total - sent
		stats.UnreadMessages += unread
	}
	return stats, nil
}

func (uc *ConversationUseCase) hydrate(ctx context.Context, userID string, conversation *entity.Conversation) *ConversationResponse {
	response := &ConversationResponse{Conversation: conversation}

	if listing, err := uc.listingRepo.GetByID(ctx, conversation.ListingID); err == nil {
		response.Listing = listing
	}
	if other, err := uc.userRepo.GetByID(ctx, conversation.OtherParticipant(userID)); err == nil {
		response.OtherUser = other
	}
	if count, err := uc.messageRepo.CountUnread(ctx, conversation.ID, userID); err == nil {
		response.UnreadCount = count
	}
	if last, err := uc.messageRepo.Last(ctx, conversation.ID); err == nil {
		response.LastMessage = last
	}
	return response
}

func matchesSearch(response *ConversationResponse, search string) bool {
	if response.OtherUser != nil && strings.Contains(strings.ToLower(response.OtherUser.DisplayName), search) {
		return true
	}
	if response.Listing != nil && strings.Contains(strings.ToLower(response.Listing.Title), search) {
		return true
	}
	return false
}

func activityTime(conversation *entity.Conversation) time.Time {
	if conversation.LastMessageAt != nil {
		return *conversation.LastMessageAt
	}
	return conversation.CreatedAt
}

func paginate(responses []*ConversationResponse, limit, offset int) []*ConversationResponse {
	if offset >= len(responses) {
		return []*ConversationResponse{}
	}
	end := len(responses)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return responses[offset:end]
}
