package usecase

import (
	"context"
	"time"

	"classipost/internal/domain/entity"
	"classipost/internal/domain/repository"
	"classipost/internal/infrastructure/ratelimit"
	"classipost/pkg/errors"
	"classipost/pkg/logger"
)

type MessageUseCase struct {
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	notifier         *NotificationUseCase
	rateLimiter      *ratelimit.RateLimiter
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	notifier *NotificationUseCase,
	rateLimiter *ratelimit.RateLimiter,
) *MessageUseCase {
	return &MessageUseCase{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		notifier:         notifier,
		rateLimiter:      rateLimiter,
	}
}

type SendMessageInput struct {
	Type     string `json:"type" validate:"omitempty,oneof=text image system"`
	Content  string `json:"content" validate:"max=5000"`
	MediaURL string `json:"media_url" validate:"omitempty,url"`
}

// MessageResponse pairs a message with its resolved sender profile.
type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// Send appends a message to the conversation log and notifies the other
// participant. The conversation must be active for both parties.
func (uc *MessageUseCase) Send(ctx context.Context, senderID, conversationID string, input SendMessageInput) (*MessageResponse, error) {
	if uc.rateLimiter != nil {
		if allowed, _ := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
			return nil, errors.TooManyRequests("You are sending messages too quickly. Please wait a moment.")
		}
	}

	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(senderID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	if conversation.IsBlocked {
		return nil, errors.Conflict("This conversation has been blocked")
	}
	if conversation.IsArchived {
		return nil, errors.Conflict("Cannot send messages to an archived conversation")
	}

	messageType := input.Type
	if messageType == "" {
		messageType = entity.MessageTypeText
	}
	switch messageType {
	case entity.MessageTypeText, entity.MessageTypeSystem:
		if input.Content == "" {
			return nil, errors.BadRequest("Message content is required", nil)
		}
	case entity.MessageTypeImage:
		if input.MediaURL == "" {
			return nil, errors.BadRequest("Image messages require a media URL", nil)
		}
	default:
		return nil, errors.BadRequest("Unsupported message type", nil)
	}

	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Type:           messageType,
		Content:        input.Content,
		MediaURL:       input.MediaURL,
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	if err := uc.conversationRepo.AdvanceLastMessage(ctx, conversationID, message.CreatedAt); err != nil {
		logger.Warn("Failed to advance last message time for conversation %s: %v", conversationID, err)
	}

	sender, err := uc.userRepo.GetByID(ctx, senderID)
	if err != nil {
		logger.Warn("Failed to resolve sender %s: %v", senderID, err)
		return &MessageResponse{Message: message}, nil
	}

	if messageType != entity.MessageTypeSystem && uc.notifier != nil {
		recipientID := conversation.OtherParticipant(senderID)
		if _, err := uc.notifier.NotifyNewMessage(ctx, recipientID, sender, message, conversation); err != nil {
			logger.Warn("Failed to notify %s of new message: %v", recipientID, err)
		}
	}

	return &MessageResponse{Message: message, Sender: sender}, nil
}

type ListMessagesInput struct {
	ConversationID string
	Type           string
	UnreadOnly     bool
	Limit          int
	Offset         int
}

// List returns messages across the caller's conversations, newest first.
// UnreadOnly restricts to unread messages sent by the other party.
func (uc *MessageUseCase) List(ctx context.Context, userID string, input ListMessagesInput) ([]*MessageResponse, int64, error) {
	var conversationIDs []string
	if input.ConversationID != "" {
		conversation, err := uc.conversationRepo.GetByID(ctx, input.ConversationID)
		if err != nil {
			return nil, 0, err
		}
		if !conversation.HasParticipant(userID) {
			return nil, 0, errors.Forbidden("You are not a participant in this conversation", nil)
		}
		conversationIDs = []string{conversation.ID}
	} else {
		conversations, err := uc.conversationRepo.ListByUser(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
		if len(conversations) == 0 {
			return []*MessageResponse{}, 0, nil
		}
		for _, c := range conversations {
			conversationIDs = append(conversationIDs, c.ID)
		}
	}

	filter := repository.MessageFilter{
		ConversationIDs: conversationIDs,
		Type:            input.Type,
		Limit:           input.Limit,
		Offset:          input.Offset,
	}
	if input.UnreadOnly {
		filter.UnreadOnly = true
		filter.ExcludeSender = userID
	}

	messages, total, err := uc.messageRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*MessageResponse, 0, len(messages))
	senders := make(map[string]*entity.User)
	for _, message := range messages {
		sender, ok := senders[message.SenderID]
		if !ok {
			sender, err = uc.userRepo.GetByID(ctx, message.SenderID)
			if err != nil {
				sender = nil
			}
			senders[message.SenderID] = sender
		}
		responses = append(responses, &MessageResponse{Message: message, Sender: sender})
	}
	return responses, total, nil
}

// MarkRead marks a single message from the other party as read. Marking a
// message twice keeps the original read time.
func (uc *MessageUseCase) MarkRead(ctx context.Context, userID, conversationID, messageID string) (*entity.Message, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	message, err := uc.messageRepo.GetByID(ctx, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID == userID {
		return nil, errors.Forbidden("You cannot mark your own message as read", nil)
	}

	now := time.Now()
	if err := uc.messageRepo.MarkRead(ctx, conversationID, messageID, now); err != nil {
		return nil, err
	}
	if !message.IsRead {
		message.IsRead = true
		message.ReadAt = &now
	}
	return message, nil
}

// MarkAllRead marks every unread message from the other party as read and
// returns the number updated.
func (uc *MessageUseCase) MarkAllRead(ctx context.Context, userID, conversationID string) (int64, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !conversation.HasParticipant(userID) {
		return 0, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	return uc.messageRepo.MarkAllRead(ctx, conversationID, userID, time.Now())
}

// Flag reports a message from the other party for moderation review.
func (uc *MessageUseCase) Flag(ctx context.Context, userID, conversationID, messageID string) (*entity.Message, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	message, err := uc.messageRepo.GetByID(ctx, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID == userID {
		return nil, errors.BadRequest("You cannot flag your own message", nil)
	}

	if err := uc.messageRepo.Flag(ctx, conversationID, messageID); err != nil {
		return nil, err
	}
	message.IsFlagged = true
	return message, nil
}
