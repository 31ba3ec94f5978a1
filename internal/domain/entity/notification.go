package entity

import "time"

const (
	NotificationNewMessage         = "new_message"
	NotificationNewConversation    = "new_conversation"
	NotificationListingApproved    = "listing_approved"
	NotificationListingRejected    = "listing_rejected"
	NotificationListingExpired     = "listing_expired"
	NotificationListingExpiringSoon = "listing_expiring_soon"
	NotificationSystem             = "system"
)

// IsMessageNotification reports whether the type belongs to the messaging
// category, which is gated by a separate user preference.
func IsMessageNotification(notificationType string) bool {
	return notificationType == NotificationNewMessage || notificationType == NotificationNewConversation
}

// Notification is an in-app record owned by its recipient. Conversation and
// listing references are weak: clearing a conversation never touches its
// notifications.
type Notification struct {
	ID          string `json:"id" firestore:"id"`
	RecipientID string `json:"recipient_id" firestore:"recipientId"`
	Type        string `json:"type" firestore:"type"`
	Title       string `json:"title" firestore:"title"`
	Body        string `json:"body" firestore:"body"`

	ConversationID string `json:"conversation_id,omitempty" firestore:"conversationId,omitempty"`
	ListingID      string `json:"listing_id,omitempty" firestore:"listingId,omitempty"`
	ActionURL      string `json:"action_url,omitempty" firestore:"actionUrl,omitempty"`

	IsRead    bool       `json:"is_read" firestore:"isRead"`
	ReadAt    *time.Time `json:"read_at,omitempty" firestore:"readAt,omitempty"`
	EmailSent bool       `json:"email_sent" firestore:"emailSent"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
