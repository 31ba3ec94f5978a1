package entity

import "time"

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeSystem = "system"
)

// Message is one entry in a conversation's append-only log. Messages are
// never deleted or reordered; only read and flag state may change.
type Message struct {
	ID             string `json:"id" firestore:"id"`
	ConversationID string `json:"conversation_id" firestore:"conversationId"`
	SenderID       string `json:"sender_id" firestore:"senderId"`
	Type           string `json:"type" firestore:"type"`
	Content        string `json:"content,omitempty" firestore:"content,omitempty"`
	MediaURL       string `json:"media_url,omitempty" firestore:"mediaUrl,omitempty"`

	IsRead    bool       `json:"is_read" firestore:"isRead"`
	ReadAt    *time.Time `json:"read_at,omitempty" firestore:"readAt,omitempty"`
	IsFlagged bool       `json:"is_flagged" firestore:"isFlagged"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
