package entity

import "time"

// Conversation is the unique contact channel between a buyer and a seller
// about one listing. At most one conversation exists per
// (buyer, seller, listing) triple.
type Conversation struct {
	ID        string `json:"id" firestore:"id"`
	BuyerID   string `json:"buyer_id" firestore:"buyerId"`
	SellerID  string `json:"seller_id" firestore:"sellerId"`
	ListingID string `json:"listing_id" firestore:"listingId"`

	IsArchived bool   `json:"is_archived" firestore:"isArchived"`
	IsBlocked  bool   `json:"is_blocked" firestore:"isBlocked"`
	BlockedBy  string `json:"blocked_by,omitempty" firestore:"blockedBy,omitempty"`

	CreatedAt     time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time  `json:"updated_at" firestore:"updatedAt"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" firestore:"lastMessageAt,omitempty"`
}

// HasParticipant reports whether userID is the buyer or the seller.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// OtherParticipant returns the participant opposite to userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if userID == c.BuyerID {
		return c.SellerID
	}
	return c.BuyerID
}

// IsActive reports whether the conversation accepts new messages.
func (c *Conversation) IsActive() bool {
	return !c.IsArchived && !c.IsBlocked
}
