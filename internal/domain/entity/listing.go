package entity

const (
	ListingStatusActive  = "active"
	ListingStatusExpired = "expired"
	ListingStatusRemoved = "removed"
)

// Listing is the read model served by the listing directory. The catalog and
// its moderation workflow live outside this service.
type Listing struct {
	ID      string `json:"id" firestore:"id"`
	OwnerID string `json:"owner_id" firestore:"ownerId"`
	Title   string `json:"title" firestore:"title"`
	Status  string `json:"status" firestore:"status"`
}
