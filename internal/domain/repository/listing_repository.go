package repository

import (
	"context"

	"classipost/internal/domain/entity"
)

// ListingRepository is the listing directory. The ad catalog and its
// moderation workflow are external; this service only resolves listings.
type ListingRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Listing, error)

	// GetActive resolves a listing and fails with NotFound when it is
	// absent or not in active status.
	GetActive(ctx context.Context, id string) (*entity.Listing, error)
}
