package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"classipost/internal/domain/entity"
	"classipost/internal/domain/repository"
	"classipost/pkg/errors"
)

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection("listings").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Internal("Failed to get listing", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}

	return &listing, nil
}

// GetActive resolves a listing that can still receive conversations. A
// listing in any other status is reported as not found.
func (r *firestoreListingRepository) GetActive(ctx context.Context, id string) (*entity.Listing, error) {
	listing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Status != entity.ListingStatusActive {
		return nil, errors.NotFound("Listing", nil)
	}

	return listing, nil
}
