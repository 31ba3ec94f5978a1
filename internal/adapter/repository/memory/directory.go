package memory

import (
	"context"
	"sync"

	"classipost/internal/domain/entity"
	"classipost/internal/domain/repository"
	"classipost/pkg/errors"
)

// UserRepository is a fixed participant directory, seeded up front.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewUserRepository(users ...*entity.User) *UserRepository {
	repo := &UserRepository{users: make(map[string]*entity.User)}
	for _, user := range users {
		repo.Put(user)
	}
	return repo
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Put(user *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *user
	r.users[user.ID] = &stored
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

// ListingRepository is a fixed listing directory, seeded up front.
type ListingRepository struct {
	mu       sync.RWMutex
	listings map[string]*entity.Listing
}

func NewListingRepository(listings ...*entity.Listing) *ListingRepository {
	repo := &ListingRepository{listings: make(map[string]*entity.Listing)}
	for _, listing := range listings {
		repo.Put(listing)
	}
	return repo
}

var _ repository.ListingRepository = (*ListingRepository)(nil)

func (r *ListingRepository) Put(listing *entity.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *listing
	r.listings[listing.ID] = &stored
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	copied := *listing
	return &copied, nil
}

func (r *ListingRepository) GetActive(ctx context.Context, id string) (*entity.Listing, error) {
	listing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Status != entity.ListingStatusActive {
		return nil, errors.NotFound("Listing", nil)
	}
	return listing, nil
}
