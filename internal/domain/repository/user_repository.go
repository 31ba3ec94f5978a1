package repository

import (
	"context"

	"classipost/internal/domain/entity"
)

// UserRepository is the participant directory: identity resolution and
// identity-level notification preferences. Account management is external.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
