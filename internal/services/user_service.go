package services

import (
	"context"

	"github.com/victoralfred/userdir/internal/domain/user"
)

// UserService handles user lookups against an injected store
type UserService struct {
	userRepo user.Finder
}

// NewUserService creates a new user service. The finder is used, never closed.
func NewUserService(userRepo user.Finder) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// GetUser retrieves a user by ID. The store's result and error are returned as is.
func (s *UserService) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// GetUserByID retrieves a user by ID from any finder
func GetUserByID(ctx context.Context, f user.Finder, id int64) (*user.User, error) {
	return f.FindByID(ctx, id)
}
