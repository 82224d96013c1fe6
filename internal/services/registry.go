package services

import (
	"context"
	"fmt"

	"github.com/victoralfred/userdir/internal/domain/user"
)

// Registry creates and lists users in a repository
type Registry struct {
	userRepo user.Repository
}

// NewRegistry creates a new registry
func NewRegistry(userRepo user.Repository) *Registry {
	return &Registry{
		userRepo: userRepo,
	}
}

// Register builds a new user and stores it. The returned user carries the assigned ID.
func (r *Registry) Register(ctx context.Context, name, email string) (*user.User, error) {
	u := user.NewUser(name, email)
	if err := r.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return u, nil
}

// List returns a page of users
func (r *Registry) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}

	users, err := r.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
