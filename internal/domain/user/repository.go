package user

import "context"

// Finder looks up users by identifier. A missing user is reported as ErrUserNotFound.
type Finder interface {
	FindByID(ctx context.Context, id int64) (*User, error)
}

// Repository defines the interface for user persistence
type Repository interface {
	Finder

	// Create stores a new user and assigns its ID
	Create(ctx context.Context, u *User) error

	// List retrieves a page of users ordered by ID
	List(ctx context.Context, filter ListFilter) ([]*User, error)
}
