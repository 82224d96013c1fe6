package user

import "errors"

var (
	// ErrUserNotFound is returned when no user has the requested ID
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidUserID is returned when an ID cannot be decoded
	ErrInvalidUserID = errors.New("invalid user ID")

	// ErrUserNil is returned when user is nil
	ErrUserNil = errors.New("user cannot be nil")

	// ErrIDAlreadyAssigned is returned when creating a user that already has an ID
	ErrIDAlreadyAssigned = errors.New("user ID already assigned")

	// ErrCapacityExceeded is returned when a store is full
	ErrCapacityExceeded = errors.New("user capacity exceeded")

	// ErrInvalidOffset is returned when offset is negative
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrInvalidRole is returned for an unknown role name
	ErrInvalidRole = errors.New("invalid role")

	// ErrNotFound is an alias for ErrUserNotFound
	ErrNotFound = ErrUserNotFound
)
