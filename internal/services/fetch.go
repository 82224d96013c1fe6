package services

import (
	"context"
	"errors"

	"github.com/victoralfred/userdir/internal/domain/user"
)

// ErrNotImplemented is returned by operations that have no defined behavior yet
var ErrNotImplemented = errors.New("not implemented")

// FetchUser is reserved for a remote lookup whose contract has not been defined.
// It does no work and always fails with ErrNotImplemented.
func FetchUser(ctx context.Context, id int64) (*user.User, error) {
	return nil, ErrNotImplemented
}
