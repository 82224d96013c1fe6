package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/victoralfred/userdir/internal/domain/user"
)

// UserRepository implements user.Repository in process memory
type UserRepository struct {
	mu       sync.RWMutex
	users    map[int64]user.User
	nextID   int64
	capacity int
}

// NewUserRepository creates an empty repository holding at most user.MaxUsers users
func NewUserRepository() *UserRepository {
	return NewUserRepositoryWithCapacity(user.MaxUsers)
}

// NewUserRepositoryWithCapacity creates an empty repository with a custom capacity
func NewUserRepositoryWithCapacity(capacity int) *UserRepository {
	return &UserRepository{
		users:    make(map[int64]user.User),
		nextID:   1,
		capacity: capacity,
	}
}

// FindByID retrieves a copy of the stored user
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

// Create assigns the next ID to u and stores a copy of it
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u == nil {
		return user.ErrUserNil
	}
	if u.ID.IsAssigned() {
		return user.ErrIDAlreadyAssigned
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.users) >= r.capacity {
		return user.ErrCapacityExceeded
	}

	u.ID = user.NewID(r.nextID)
	r.users[r.nextID] = *u
	r.nextID++
	return nil
}

// List returns users ordered by ID
func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*user.User, 0, max(0, min(filter.Limit, len(ids)-filter.Offset)))
	for i := filter.Offset; i < len(ids) && len(result) < filter.Limit; i++ {
		u := r.users[ids[i]]
		result = append(result, &u)
	}
	r.mu.RUnlock()

	return result, nil
}

// Len returns the number of stored users
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
