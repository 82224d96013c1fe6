package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/victoralfred/userdir/internal/domain/user"
)

// UserRepository implements user.Repository with PostgreSQL
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	query := `
		SELECT id, name, email, role
		FROM users
		WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return u, nil
}

// Create inserts a user and assigns the generated ID
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u == nil {
		return user.ErrUserNil
	}
	if u.ID.IsAssigned() {
		return user.ErrIDAlreadyAssigned
	}

	query := `
		INSERT INTO users (name, email, role)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, query, u.Name, u.Email, u.Role.String()).Scan(&id); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = user.NewID(id)
	return nil
}

// List retrieves a page of users ordered by ID
func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, email, role
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0, filter.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		id   int64
		role string
		u    user.User
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &role); err != nil {
		return nil, err
	}

	parsed, err := user.ParseRole(role)
	if err != nil {
		return nil, err
	}

	u.ID = user.NewID(id)
	u.Role = parsed
	return &u, nil
}
