package memory_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/victoralfred/userdir/internal/domain/user"
	"github.com/victoralfred/userdir/internal/repositories/memory"
	"go.uber.org/goleak"
)

var _ user.Repository = (*memory.UserRepository)(nil)

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *user.User
		wantErr error
	}{
		{
			name: "create valid user",
			user: user.NewUser("Test", "test@example.com"),
		},
		{
			name: "create user with empty fields",
			user: user.NewUser("", ""),
		},
		{
			name:    "create user with nil",
			user:    nil,
			wantErr: user.ErrUserNil,
		},
		{
			name:    "create user with assigned id",
			user:    &user.User{ID: user.NewID(5), Name: "x"},
			wantErr: user.ErrIDAlreadyAssigned,
		},
	}

	repo := memory.NewUserRepository()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.user.ID.IsAssigned())
		})
	}
	assert.Equal(t, 2, repo.Len())
}

func TestUserRepository_FindByID(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	bob := user.NewUser("Bob", "bob@x.com")
	require.NoError(t, repo.Create(ctx, bob))
	assert.Equal(t, user.NewID(1), bob.ID)

	t.Run("get existing user", func(t *testing.T) {
		got, err := repo.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, *bob, *got)
	})

	t.Run("get non-existent user", func(t *testing.T) {
		got, err := repo.FindByID(ctx, 2)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := repo.FindByID(ctx, 1)
		require.NoError(t, err)
		got.Name = "mutated"
		bob.Email = "mutated"

		again, err := repo.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Bob", again.Name)
		assert.Equal(t, "bob@x.com", again.Email)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.FindByID(cctx, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUserRepository_Capacity(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepositoryWithCapacity(2)

	require.NoError(t, repo.Create(ctx, user.NewUser("a", "a")))
	require.NoError(t, repo.Create(ctx, user.NewUser("b", "b")))

	extra := user.NewUser("c", "c")
	err := repo.Create(ctx, extra)
	assert.ErrorIs(t, err, user.ErrCapacityExceeded)
	assert.False(t, extra.ID.IsAssigned())
}

func TestUserRepository_DefaultCapacity(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	for i := 0; i < user.MaxUsers; i++ {
		require.NoError(t, repo.Create(ctx, user.NewUser(fmt.Sprint(i), "")))
	}
	assert.ErrorIs(t, repo.Create(ctx, user.NewUser("over", "")), user.ErrCapacityExceeded)
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	for i := 0; i < 25; i++ {
		require.NoError(t, repo.Create(ctx, user.NewUser(fmt.Sprintf("user%d", i), "")))
	}

	page, err := repo.List(ctx, user.ListFilter{})
	require.NoError(t, err)
	require.Len(t, page, user.DefaultPageSize)
	assert.Equal(t, user.NewID(1), page[0].ID)

	page, err = repo.List(ctx, user.ListFilter{Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, user.NewID(21), page[0].ID)
	assert.Equal(t, user.NewID(25), page[4].ID)

	page, err = repo.List(ctx, user.ListFilter{Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = repo.List(ctx, user.ListFilter{Offset: -1})
	assert.ErrorIs(t, err, user.ErrInvalidOffset)
}

func TestUserRepository_ListOversizedLimit(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepositoryWithCapacity(user.MaxPageSize + 10)
	for i := 0; i < user.MaxPageSize+10; i++ {
		require.NoError(t, repo.Create(ctx, user.NewUser(fmt.Sprintf("user%d", i), "")))
	}

	for _, limit := range []int{math.MaxInt, 1 << 36, user.MaxPageSize + 1} {
		var page []*user.User
		var err error
		require.NotPanics(t, func() {
			page, err = repo.List(ctx, user.ListFilter{Limit: limit})
		})
		require.NoError(t, err)
		assert.Len(t, page, user.MaxPageSize, "limit %d", limit)
	}

	page, err := repo.List(ctx, user.ListFilter{Limit: math.MaxInt, Offset: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestUserRepository_Concurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	repo := memory.NewUserRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := user.NewUser(fmt.Sprint(i), "")
			if err := repo.Create(ctx, u); err != nil {
				t.Errorf("create: %v", err)
				return
			}
			id, _ := u.ID.Int64()
			if _, err := repo.FindByID(ctx, id); err != nil {
				t.Errorf("find: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, repo.Len())
	for id := int64(1); id <= 50; id++ {
		_, err := repo.FindByID(ctx, id)
		assert.NoError(t, err)
	}
}
