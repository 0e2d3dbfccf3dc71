// Package repotest holds the behaviour every repository.UserRepository must
// share. Each store's tests call RunUserRepositoryContract with a constructor
// for a fresh, empty store.
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/session-auth/internal/apperror"
	"github.com/sakif/session-auth/internal/model"
	"github.com/sakif/session-auth/internal/repository"
)

// NewUser returns a fully populated store input.
func NewUser() model.NewUser {
	return model.NewUser{
		Email:        "test@example.com",
		Name:         "test",
		DisplayName:  "test test",
		PhotoURL:     "http test",
		PhoneNumber:  "01028969112",
		PasswordHash: "iuhasiuhdhiuasihud",
	}
}

// RunUserRepositoryContract runs the shared UserRepository tests.
func RunUserRepositoryContract(t *testing.T, newRepo func(t *testing.T) repository.UserRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("Create assigns an id and keeps the fields", func(t *testing.T) {
		repo := newRepo(t)
		in := NewUser()

		u, err := repo.Create(ctx, in)
		require.NoError(t, err)

		_, err = repository.ParseID(u.ID)
		require.NoError(t, err, "assigned id must be well formed")
		assert.Equal(t, in.Email, u.Email)
		assert.Equal(t, in.Name, u.Name)
		assert.Equal(t, in.DisplayName, u.DisplayName)
		assert.Equal(t, in.PhotoURL, u.PhotoURL)
		assert.Equal(t, in.PhoneNumber, u.PhoneNumber)
		assert.Equal(t, in.PasswordHash, u.PasswordHash)
		assert.False(t, u.CreatedAt.IsZero())
	})

	t.Run("Create twice with same email and phone is a duplicate key", func(t *testing.T) {
		repo := newRepo(t)

		first, err := repo.Create(ctx, NewUser())
		require.NoError(t, err)

		second := NewUser()
		second.Name = "someone else"
		_, err = repo.Create(ctx, second)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrDuplicateKey), "got %v", err)

		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, repository.UniqueFields, appErr.Fields)

		// exactly one record: removing the first leaves nothing behind
		found, err := repo.GetByEmail(ctx, first.Email)
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)

		deleted, err := repo.Delete(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetByEmail(ctx, first.Email)
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	})

	t.Run("Create without phone numbers still conflicts on email", func(t *testing.T) {
		repo := newRepo(t)

		in := NewUser()
		in.PhoneNumber = ""
		_, err := repo.Create(ctx, in)
		require.NoError(t, err)

		_, err = repo.Create(ctx, in)
		assert.True(t, errors.Is(err, apperror.ErrDuplicateKey), "got %v", err)
	})

	t.Run("Create same email with another phone succeeds", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Create(ctx, NewUser())
		require.NoError(t, err)

		other := NewUser()
		other.PhoneNumber = "01000000000"
		_, err = repo.Create(ctx, other)
		assert.NoError(t, err)
	})

	t.Run("concurrent conflicting creates admit exactly one", func(t *testing.T) {
		repo := newRepo(t)

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Create(ctx, NewUser())
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, apperror.ErrDuplicateKey):
					conflicts++
				default:
					t.Errorf("Create() unexpected error = %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, conflicts)
	})

	t.Run("GetByID returns the stored user", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, NewUser())
		require.NoError(t, err)

		found, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, created.Email, found.Email)
		assert.Equal(t, created.PasswordHash, found.PasswordHash)
		assert.True(t, created.CreatedAt.Equal(found.CreatedAt), "CreatedAt %v != %v", found.CreatedAt, created.CreatedAt)
	})

	t.Run("GetByID with a well-formed absent id is not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(ctx, repository.NewID())
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
		assert.False(t, errors.Is(err, apperror.ErrInvalidID))
	})

	t.Run("GetByID with a malformed id is invalid", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(ctx, "banana")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrInvalidID), "got %v", err)
		assert.False(t, errors.Is(err, apperror.ErrNotFound))
	})

	t.Run("GetByEmail", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, NewUser())
		require.NoError(t, err)

		found, err := repo.GetByEmail(ctx, "test@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)

		_, err = repo.GetByEmail(ctx, "pizza@burguer.com")
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)

		_, err = repo.GetByEmail(ctx, "TEST@example.com")
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "email lookup is case-sensitive, got %v", err)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, NewUser())
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = repo.GetByID(ctx, created.ID)
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	})

	t.Run("Delete with a malformed id is invalid", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Delete(ctx, "banana")
		assert.True(t, errors.Is(err, apperror.ErrInvalidID), "got %v", err)
	})
}
