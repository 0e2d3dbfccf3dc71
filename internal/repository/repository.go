// Package repository declares the persistence contract for user records.
//
// Concrete stores live in sub-packages (sqlite, postgres, memory) and are
// checked against the same behaviour by repotest.RunUserRepositoryContract.
package repository

import (
	"context"

	"github.com/sakif/session-auth/internal/model"
)

// UniqueFields are the columns covered by the users uniqueness constraint.
// Stores report them in apperror.DuplicateKey.
var UniqueFields = []string{"email", "phone_number"}

// UserRepository persists user records.
//
// Failures other than connectivity are typed:
//   - Create returns apperror.ErrDuplicateKey when (email, phone_number) is taken.
//   - GetByID and Delete return apperror.ErrInvalidID for a malformed id
//     before touching storage.
//   - GetByID and GetByEmail return apperror.ErrNotFound when nothing matches.
//
// Uniqueness is enforced by the store itself (a unique index created when
// the store is opened), never by a read-then-write in the caller.
type UserRepository interface {
	Create(ctx context.Context, in model.NewUser) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}
