package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/session-auth/internal/apperror"
	"github.com/sakif/session-auth/internal/model"
	"github.com/sakif/session-auth/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, email, name, display_name, photo_url, phone_number, password_hash, created_at`

// UserStore is the SQLite user repository.
type UserStore struct {
	conn *sql.DB
}

// Create inserts a new user and returns it with its assigned ID.
// A violation of the (email, phone_number) index yields apperror.ErrDuplicateKey
// and leaves no row behind.
func (s *UserStore) Create(ctx context.Context, in model.NewUser) (*model.User, error) {
	u := &model.User{
		ID:           repository.NewID(),
		Email:        in.Email,
		Name:         in.Name,
		DisplayName:  in.DisplayName,
		PhotoURL:     in.PhotoURL,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Email,
		u.Name,
		u.DisplayName,
		u.PhotoURL,
		u.PhoneNumber,
		u.PasswordHash,
		u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.DuplicateKey("user", repository.UniqueFields...)
		}
		return nil, fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return u, nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	id, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves the earliest created user with this email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? ORDER BY created_at, rowid LIMIT 1`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundBy("user", "email")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// Delete removes a user. It reports whether a row was deleted.
func (s *UserStore) Delete(ctx context.Context, id string) (bool, error) {
	id, err := repository.ParseID(id)
	if err != nil {
		return false, err
	}

	res, err := s.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return n > 0, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.DisplayName,
		&u.PhotoURL,
		&u.PhoneNumber,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var liteErr *moderncsqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
