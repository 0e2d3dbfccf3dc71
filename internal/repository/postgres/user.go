// Package postgres implements repository.UserRepository on PostgreSQL using a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/session-auth/internal/apperror"
	"github.com/sakif/session-auth/internal/model"
	"github.com/sakif/session-auth/internal/repository"
)

var _ repository.UserRepository = (*UserStore)(nil)

// pool is the subset of *pgxpool.Pool the store uses; pgxmock satisfies it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const userColumns = `id, email, name, display_name, photo_url, phone_number, password_hash, created_at`

// UserStore is the PostgreSQL user repository.
type UserStore struct {
	pool pool
}

// New connects to dsn, verifies the connection and creates the schema.
func New(ctx context.Context, dsn string) (*UserStore, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres: pinging: %w", err)
	}

	s := NewWithPool(p)
	if err := s.Migrate(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool wraps an existing pool. The caller runs Migrate.
func NewWithPool(p pool) *UserStore {
	return &UserStore{pool: p}
}

// Close releases the pool.
func (s *UserStore) Close() {
	s.pool.Close()
}

// Migrate creates the users table and its (email, phone_number) unique index.
func (s *UserStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL,
			name          TEXT NOT NULL,
			display_name  TEXT NOT NULL DEFAULT '',
			photo_url     TEXT NOT NULL DEFAULT '',
			phone_number  TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("postgres: creating users table: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_phone ON users (email, phone_number)
	`); err != nil {
		return fmt.Errorf("postgres: creating users unique index: %w", err)
	}
	return nil
}

func (s *UserStore) Create(ctx context.Context, in model.NewUser) (*model.User, error) {
	u := &model.User{
		ID:           repository.NewID(),
		Email:        in.Email,
		Name:         in.Name,
		DisplayName:  in.DisplayName,
		PhotoURL:     in.PhotoURL,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.DisplayName, u.PhotoURL, u.PhoneNumber, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, apperror.DuplicateKey("user", repository.UniqueFields...)
		}
		return nil, fmt.Errorf("postgres: inserting user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	id, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 ORDER BY created_at, id LIMIT 1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFoundBy("user", "email")
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) Delete(ctx context.Context, id string) (bool, error) {
	id, err := repository.ParseID(id)
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("postgres: deleting user %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.DisplayName,
		&u.PhotoURL,
		&u.PhoneNumber,
		&u.PasswordHash,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
