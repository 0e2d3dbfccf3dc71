// Package memory is an in-process repository.UserRepository. It behaves like
// the database stores (same uniqueness rule, same typed errors) and is used
// by tests and by the server when DB_DRIVER=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sakif/session-auth/internal/apperror"
	"github.com/sakif/session-auth/internal/model"
	"github.com/sakif/session-auth/internal/repository"
)

var _ repository.UserRepository = (*UserStore)(nil)

type uniqueKey struct {
	email, phone string
}

// UserStore keeps users in maps guarded by a mutex. The byKey map plays the
// role of the unique index.
type UserStore struct {
	mu    sync.RWMutex
	byID  map[string]*model.User
	byKey map[uniqueKey]string
	order []string // insertion order, for GetByEmail
}

// New returns an empty store.
func New() *UserStore {
	return &UserStore{
		byID:  make(map[string]*model.User),
		byKey: make(map[uniqueKey]string),
	}
}

func (s *UserStore) Create(_ context.Context, in model.NewUser) (*model.User, error) {
	key := uniqueKey{email: in.Email, phone: in.PhoneNumber}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byKey[key]; taken {
		return nil, apperror.DuplicateKey("user", repository.UniqueFields...)
	}

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
	s.byID[u.ID] = u
	s.byKey[key] = u.ID
	s.order = append(s.order, u.ID)

	copied := *u
	return &copied, nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	id, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if u := s.byID[id]; u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFoundBy("user", "email")
}

func (s *UserStore) Delete(_ context.Context, id string) (bool, error) {
	id, err := repository.ParseID(id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	delete(s.byID, id)
	delete(s.byKey, uniqueKey{email: u.Email, phone: u.PhoneNumber})
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Len reports how many users are stored.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
