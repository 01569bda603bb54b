package memorystore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-otp-nosql/internal/domain"
)

// AccountStore is an in-process account store keyed by email.
type AccountStore struct {
	mu    sync.Mutex
	items map[string]domain.UserAccount
}

func NewAccountStore() *AccountStore {
	return &AccountStore{items: make(map[string]domain.UserAccount)}
}

func (s *AccountStore) Create(ctx context.Context, a *domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[a.Email]; ok {
		return fmt.Errorf("account %s: %w", a.Email, domain.ErrConflict)
	}
	s.items[a.Email] = *a
	return nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[email]
	if !ok {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return &a, nil
}

func (s *AccountStore) UpdatePasswordHash(ctx context.Context, email, hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[email]
	if !ok {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	a.PasswordHash = hash
	a.UpdatedAt = at
	s.items[email] = a
	return nil
}
