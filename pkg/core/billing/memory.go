package billing

import (
	"context"
	"sync"
)

// MemoryStore keeps accounts in process memory. Used by tests and local runs
// without a database.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]Account)}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &acct, nil
}

func (s *MemoryStore) Create(ctx context.Context, acct Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.accounts[acct.UserID]; ok {
		return &existing, nil
	}
	s.accounts[acct.UserID] = acct
	return &acct, nil
}

func (s *MemoryStore) Debit(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return ErrAccountNotFound
	}
	if acct.Credits <= 0 {
		return ErrNoCredits
	}
	acct.Credits--
	s.accounts[userID] = acct
	return nil
}

func (s *MemoryStore) Credit(ctx context.Context, userID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return ErrAccountNotFound
	}
	acct.Credits += n
	s.accounts[userID] = acct
	return nil
}

func (s *MemoryStore) SetPlan(ctx context.Context, userID string, plan Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return ErrAccountNotFound
	}
	acct.Plan = plan
	s.accounts[userID] = acct
	return nil
}
