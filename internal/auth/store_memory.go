package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type MemStore struct {
	mu      sync.RWMutex
	byEmail map[string]Staff
	cost    int
}

func NewMemStore() *MemStore {
	return &MemStore{byEmail: make(map[string]Staff), cost: bcrypt.DefaultCost}
}

func (s *MemStore) Add(ctx context.Context, email, password, role string) (Staff, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Staff{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return Staff{}, ErrEmailExists
	}

	st := Staff{ID: "s_" + uuid.NewString(), Email: email, Hash: hash, Role: role}
	s.byEmail[email] = st
	return st, nil
}

func (s *MemStore) Verify(ctx context.Context, email, password string) (Staff, error) {
	email = normalizeEmail(email)

	s.mu.RLock()
	st, ok := s.byEmail[email]
	s.mu.RUnlock()

	if !ok {
		return Staff{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(st.Hash, []byte(password)); err != nil {
		return Staff{}, ErrInvalidCredentials
	}
	return st, nil
}
