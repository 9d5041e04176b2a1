package store

import (
	"context"
	"sync"

	"StudySpace/internal/model"
)

// MemoryStore 进程内实现，测试用。
type MemoryStore struct {
	mu      sync.Mutex
	token   *string
	user    *model.Identity
	session *model.OnboardingSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Restore(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{}
	if s.token != nil {
		state.Token = *s.token
	}
	if s.user != nil {
		u := *s.user
		state.User = &u
	}
	if s.session != nil {
		sess := *s.session
		state.Session = &sess
	}
	return state, nil
}

func (s *MemoryStore) Commit(ctx context.Context, m Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.Token != nil {
		token := *m.Token
		s.token = &token
	}
	if m.User != nil {
		u := *m.User
		s.user = &u
	}
	if m.Session != nil {
		sess := *m.Session
		s.session = &sess
	}
	if m.replacesSession() {
		s.session = nil
	}
	if m.replacesUser() {
		s.user = nil
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
	s.user = nil
	s.session = nil
	return nil
}
