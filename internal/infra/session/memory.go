package session

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/infra/cache"
)

// MemoryStore keeps sessions in process. Sessions are lost on restart and
// not shared between replicas.
type MemoryStore struct {
	items *cache.InMemory[domain.Session]

	mu     sync.Mutex
	byUser map[string]map[string]struct{}
}

func NewMemory(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		items:  cache.New[domain.Session](defaultTTL),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Save(_ context.Context, sess *domain.Session, ttl time.Duration) error {
	s.items.SetWithTTL(key(sess.ID), *sess, ttl)
	if sess.User.ID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.byUser[sess.User.ID]
	if !ok {
		ids = make(map[string]struct{})
		s.byUser[sess.User.ID] = ids
	}
	for id := range ids {
		if _, live := s.items.Get(key(id)); !live {
			delete(ids, id)
		}
	}
	ids[sess.ID] = struct{}{}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	sess, ok := s.items.Get(key(id))
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.items.Delete(key(id))
	return nil
}

func (s *MemoryStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.byUser[userID] {
		s.items.Delete(key(id))
	}
	delete(s.byUser, userID)
	return nil
}

func (s *MemoryStore) Close() error {
	s.items.Close()
	return nil
}
