package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
)

// mockStore is a minimal map-backed SessionStore used to exercise the
// contract suite itself.
type mockStore struct {
	mu   sync.Mutex
	data map[string]*domain.Session
}

func (m *mockStore) Save(_ context.Context, userID string, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = s.Clone()
	return nil
}

func (m *mockStore) Load(_ context.Context, userID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *mockStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
	return nil
}

func (m *mockStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, &mockStore{data: map[string]*domain.Session{}})
}
