package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/gashu/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(context.Context, string, *domain.Session) error { return nil }
func (nopStore) Load(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(context.Context, string) error       { return nil }
func (nopStore) List(context.Context) ([]string, error) { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("user-%d", i)
		_ = mgr.SetSlot(ctx, id, "requested_dest", "x")
		_ = mgr.Reset(ctx, id)
	}

	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Reset", lockCount)
	}
}
