package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/gashu/pkg/adapters/memory"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
	"github.com/aretw0/gashu/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke race conditions if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s slowStore) Save(ctx context.Context, id string, sess *domain.Session) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, id, sess)
}

func TestManager_UpdateIsSerialised(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Update(ctx, id, func(_ context.Context, s *domain.Session) error {
				s.MessageHistory = append(s.MessageHistory, domain.Message{Role: domain.RoleUser, Content: "x"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := manager.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, s.MessageHistory, 10, "no read-modify-write may be lost")
}

func TestManager_LazyDefaults(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()

	s, err := manager.Get(ctx, "new-user")
	require.NoError(t, err)
	assert.Equal(t, domain.StateSetDest, s.State)

	_, err = store.Load(ctx, "new-user")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Get must not persist")
}

func TestManager_Slots(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	dest, err := session.GetSlot(ctx, manager, "u1", "requested_dest", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "", dest, "a stored empty string is not null")

	coord, err := session.GetSlot[*domain.Coord](ctx, manager, "u1", "dest_coord", nil)
	require.NoError(t, err)
	assert.Nil(t, coord)

	require.NoError(t, manager.SetSlot(ctx, "u1", "dest_coord", domain.Coord{Lon: 127.4, Lat: 36.6}))
	coord, err = session.GetSlot[*domain.Coord](ctx, manager, "u1", "dest_coord", nil)
	require.NoError(t, err)
	assert.Equal(t, &domain.Coord{Lon: 127.4, Lat: 36.6}, coord)

	err = manager.SetSlot(ctx, "u1", "no_such_slot", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownSlot)
}

func TestManager_UpdateErrorDiscardsChanges(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()
	boom := errors.New("boom")

	err := manager.Update(ctx, "u1", func(_ context.Context, s *domain.Session) error {
		s.RequestedDest = "lost"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Load(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_Reset(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, manager.SetSlot(ctx, "u1", "requested_dest", "서울역"))
	require.NoError(t, manager.Reset(ctx, "u1"))
	require.NoError(t, manager.Reset(ctx, "u1"), "reset is idempotent")

	dest, err := session.GetSlot(ctx, manager, "u1", "requested_dest", "")
	require.NoError(t, err)
	assert.Empty(t, dest)
}

type countingLocker struct {
	mu       sync.Mutex
	locked   int
	unlocked int
}

func (l *countingLocker) Lock(_ context.Context, _ string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked++
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))

	require.NoError(t, manager.SetSlot(context.Background(), "u1", "enable_main", true))
	assert.Equal(t, 1, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
}
