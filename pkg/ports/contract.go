package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/gashu/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	userID := "contract-test-user-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession()
		session.State = domain.StateSetDep
		session.SubState = domain.SubSearch
		session.RequestedDest = "서울역"
		session.SetDestCoord(domain.Coord{Lon: 126.9706, Lat: 37.5547})
		session.MessageHistory = append(session.MessageHistory, domain.Message{Role: domain.RoleUser, Content: "나 서울역 가고 싶어"})
		session.Route = []domain.Itinerary{{TotalTime: 32, Fare: 1500, BusRoutes: []domain.BusRoute{{RouteName: "502", StartNodeID: "N1"}}}}

		err := store.Save(ctx, userID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.StateSetDep, loaded.State)
		assert.Equal(t, domain.SubSearch, loaded.SubState)
		assert.Equal(t, "서울역", loaded.RequestedDest)
		assert.Equal(t, session.DestCoord, loaded.DestCoord)
		assert.Nil(t, loaded.DepCoord)
		assert.Equal(t, session.MessageHistory, loaded.MessageHistory)
		assert.Equal(t, "N1", loaded.Route[0].BusRoutes[0].StartNodeID)
	})

	t.Run("Load Returns Independent Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		loaded.RequestedDest = "mutated"

		again, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "서울역", again.RequestedDest)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, userID, domain.NewSession())
		require.NoError(t, err)

		err = store.Delete(ctx, userID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := userID + "-1"
		id2 := userID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession())
		_ = store.Save(ctx, id2, domain.NewSession())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, id1)
		assert.Contains(t, users, id2)
	})
}
