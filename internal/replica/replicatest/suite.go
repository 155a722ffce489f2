// internal/replica/replicatest/suite.go

// Package replicatest checks replica.Store implementations against the shared contract.
package replicatest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/game"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/jason-s-yu/chaos-uno/internal/replica"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreSuite checks the Store contract against any backend. newRoom must
// return a room code not used before on that backend.
func RunStoreSuite(t *testing.T, store replica.Store, newRoom func() string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t.Run("create and get", func(t *testing.T) {
		room := newRoom()
		snap := game.NewGameState(models.ModeNoMercy).Snapshot()
		snap.HostID = uuid.New()
		require.NoError(t, store.Create(ctx, room, snap))
		assert.ErrorIs(t, store.Create(ctx, room, snap), replica.ErrRoomExists)

		got, err := store.Get(ctx, room)
		require.NoError(t, err)
		assert.Equal(t, snap.HostID, got.HostID)
		assert.Equal(t, models.ModeNoMercy, got.Mode)
		assert.Equal(t, models.StatusLobby, got.Status)

		_, err = store.Get(ctx, newRoom())
		assert.ErrorIs(t, err, replica.ErrRoomNotFound)
	})

	t.Run("update round trips a dealt game", func(t *testing.T) {
		room := newRoom()
		s := game.NewGameState(models.ModeFlip)
		s.Players = []models.Player{{ID: uuid.New(), Name: "a"}, {ID: uuid.New(), Name: "b", IsBot: true}}
		require.NoError(t, store.Create(ctx, room, s.Snapshot()))

		dealt := game.Deal(s, game.NewRand(5))
		dealt.RouletteColor = models.ColorGreen
		require.NoError(t, store.Update(ctx, room, dealt.Snapshot()))

		got, err := store.Get(ctx, room)
		require.NoError(t, err)
		assert.Equal(t, dealt.Snapshot(), got)

		assert.ErrorIs(t, store.Update(ctx, newRoom(), dealt.Snapshot()), replica.ErrRoomNotFound)
	})

	t.Run("append player", func(t *testing.T) {
		room := newRoom()
		host := models.Player{ID: uuid.New(), Name: "host"}
		snap := game.NewGameState(models.ModeClassic).Snapshot()
		snap.Status = models.StatusWaiting
		snap.Players = []models.Player{host}
		snap.WriterID = host.ID
		require.NoError(t, store.Create(ctx, room, snap))

		guest := models.Player{ID: uuid.New(), Name: "guest"}
		require.NoError(t, store.AppendPlayer(ctx, room, guest))
		require.NoError(t, store.AppendPlayer(ctx, room, guest), "re-seating is a no-op")

		got, err := store.Get(ctx, room)
		require.NoError(t, err)
		require.Len(t, got.Players, 2)
		assert.Equal(t, guest.ID, got.Players[1].ID)
		assert.Equal(t, uuid.Nil, got.WriterID)
		assert.Equal(t, models.StatusWaiting, got.Status)

		got.Status = models.StatusPlaying
		require.NoError(t, store.Update(ctx, room, got))
		err = store.AppendPlayer(ctx, room, models.Player{ID: uuid.New(), Name: "late"})
		assert.ErrorIs(t, err, replica.ErrGameInProgress)
	})

	t.Run("subscribe", func(t *testing.T) {
		room := newRoom()
		require.NoError(t, store.Create(ctx, room, game.NewGameState(models.ModeClassic).Snapshot()))

		var mu sync.Mutex
		var seen []game.Snapshot
		stop, err := store.Subscribe(ctx, room, func(s game.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, s)
		})
		require.NoError(t, err)
		defer stop()

		count := func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(seen)
		}
		require.Eventually(t, func() bool { return count() == 1 }, 5*time.Second, 10*time.Millisecond, "current document first")

		next := game.NewGameState(models.ModeClassic).Snapshot()
		next.LastAction = "changed"
		require.NoError(t, store.Update(ctx, room, next))
		require.Eventually(t, func() bool { return count() == 2 }, 5*time.Second, 10*time.Millisecond)

		mu.Lock()
		assert.Equal(t, "changed", seen[1].LastAction)
		mu.Unlock()

		stop()
		require.NoError(t, store.Update(ctx, room, next))
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, 2, count(), "no deliveries after cancel")
	})
}
