package replica_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/game"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/jason-s-yu/chaos-uno/internal/replica"
	"github.com/jason-s-yu/chaos-uno/internal/replica/replicatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	var n atomic.Int64
	replicatest.RunStoreSuite(t, replica.NewMemoryStore(), func() string {
		return fmt.Sprintf("M%03d", n.Add(1))
	})
}

func TestSeatPlayerLimits(t *testing.T) {
	snap := game.NewGameState(models.ModeClassic).Snapshot()
	for i := 0; i < game.MaxPlayers; i++ {
		changed, err := replica.SeatPlayer(&snap, models.Player{ID: uuid.New()})
		require.NoError(t, err)
		require.True(t, changed)
	}
	_, err := replica.SeatPlayer(&snap, models.Player{ID: uuid.New()})
	assert.ErrorIs(t, err, replica.ErrRoomFull)

	changed, err := replica.SeatPlayer(&snap, snap.Players[0])
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	store := replica.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, "ROOM", game.NewGameState(models.ModeClassic).Snapshot()))

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			assert.NoError(t, store.AppendPlayer(ctx, "ROOM", models.Player{ID: uuid.New(), Name: "p"}))
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	got, err := store.Get(ctx, "ROOM")
	require.NoError(t, err)
	assert.Len(t, got.Players, 8, "no seat lost to a concurrent writer")
}
