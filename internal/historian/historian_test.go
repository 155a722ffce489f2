// internal/historian/historian_test.go
package historian

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/cache"
	"github.com/jason-s-yu/chaos-uno/internal/database"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	rec := models.ActionRecord{
		RoomID:      "ABCD",
		ActionIndex: 1,
		ActorID:     uuid.New(),
		ActionType:  models.ActionDrawCard,
		Payload:     map[string]interface{}{"drawn": float64(2)},
		Timestamp:   time.Now().UnixMilli(),
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	got, err := ParseRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = ParseRecord([]byte(`{"action_type":"draw_card"}`))
	assert.Error(t, err, "room id is required")
	_, err = ParseRecord([]byte(`not json`))
	assert.Error(t, err)
}

func TestBatching(t *testing.T) {
	h := New(nil, nil, Options{BatchSize: 3}, logrus.NewEntry(logrus.New()))
	assert.False(t, h.add(models.ActionRecord{ActionIndex: 1}))
	assert.False(t, h.add(models.ActionRecord{ActionIndex: 2}))
	assert.True(t, h.add(models.ActionRecord{ActionIndex: 3}), "third record fills the batch")

	recs := h.take()
	require.Len(t, recs, 3)
	assert.Equal(t, 1, recs[0].ActionIndex)
	assert.Nil(t, h.take())
	assert.NoError(t, h.Flush(context.Background()), "empty flush never touches the database")
}

func TestReadLoopStopsWhileBackingOff(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	h := New(rdb, nil, Options{}, logrus.NewEntry(logrus.New()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.readLoop(ctx) }()

	// let BLPOP fail and the loop start its back-off
	time.Sleep(200 * time.Millisecond)
	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("readLoop ignored cancellation")
	}
}

func TestHistorianEndToEnd(t *testing.T) {
	redisAddr, dbURL := os.Getenv("UNO_TEST_REDIS_ADDR"), os.Getenv("UNO_TEST_DATABASE_URL")
	if redisAddr == "" || dbURL == "" {
		t.Skip("UNO_TEST_REDIS_ADDR and UNO_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	log := logrus.NewEntry(logrus.New())

	rdb, err := cache.Connect(ctx, redisAddr, 0)
	require.NoError(t, err)
	defer rdb.Close()
	pool, err := database.Connect(ctx, dbURL, log)
	require.NoError(t, err)
	defer pool.Close()

	queue := "uno_actions_test_" + uuid.NewString()
	room := "H" + uuid.NewString()[:7]
	winner := uuid.New()
	t.Cleanup(func() {
		bg := context.Background()
		rdb.Del(bg, queue)
		pool.Exec(bg, `DELETE FROM room_actions WHERE room_id = $1`, room)
		pool.Exec(bg, `DELETE FROM room_results WHERE room_id = $1`, room)
	})

	aq := cache.NewActionQueue(rdb, queue, log)
	require.NoError(t, aq.Publish(ctx, models.ActionRecord{RoomID: room, ActionIndex: 1, ActorID: winner, ActionType: models.ActionPlayCard, Timestamp: time.Now().UnixMilli()}))
	require.NoError(t, aq.Publish(ctx, models.ActionRecord{RoomID: room, ActionIndex: 2, ActorID: winner, ActionType: models.ActionGameOver, Timestamp: time.Now().UnixMilli()}))

	h := New(rdb, pool, Options{Queue: queue, BatchSize: 10, FlushInterval: 50 * time.Millisecond}, log)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- h.Run(runCtx) }()

	require.Eventually(t, func() bool {
		var n int
		err := pool.QueryRow(ctx, `SELECT count(*) FROM room_actions WHERE room_id = $1`, room).Scan(&n)
		return err == nil && n == 2
	}, 10*time.Second, 100*time.Millisecond)

	var got uuid.UUID
	require.NoError(t, pool.QueryRow(ctx, `SELECT winner_id FROM room_results WHERE room_id = $1`, room).Scan(&got))
	assert.Equal(t, winner, got)

	stop()
	assert.NoError(t, <-done)
}
