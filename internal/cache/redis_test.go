package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/jason-s-yu/chaos-uno/internal/replica/replicatest"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient connects to UNO_TEST_REDIS_ADDR or skips.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("UNO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("UNO_TEST_REDIS_ADDR not set")
	}
	rdb, err := Connect(context.Background(), addr, 0)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisStore(t *testing.T) {
	rdb := testClient(t)
	store := NewRedisStore(rdb, logrus.NewEntry(logrus.New()))

	prefix := uuid.NewString()[:8]
	var rooms []string
	t.Cleanup(func() {
		for _, r := range rooms {
			rdb.Del(context.Background(), roomKey(r))
		}
	})
	replicatest.RunStoreSuite(t, store, func() string {
		r := prefix + "-" + uuid.NewString()[:4]
		rooms = append(rooms, r)
		return r
	})
}

func TestActionQueuePublish(t *testing.T) {
	rdb := testClient(t)
	name := "uno_actions_test_" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), name) })
	q := NewActionQueue(rdb, name, logrus.NewEntry(logrus.New()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	rec := models.ActionRecord{
		RoomID:      "ABCD",
		ActionIndex: 3,
		ActorID:     uuid.New(),
		ActionType:  models.ActionPlayCard,
		Payload:     map[string]interface{}{"card": "x"},
		Timestamp:   time.Now().UnixMilli(),
	}
	q.Record(rec)

	var raw string
	require.Eventually(t, func() bool {
		vals, err := rdb.LRange(context.Background(), name, 0, -1).Result()
		if err != nil || len(vals) == 0 {
			return false
		}
		raw = vals[0]
		return true
	}, 5*time.Second, 20*time.Millisecond)

	var got models.ActionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, rec.ActorID, got.ActorID)
	assert.Equal(t, rec.ActionType, got.ActionType)
	assert.Equal(t, 3, got.ActionIndex)
}

func TestActionQueueDropsWhenFull(t *testing.T) {
	q := NewActionQueue(nil, "", logrus.NewEntry(logrus.New()))
	for i := 0; i < cap(q.pending)+10; i++ {
		q.Record(models.ActionRecord{ActionIndex: i})
	}
	assert.Len(t, q.pending, cap(q.pending))
	assert.Equal(t, DefaultQueueName, q.name)
}

func TestActionQueueDrainsOnShutdown(t *testing.T) {
	rdb := testClient(t)
	name := "uno_actions_test_" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), name) })
	q := NewActionQueue(rdb, name, logrus.NewEntry(logrus.New()))

	for i := 0; i < 5; i++ {
		q.Record(models.ActionRecord{RoomID: "ABCD", ActionIndex: i, ActionType: models.ActionDrawCard})
	}
	q.Record(models.ActionRecord{RoomID: "ABCD", ActionIndex: 5, ActionType: models.ActionGameOver})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, q.Run(ctx))

	assert.Empty(t, q.pending)
	vals, err := rdb.LRange(context.Background(), name, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, vals, 6)
	var last models.ActionRecord
	require.NoError(t, json.Unmarshal([]byte(vals[5]), &last))
	assert.Equal(t, models.ActionGameOver, last.ActionType)
}

func TestActionQueueDrainGivesUpOnDeadServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	q := NewActionQueue(rdb, "", logrus.NewEntry(logrus.New()))
	for i := 0; i < 3; i++ {
		q.Record(models.ActionRecord{ActionIndex: i})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(drainTimeout + time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Empty(t, q.pending, "failed records are dropped, not kept")
}
