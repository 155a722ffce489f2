// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/chaos-uno/internal/game"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/jason-s-yu/chaos-uno/internal/replica"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// maxTxRetries bounds optimistic retries of a WATCH transaction.
const maxTxRetries = 10

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to connect to Redis at %s", addr)
	}
	return rdb, nil
}

// RedisStore keeps each room as a JSON string under uno:room:{code} and
// announces every write on the uno:room:{code}:updates channel.
type RedisStore struct {
	rdb *redis.Client
	log *logrus.Entry
}

var _ replica.Store = (*RedisStore)(nil)

// NewRedisStore wraps a connected client.
func NewRedisStore(rdb *redis.Client, log *logrus.Entry) *RedisStore {
	return &RedisStore{rdb: rdb, log: log.WithField("store", "redis")}
}

func roomKey(roomID string) string     { return fmt.Sprintf("uno:room:%s", roomID) }
func updatesChan(roomID string) string { return fmt.Sprintf("uno:room:%s:updates", roomID) }

func (r *RedisStore) Create(ctx context.Context, roomID string, snap game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to marshal room")
	}
	ok, err := r.rdb.SetNX(ctx, roomKey(roomID), data, 0).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to create room %s", roomID)
	}
	if !ok {
		return replica.ErrRoomExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, roomID string) (game.Snapshot, error) {
	data, err := r.rdb.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Snapshot{}, replica.ErrRoomNotFound
	}
	if err != nil {
		return game.Snapshot{}, errors.Wrapf(err, "failed to read room %s", roomID)
	}
	return decodeSnapshot(data)
}

// Update replaces the document only if the room exists, then publishes it.
func (r *RedisStore) Update(ctx context.Context, roomID string, snap game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to marshal room")
	}
	ok, err := r.rdb.SetXX(ctx, roomKey(roomID), data, 0).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to update room %s", roomID)
	}
	if !ok {
		return replica.ErrRoomNotFound
	}
	if err := r.rdb.Publish(ctx, updatesChan(roomID), data).Err(); err != nil {
		return errors.Wrapf(err, "failed to publish room %s", roomID)
	}
	return nil
}

// AppendPlayer seats p inside a WATCH transaction so that concurrent joiners
// never overwrite each other.
func (r *RedisStore) AppendPlayer(ctx context.Context, roomID string, p models.Player) error {
	key := roomKey(roomID)
	for i := 0; i < maxTxRetries; i++ {
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return replica.ErrRoomNotFound
			}
			if err != nil {
				return err
			}
			snap, err := decodeSnapshot(data)
			if err != nil {
				return err
			}
			changed, err := replica.SeatPlayer(&snap, p)
			if err != nil || !changed {
				return err
			}
			out, err := json.Marshal(snap)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, 0)
				pipe.Publish(ctx, updatesChan(roomID), out)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			r.log.WithField("room", roomID).Debug("append player raced, retrying")
			continue
		}
		if err != nil && !errors.Is(err, replica.ErrGameInProgress) && !errors.Is(err, replica.ErrRoomFull) && !errors.Is(err, replica.ErrRoomNotFound) {
			return errors.Wrapf(err, "failed to append player to room %s", roomID)
		}
		return err
	}
	return errors.Errorf("append player to room %s: too much contention", roomID)
}

// Subscribe listens on the room's update channel. The current document is
// delivered once the subscription is confirmed, so no write is missed.
func (r *RedisStore) Subscribe(ctx context.Context, roomID string, fn func(game.Snapshot)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := r.rdb.Subscribe(ctx, updatesChan(roomID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		pubsub.Close()
		return nil, errors.Wrapf(err, "failed to subscribe to room %s", roomID)
	}

	current, err := r.Get(ctx, roomID)
	if err != nil {
		cancel()
		pubsub.Close()
		return nil, err
	}

	var mu sync.Mutex
	stopped := false
	deliver := func(s game.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			fn(s)
		}
	}
	deliver(current)

	ch := pubsub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				snap, err := decodeSnapshot([]byte(msg.Payload))
				if err != nil {
					r.log.WithError(err).WithField("room", roomID).Warn("dropping malformed room update")
					continue
				}
				deliver(snap)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			cancel()
			pubsub.Close()
		})
	}, nil
}

func decodeSnapshot(data []byte) (game.Snapshot, error) {
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return game.Snapshot{}, errors.Wrap(err, "failed to unmarshal room")
	}
	return snap, nil
}
