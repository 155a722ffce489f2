// internal/cache/actions.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list that collects action records.
const DefaultQueueName = "uno_actions"

// drainTimeout bounds how long Run keeps publishing after cancellation.
const drainTimeout = 2 * time.Second

// ActionQueue pushes committed actions to a Redis list for offline consumers.
// Record never blocks the game: records are buffered and a full buffer drops
// the newest one.
type ActionQueue struct {
	rdb     *redis.Client
	name    string
	pending chan models.ActionRecord
	log     *logrus.Entry
}

// NewActionQueue returns a queue writing to the named list.
func NewActionQueue(rdb *redis.Client, name string, log *logrus.Entry) *ActionQueue {
	if name == "" {
		name = DefaultQueueName
	}
	return &ActionQueue{
		rdb:     rdb,
		name:    name,
		pending: make(chan models.ActionRecord, 256),
		log:     log.WithField("queue", name),
	}
}

// Record buffers rec for Run to publish.
func (q *ActionQueue) Record(rec models.ActionRecord) {
	select {
	case q.pending <- rec:
	default:
		q.log.WithField("room", rec.RoomID).Warn("action queue full, dropping record")
	}
}

// Run publishes buffered records until ctx is done, then flushes whatever is
// still buffered. Publish failures are logged and the record is dropped.
func (q *ActionQueue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			q.drain()
			return nil
		case rec := <-q.pending:
			if err := q.Publish(ctx, rec); err != nil {
				q.log.WithError(err).Warn("failed to publish action")
			}
		}
	}
}

// drain publishes whatever is buffered when Run is cancelled.
func (q *ActionQueue) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case rec := <-q.pending:
			if err := q.Publish(ctx, rec); err != nil {
				q.log.WithError(err).Warn("failed to publish action during shutdown")
			}
		default:
			return
		}
	}
}

// Publish serializes rec to JSON and pushes it onto the list.
func (q *ActionQueue) Publish(ctx context.Context, rec models.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal action record")
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return errors.Wrapf(err, "failed to RPush to Redis list '%s'", q.name)
	}
	return nil
}
