// internal/historian/historian.go is an asynchronous worker that pops action
// records from the Redis queue and persists them to PostgreSQL in batches.
package historian

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options tune the historian. Zero values get defaults.
type Options struct {
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
	// IdleTimeout is how long a room document may go without a write before
	// it is pruned.
	IdleTimeout time.Duration
}

// Historian drains the action queue into room_actions and records winners in
// room_results.
type Historian struct {
	rdb  *redis.Client
	pool *pgxpool.Pool
	opts Options
	log  *logrus.Entry

	mu    sync.Mutex
	batch []models.ActionRecord
}

// New builds a historian reading the given queue.
func New(rdb *redis.Client, pool *pgxpool.Pool, opts Options, log *logrus.Entry) *Historian {
	if opts.Queue == "" {
		opts.Queue = "uno_actions"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 10 * time.Minute
	}
	return &Historian{
		rdb:   rdb,
		pool:  pool,
		opts:  opts,
		log:   log.WithField("queue", opts.Queue),
		batch: make([]models.ActionRecord, 0, opts.BatchSize),
	}
}

// Run reads, flushes and prunes until ctx is done. Whatever is batched at
// shutdown is flushed before returning.
func (h *Historian) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.readLoop(ctx) })
	g.Go(func() error { return h.flushLoop(ctx) })
	g.Go(func() error { return h.pruneLoop(ctx) })
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ferr := h.Flush(flushCtx); ferr != nil {
		h.log.WithError(ferr).Error("final flush failed")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readLoop blocks on BLPOP with a short timeout so cancellation is noticed.
func (h *Historian) readLoop(ctx context.Context) error {
	for {
		res, err := h.rdb.BLPop(ctx, 2*time.Second, h.opts.Queue).Result()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			h.log.WithError(err).Warn("BLPOP failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		if len(res) < 2 {
			continue
		}
		rec, err := ParseRecord([]byte(res[1]))
		if err != nil {
			h.log.WithError(err).Warn("invalid action record")
			continue
		}
		if h.add(rec) {
			if err := h.Flush(ctx); err != nil {
				h.log.WithError(err).Error("flush failed")
			}
		}
	}
}

func (h *Historian) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(h.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := h.Flush(ctx); err != nil {
				h.log.WithError(err).Error("flush failed")
			}
		}
	}
}

func (h *Historian) pruneLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := h.PruneIdleRooms(ctx)
			if err != nil {
				h.log.WithError(err).Error("prune failed")
				continue
			}
			if n > 0 {
				h.log.WithField("rooms", n).Info("pruned idle rooms")
			}
		}
	}
}

// ParseRecord decodes one queue payload.
func ParseRecord(data []byte) (models.ActionRecord, error) {
	var rec models.ActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, errors.Wrap(err, "decode action record")
	}
	if rec.RoomID == "" || rec.ActionType == "" {
		return rec, errors.New("action record without room or type")
	}
	return rec, nil
}

// add appends rec to the batch and reports whether the batch is full.
func (h *Historian) add(rec models.ActionRecord) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batch = append(h.batch, rec)
	return len(h.batch) >= h.opts.BatchSize
}

// take empties the batch and returns its records.
func (h *Historian) take() []models.ActionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.batch) == 0 {
		return nil
	}
	out := make([]models.ActionRecord, len(h.batch))
	copy(out, h.batch)
	h.batch = h.batch[:0]
	return out
}

// Flush writes the current batch in a single transaction. A failed batch is
// dropped and logged.
func (h *Historian) Flush(ctx context.Context) error {
	recs := h.take()
	if len(recs) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertAction(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "flush %d actions", len(recs))
	}
	h.log.WithField("count", len(recs)).Debug("flushed actions")
	return nil
}

func insertAction(ctx context.Context, tx pgx.Tx, rec models.ActionRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return errors.Wrap(err, "encode payload")
	}
	at := time.UnixMilli(rec.Timestamp)
	if _, err := tx.Exec(ctx, `
		INSERT INTO room_actions (room_id, action_index, actor_id, action_type, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.RoomID, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, at); err != nil {
		return errors.Wrap(err, "insert action")
	}

	if rec.ActionType == models.ActionGameOver {
		if _, err := tx.Exec(ctx, `
			INSERT INTO room_results (room_id, winner_id, finished_at)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, rec.RoomID, rec.ActorID, at); err != nil {
			return errors.Wrap(err, "insert result")
		}
	}
	return nil
}

// PruneIdleRooms deletes room documents that have not been written within
// the idle timeout and returns how many were removed.
func (h *Historian) PruneIdleRooms(ctx context.Context) (int64, error) {
	tag, err := h.pool.Exec(ctx,
		`DELETE FROM rooms WHERE updated_at < now() - make_interval(secs => $1)`,
		h.opts.IdleTimeout.Seconds(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "prune rooms")
	}
	return tag.RowsAffected(), nil
}
