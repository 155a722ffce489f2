// internal/database/rooms.go
package database

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/chaos-uno/internal/game"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/jason-s-yu/chaos-uno/internal/replica"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// notifyChannel carries the code of every room whose document changed.
const notifyChannel = "room_updates"

// PostgresStore keeps one JSONB document per room and signals changes with
// LISTEN/NOTIFY. Subscribers re-read the row on notification.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

var _ replica.Store = (*PostgresStore)(nil)

// NewPostgresStore wraps a connected pool.
func NewPostgresStore(pool *pgxpool.Pool, log *logrus.Entry) *PostgresStore {
	return &PostgresStore{pool: pool, log: log.WithField("store", "postgres")}
}

func (p *PostgresStore) Create(ctx context.Context, roomID string, snap game.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "marshal room")
	}
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO rooms (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, roomID, doc)
	if err != nil {
		return errors.Wrapf(err, "insert room %s", roomID)
	}
	if tag.RowsAffected() == 0 {
		return replica.ErrRoomExists
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, roomID string) (game.Snapshot, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM rooms WHERE id = $1`, roomID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Snapshot{}, replica.ErrRoomNotFound
	}
	if err != nil {
		return game.Snapshot{}, errors.Wrapf(err, "select room %s", roomID)
	}
	return unmarshalRoom(doc)
}

func (p *PostgresStore) Update(ctx context.Context, roomID string, snap game.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "marshal room")
	}
	return pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE rooms SET doc = $2, updated_at = now() WHERE id = $1`, roomID, doc)
		if err != nil {
			return errors.Wrapf(err, "update room %s", roomID)
		}
		if tag.RowsAffected() == 0 {
			return replica.ErrRoomNotFound
		}
		return notify(ctx, tx, roomID)
	})
}

// AppendPlayer locks the row, seats p and writes the document back in one
// transaction.
func (p *PostgresStore) AppendPlayer(ctx context.Context, roomID string, pl models.Player) error {
	return pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var doc []byte
		err := tx.QueryRow(ctx, `SELECT doc FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&doc)
		if errors.Is(err, pgx.ErrNoRows) {
			return replica.ErrRoomNotFound
		}
		if err != nil {
			return errors.Wrapf(err, "lock room %s", roomID)
		}
		snap, err := unmarshalRoom(doc)
		if err != nil {
			return err
		}
		changed, err := replica.SeatPlayer(&snap, pl)
		if err != nil || !changed {
			return err
		}
		out, err := json.Marshal(snap)
		if err != nil {
			return errors.Wrap(err, "marshal room")
		}
		if _, err := tx.Exec(ctx, `UPDATE rooms SET doc = $2, updated_at = now() WHERE id = $1`, roomID, out); err != nil {
			return errors.Wrapf(err, "update room %s", roomID)
		}
		return notify(ctx, tx, roomID)
	})
}

// Subscribe holds a dedicated connection in LISTEN mode for the lifetime of
// the subscription.
func (p *PostgresStore) Subscribe(ctx context.Context, roomID string, fn func(game.Snapshot)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "acquire listen connection")
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		cancel()
		return nil, errors.Wrap(err, "listen")
	}

	current, err := p.Get(ctx, roomID)
	if err != nil {
		unlisten(conn)
		cancel()
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

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer unlisten(conn)
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					p.log.WithError(err).WithField("room", roomID).Warn("listen connection lost")
				}
				return
			}
			if n.Payload != roomID {
				continue
			}
			snap, err := p.Get(ctx, roomID)
			if err != nil {
				p.log.WithError(err).WithField("room", roomID).Warn("failed to reload room")
				continue
			}
			deliver(snap)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			cancel()
			<-done
		})
	}, nil
}

func notify(ctx context.Context, tx pgx.Tx, roomID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, roomID); err != nil {
		return errors.Wrap(err, "notify room update")
	}
	return nil
}

// unlisten returns a clean connection to the pool, or drops it if it is
// no longer usable.
func unlisten(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := conn.Exec(ctx, "UNLISTEN *"); err != nil {
		conn.Conn().Close(ctx)
	}
	conn.Release()
}

func unmarshalRoom(doc []byte) (game.Snapshot, error) {
	var snap game.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return game.Snapshot{}, errors.Wrap(err, "unmarshal room")
	}
	return snap, nil
}
