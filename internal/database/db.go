package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Connect opens a pgx pool for url, pings it and creates any missing tables.
func Connect(ctx context.Context, url string, log *logrus.Entry) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse pgx config")
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create pgx pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "db ping error")
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	log.WithField("host", config.ConnConfig.Host).Info("connected to database")
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		doc        JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS room_actions (
		id           BIGSERIAL PRIMARY KEY,
		room_id      TEXT NOT NULL,
		action_index INT NOT NULL,
		actor_id     UUID NOT NULL,
		action_type  TEXT NOT NULL,
		payload      JSONB NOT NULL DEFAULT '{}',
		recorded_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS room_actions_room_idx ON room_actions (room_id)`,
	`CREATE TABLE IF NOT EXISTS room_results (
		room_id     TEXT NOT NULL,
		winner_id   UUID NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (room_id, finished_at)
	)`,
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate schema")
		}
	}
	return nil
}
