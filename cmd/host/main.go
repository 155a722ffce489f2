// cmd/host/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/chaos-uno/internal/cache"
	"github.com/jason-s-yu/chaos-uno/internal/config"
	"github.com/jason-s-yu/chaos-uno/internal/database"
	"github.com/jason-s-yu/chaos-uno/internal/game"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/jason-s-yu/chaos-uno/internal/replica"
	"github.com/jason-s-yu/chaos-uno/internal/room"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// botNames join the autopiloted host at every table.
var botNames = []string{"Bot Alpha", "Bot Beta", "Bot Gamma"}

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logrus.NewEntry(logger)); err != nil {
		logger.WithError(err).Fatal("host exited")
	}
}

// backend is the replication store selected by the configuration plus the
// optional action recorder and its worker.
type backend struct {
	store    replica.Store
	onAction func(models.ActionRecord)
	worker   func(ctx context.Context) error
	close    func()
}

// run hosts cfg.Rooms all-bot rooms on the configured backend and returns
// once every game has a winner.
func run(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	g, ctx := errgroup.WithContext(ctx)
	workerCtx, stopWorker := context.WithCancel(ctx)
	if b.worker != nil {
		g.Go(func() error { return b.worker(workerCtx) })
	}

	sessions := room.NewSessionStore(log)
	defer sessions.Close()

	g.Go(func() error {
		defer stopWorker()
		rooms, ctx := errgroup.WithContext(ctx)
		for i := 0; i < cfg.Rooms; i++ {
			seed := cfg.Seed
			if seed != 0 {
				seed += uint64(i)
			}
			name := fmt.Sprintf("Host %d", i+1)
			rooms.Go(func() error {
				return hostRoom(ctx, cfg, b, sessions, seed, name, log)
			})
		}
		return rooms.Wait()
	})
	return g.Wait()
}

// openBackend connects the replication store selected by cfg.
func openBackend(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*backend, error) {
	switch cfg.ReplicaBackend {
	case config.BackendRedis:
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		queue := cache.NewActionQueue(rdb, cfg.ActionQueue, log)
		log.WithField("addr", cfg.RedisAddr).Info("using redis replica store")
		return &backend{
			store:    cache.NewRedisStore(rdb, log),
			onAction: queue.Record,
			worker:   queue.Run,
			close:    func() { rdb.Close() },
		}, nil

	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		log.Info("using postgres replica store")
		return &backend{store: database.NewPostgresStore(pool, log), close: pool.Close}, nil

	default:
		log.Info("using in-memory replica store")
		return &backend{store: replica.NewMemoryStore(), close: func() {}}, nil
	}
}

// hostRoom creates one room, fills it with bots and waits for the result.
func hostRoom(ctx context.Context, cfg *config.Config, b *backend, sessions *room.SessionStore, seed uint64, name string, log *logrus.Entry) error {
	s := room.NewSession(room.Config{
		Store:     b.store,
		Logger:    log,
		Rand:      game.NewRand(seed),
		BotDelay:  cfg.BotDelay,
		OnAction:  b.onAction,
		Autopilot: true,
	})

	code, err := s.CreateRoom(ctx, cfg.GameMode(), name)
	if err != nil {
		return err
	}
	sessions.Add(s)
	defer sessions.Remove(code)

	for _, bot := range botNames {
		if !s.AddBot(ctx, bot) {
			return fmt.Errorf("room %s: could not seat %s", code, bot)
		}
	}
	if err := waitFor(ctx, s, func(st *game.GameState) bool { return len(st.Players) == len(botNames)+1 }); err != nil {
		return err
	}
	if !s.StartGame() {
		return fmt.Errorf("room %s: game did not start", code)
	}

	if err := waitFor(ctx, s, func(st *game.GameState) bool { return st.Status == models.StatusOver }); err != nil {
		return err
	}
	st := s.State()
	winner, _ := st.Winner()
	log.WithFields(logrus.Fields{
		"room":   code,
		"winner": winner.Name,
		"last":   st.LastAction,
	}).Info("room finished")
	return nil
}

// waitFor polls the session until done reports true or ctx ends.
func waitFor(ctx context.Context, s *room.Session, done func(*game.GameState) bool) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if st := s.State(); st != nil && done(st) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
