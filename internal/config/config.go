// internal/config/config.go
package config

import (
	"time"

	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Prefix is prepended to every variable, e.g. UNO_REDIS_ADDR.
const Prefix = "UNO"

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is read from the environment (and a .env file, if present).
type Config struct {
	ReplicaBackend string        `split_words:"true" default:"memory"`
	RedisAddr      string        `split_words:"true" default:"localhost:6379"`
	RedisDB        int           `split_words:"true"`
	ActionQueue    string        `split_words:"true" default:"uno_actions"`
	DatabaseURL    string        `split_words:"true"`
	BotDelay       time.Duration `split_words:"true" default:"1s"`
	LogLevel       string        `split_words:"true" default:"info"`
	Seed           uint64
	Rooms          int    `default:"1"`
	Mode           string `default:"CLASSIC"`

	// historian only
	HistorianBatchSize int           `split_words:"true" default:"20"`
	HistorianFlush     time.Duration `split_words:"true" default:"500ms"`
	RoomIdleTimeout    time.Duration `split_words:"true" default:"10m"`
}

// Load processes the environment and validates the result.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.ReplicaBackend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("UNO_DATABASE_URL is required for the postgres backend")
		}
	default:
		return errors.Errorf("unknown replica backend %q", c.ReplicaBackend)
	}
	if _, err := models.ParseMode(c.Mode); err != nil {
		return errors.WithStack(err)
	}
	if c.Rooms < 1 {
		return errors.Errorf("rooms must be at least 1, got %d", c.Rooms)
	}
	if c.BotDelay < 0 {
		return errors.Errorf("bot delay must not be negative, got %s", c.BotDelay)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// GameMode returns the validated mode.
func (c *Config) GameMode() models.Mode {
	m, _ := models.ParseMode(c.Mode)
	return m
}

// Level returns the validated log level.
func (c *Config) Level() logrus.Level {
	l, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}
