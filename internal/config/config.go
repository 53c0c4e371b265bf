package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the broker's tunable surface. Every field has a default, so
// a bare process starts with the design constants; env vars override.
type Config struct {
	Addr          string        `env:"ELUNO_ADDR" envDefault:":8080"`
	QueueWait     time.Duration `env:"ELUNO_QUEUE_WAIT" envDefault:"120s"`
	SweepInterval time.Duration `env:"ELUNO_SWEEP_INTERVAL" envDefault:"10s"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if c.SweepInterval <= 0 || c.QueueWait <= 0 {
		return Config{}, fmt.Errorf("bounds must be positive: sweep=%v wait=%v", c.SweepInterval, c.QueueWait)
	}
	return c, nil
}
