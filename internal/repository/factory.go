package repository

import (
	"github.com/navikt/roombooking/internal/config"
	"github.com/navikt/roombooking/internal/repository/memory"
	"github.com/navikt/roombooking/internal/repository/redis"
)

// NewRepository returns the Redis repository when enabled, the in-memory one otherwise
func NewRepository(cfg config.RedisConfig) (Repository, error) {
	if cfg.Enabled {
		return redis.NewRepository(cfg)
	}
	return memory.NewRepository(), nil
}
