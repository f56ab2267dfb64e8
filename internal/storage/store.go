package storage

import (
	"context"
	"fmt"

	"github.com/yndnr/filegate/internal/core/service"
	"github.com/yndnr/filegate/internal/storage/memory"
	"github.com/yndnr/filegate/internal/storage/mongo"
	"github.com/yndnr/filegate/internal/storage/redis"
	"github.com/yndnr/filegate/internal/telemetry/logger"
	"github.com/yndnr/filegate/internal/telemetry/metric"
)

// Driver names.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

// Store is a token and user store with a lifecycle.
type Store interface {
	service.TokenRepository
	service.UserRepository

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Config selects a backend and carries its settings.
type Config struct {
	Driver string
	Badger BadgerConfig
	Redis  redis.Config
	Mongo  mongo.Config
}

// Open opens the configured backend. When reg is non-nil, backend metrics
// are registered into it.
func Open(ctx context.Context, cfg Config, log logger.Logger, reg *metric.Registry) (Store, error) {
	if log == nil {
		log = logger.Default()
	}

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case DriverMemory, "":
		s = memory.New()
	case DriverBadger:
		var b *BadgerStore
		b, err = NewBadgerStore(cfg.Badger, log)
		if err == nil && reg != nil {
			b.RegisterMetrics(reg.Prometheus())
		}
		s = b
	case DriverRedis:
		s, err = redis.New(ctx, cfg.Redis)
	case DriverMongo:
		s, err = mongo.New(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info("storage opened", "driver", cfg.Driver)
	return s, nil
}
