package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/txengine/internal/config"
	"github.com/congo-pay/txengine/internal/notification"
	"github.com/congo-pay/txengine/internal/report"
)

// Backends holds the optional external systems a run publishes to. Any field
// may be nil when the matching configuration is empty.
type Backends struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
	Kafka *notification.KafkaNotifier

	closers []func() error
}

// Connect opens every backend enabled by cfg and runs schema migrations for
// Postgres. On error, already opened backends are closed.
func Connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (b *Backends, retErr error) {
	b = &Backends{}
	defer func() {
		if retErr != nil {
			_ = b.Close()
		}
	}()

	if cfg.DatabaseURL != "" {
		if err := Migrate(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		db, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.DB = db
		b.closers = append(b.closers, func() error { db.Close(); return nil })
		logger.Info("postgres snapshot sink enabled")
	}

	if cfg.RedisURL != "" {
		cache, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		b.Cache = cache
		b.closers = append(b.closers, cache.Close)
		logger.Info("redis snapshot sink enabled")
	}

	if cfg.KafkaEnabled() {
		b.Kafka = notification.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		b.closers = append(b.closers, b.Kafka.Close)
		logger.Info("kafka notifications enabled", "topic", cfg.KafkaTopic)
	}

	return b, nil
}

// Sinks returns a sink for each connected store, in addition to extra.
func (b *Backends) Sinks(cfg config.Config, extra ...report.Sink) []report.Sink {
	sinks := append([]report.Sink(nil), extra...)
	if b.DB != nil {
		sinks = append(sinks, report.NewPostgresSink(b.DB))
	}
	if b.Cache != nil {
		sinks = append(sinks, report.NewRedisSink(b.Cache, cfg.SnapshotTTL))
	}
	return sinks
}

// Notifier returns the logger notifier, chained with Kafka when enabled.
func (b *Backends) Notifier(logger *slog.Logger) notification.Notifier {
	if b.Kafka == nil {
		return notification.NewLoggerNotifier(logger)
	}
	return notification.Multi{notification.NewLoggerNotifier(logger), b.Kafka}
}

// Close releases backends in reverse order of opening.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return errors.Join(errs...)
}
