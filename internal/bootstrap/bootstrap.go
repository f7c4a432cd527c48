// Package bootstrap is the shared composition root of the sync binaries.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"cog_mailing_sync/internal/archive"
	"cog_mailing_sync/internal/cog"
	"cog_mailing_sync/internal/email"
	"cog_mailing_sync/internal/events"
	"cog_mailing_sync/internal/gaze"
	"cog_mailing_sync/internal/notification"
	"cog_mailing_sync/internal/parcelsync"
	"cog_mailing_sync/internal/review"
	"cog_mailing_sync/platform/config"
	"cog_mailing_sync/platform/db"
	"cog_mailing_sync/platform/logger"
)

// Stack holds the initialized infrastructure and modules.
type Stack struct {
	Config  *config.Config
	Log     *logger.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Bus     *events.InMemoryBus
	Cog     *cog.Module
	Reviews *review.Module
	// Archive is nil when MinIO is not configured.
	Archive *archive.Archive
}

// Connect opens the database, the optional Redis and MinIO connections and
// builds the modules shared by every binary.
func Connect(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Stack, error) {
	var pool *pgxpool.Pool
	if err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("database connection established")

	s := &Stack{
		Config:  cfg,
		Log:     log,
		Pool:    pool,
		Bus:     events.NewInMemoryBus(log),
		Cog:     cog.NewModule(pool, cfg),
		Reviews: review.NewModule(pool, log),
	}

	if cfg.GetRedisURL() != "" {
		rdb, err := NewRedis(cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Redis = rdb
	}

	if cfg.IsMinIOEnabled() {
		a, err := archive.New(cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := WithRetry(ctx, log, "ensure snapshot bucket", 5, 2*time.Second, func() error {
			return a.EnsureBucket(ctx)
		}); err != nil {
			s.Close()
			return nil, fmt.Errorf("ensure snapshot bucket: %w", err)
		}
		s.Archive = a
		log.Info("snapshot archive initialized", "bucket", cfg.GetMinioBucketGazeSnapshots())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; gaze snapshots are not archived")
	}

	return s, nil
}

// RegisterNotifications subscribes operator email to the event bus.
func (s *Stack) RegisterNotifications() {
	notification.New(email.NewSender(s.Config), s.Config.GetOperatorEmail(), s.Log).RegisterHandlers(s.Bus)
}

// SyncService builds the per-parcel sync service.
func (s *Stack) SyncService(opts parcelsync.Options) *parcelsync.Service {
	deps := parcelsync.Deps{
		Registry: gaze.NewModule(s.Config, s.Redis, s.Log).Client(),
		Store:    parcelsync.NewCogUnitOfWork(s.Cog),
		Reviews:  s.Reviews.Service(),
		Bus:      s.Bus,
		Log:      s.Log,
	}
	if s.Archive != nil {
		deps.Archive = s.Archive
	}
	return parcelsync.New(deps, opts)
}

// Close waits for pending event handlers and releases connections.
func (s *Stack) Close() {
	s.Bus.Wait()
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	s.Pool.Close()
}

// NewRedis creates a Redis client from REDIS_URL.
func NewRedis(cfg config.SchedulerConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// WithRetry runs fn until it succeeds, backing off quadratically.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
