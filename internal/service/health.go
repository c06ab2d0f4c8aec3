package service

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/valueprobe/backend/internal/pkg/async"
)

// Health reports whether the service's backing stores are reachable.
type Health struct {
	DB    *bun.DB
	Redis *redis.Client
	NATS  *nats.Conn
}

func NewHealth(db *bun.DB, redisClient *redis.Client, natsConn *nats.Conn) *Health {
	return &Health{
		DB:    db,
		Redis: redisClient,
		NATS:  natsConn,
	}
}

// Ping probes postgres, redis and nats concurrently and returns the first
// failure.
func (s *Health) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return async.WaitAll(
		async.Errable(func() error {
			return errors.Wrap(s.DB.PingContext(ctx), "failed to ping postgres")
		}),
		async.Errable(func() error {
			return errors.Wrap(s.Redis.Ping(ctx).Err(), "failed to ping redis")
		}),
		async.Errable(func() error {
			if status := s.NATS.Status(); status != nats.CONNECTED {
				return errors.Errorf("nats connection is %s", status)
			}
			return nil
		}),
	)
}
