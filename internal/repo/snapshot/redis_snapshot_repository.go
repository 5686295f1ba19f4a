package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
)

// RedisSnapshotRepositoryConfig holds configuration for the Redis-backed
// snapshot repository.
type RedisSnapshotRepositoryConfig struct {
	// Addr is the Redis address ("host:port" or a redis:// URL)
	Addr string `env:"ADDR" default:"localhost:6379"`

	// DialTimeout is the connect timeout in seconds
	DialTimeout int64 `env:"DIAL_TIMEOUT" default:"5"`

	// SessionTTL is the snapshot expiry in seconds; 0 disables expiry
	SessionTTL int64 `env:"SESSION_TTL" default:"0"`
}

// RedisSnapshotRepository implements Repository using a Redis hash per
// session: the session ID is the key and each store name is a field.
type RedisSnapshotRepository struct {
	client *redis.Client
	cfg    RedisSnapshotRepositoryConfig
	log    logging.Logger
}

var _ Repository = (*RedisSnapshotRepository)(nil)

// RedisSnapshotRepositoryFactory creates a factory function that returns a
// new RedisSnapshotRepository.
func RedisSnapshotRepositoryFactory(cfg RedisSnapshotRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewRedisSnapshotRepository(context.Background(), cfg)
	}
}

// NewRedisSnapshotRepository creates a new RedisSnapshotRepository and checks
// connectivity with a ping. Returns an error if Redis is unreachable.
func NewRedisSnapshotRepository(
	ctx context.Context,
	cfg RedisSnapshotRepositoryConfig,
) (*RedisSnapshotRepository, error) {
	log := logging.GetLogger("repo.snapshot.redis_snapshot_repository").With(
		logging.Group("redis", "addr", cfg.Addr),
	)

	opts, err := redis.ParseURL(cfg.Addr)
	if err != nil {
		//nolint:exhaustruct
		opts = &redis.Options{
			Addr:        cfg.Addr,
			DialTimeout: time.Duration(cfg.DialTimeout * int64(time.Second)),
		}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.DialTimeout*int64(time.Second)))
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.DebugContext(ctx, "connected")

	return &RedisSnapshotRepository{
		client: client,
		cfg:    cfg,
		log:    log,
	}, nil
}

// Store implements Repository.Store using HSET on the session key.
func (r *RedisSnapshotRepository) Store(
	ctx context.Context,
	sessionID domain.SessionID,
	name string,
	data []byte,
) error {
	key := redisKey(sessionID)

	if err := r.client.HSet(ctx, key, name, data).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}

	if r.cfg.SessionTTL > 0 {
		ttl := time.Duration(r.cfg.SessionTTL * int64(time.Second))
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}

	return nil
}

// Fetch implements Repository.Fetch using HGET on the session key.
func (r *RedisSnapshotRepository) Fetch(
	ctx context.Context,
	sessionID domain.SessionID,
	name string,
) ([]byte, bool, error) {
	val, err := r.client.HGet(ctx, redisKey(sessionID), name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("redis hget: %w", err)
	}

	return []byte(val), true, nil
}

// Delete implements Repository.Delete using HDEL on the session key.
func (r *RedisSnapshotRepository) Delete(
	ctx context.Context,
	sessionID domain.SessionID,
	name string,
) error {
	if err := r.client.HDel(ctx, redisKey(sessionID), name).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}

	return nil
}

// Close implements Repository.Close by closing the Redis client.
func (r *RedisSnapshotRepository) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}

	return nil
}

func redisKey(sessionID domain.SessionID) string {
	return "session:" + sessionID.String()
}
