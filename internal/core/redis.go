// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
)

const (
	redisPingTimeout     = 5 * time.Second
	redisPoolTimeout     = 30 * time.Second
	redisConnMaxIdleTime = 5 * time.Minute
)

// Redis holds the shared client. It backs rate limiting, token revocation
// and password reset tokens; nothing durable lives there.
type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = redisPoolTimeout
	opts.ConnMaxIdleTime = redisConnMaxIdleTime

	r := &Redis{Client: redis.NewClient(opts)}
	if err := r.Ping(ctx); err != nil {
		_ = r.Close() //nolint:errcheck // cleanup on connection failure
		return nil, err
	}

	return r, nil
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

// KeyStore keeps short-lived string values under one key namespace.
type KeyStore struct {
	rdb       *redis.Client
	namespace string
}

func NewKeyStore(rdb *redis.Client, namespace string) *KeyStore {
	return &KeyStore{rdb: rdb, namespace: namespace}
}

// Key returns the full redis key for id.
func (k *KeyStore) Key(id string) string {
	return k.namespace + ":" + id
}

// Put stores value under id for ttl. A ttl that already elapsed stores
// nothing.
func (k *KeyStore) Put(ctx context.Context, id, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := k.rdb.Set(ctx, k.Key(id), value, ttl).Err(); err != nil {
		return fmt.Errorf("store %s key: %w", k.namespace, err)
	}
	return nil
}

func (k *KeyStore) Has(ctx context.Context, id string) (bool, error) {
	n, err := k.rdb.Exists(ctx, k.Key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check %s key: %w", k.namespace, err)
	}
	return n > 0, nil
}

// Take reads and deletes id in a single GETDEL, so a value is handed out
// at most once. ok is false when the key is missing or expired.
func (k *KeyStore) Take(ctx context.Context, id string) (value string, ok bool, err error) {
	value, err = k.rdb.GetDel(ctx, k.Key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("take %s key: %w", k.namespace, err)
	}
	return value, true, nil
}
