package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gallery-viewer/internal/config"
	"gallery-viewer/internal/session"
)

const keyPrefix = "viewer:session:"

// RedisStore keeps snapshots in Redis or Valkey as JSON with a TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis/Valkey and checks the connection
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis/Valkey: %w", err)
	}

	return NewRedisStoreFromClient(rdb, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return keyPrefix + id
}

// Load reads the snapshot stored under id
func (r *RedisStore) Load(ctx context.Context, id string) (*session.Snapshot, error) {
	val, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}

	return &snap, nil
}

// Save writes snap under id and refreshes its TTL
func (r *RedisStore) Save(ctx context.Context, id string, snap *session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}

	return nil
}

// Delete removes the snapshot stored under id
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session snapshot: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Health checks if the Redis/Valkey connection is healthy
func (r *RedisStore) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis/Valkey health check failed: %w", err)
	}
	return nil
}

// Close closes the Redis/Valkey connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
