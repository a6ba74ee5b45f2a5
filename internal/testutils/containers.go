package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	redisModule "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer is a Valkey container (Redis-compatible) with a connected client
type RedisContainer struct {
	Container testcontainers.Container
	Client    *redis.Client
	Endpoint  string
}

// StartRedis starts a Valkey container and connects a client to it
func StartRedis(ctx context.Context) (*RedisContainer, error) {
	container, err := redisModule.Run(ctx,
		"valkey/valkey:7-alpine",
		redisModule.WithLogLevel(redisModule.LogLevelVerbose),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start valkey container: %w", err)
	}

	rc := &RedisContainer{Container: container}

	// ConnectionString is a redis:// URL
	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		_ = rc.Cleanup(ctx)
		return nil, fmt.Errorf("failed to get valkey endpoint: %w", err)
	}
	rc.Endpoint = endpoint

	opts, err := redis.ParseURL(endpoint)
	if err != nil {
		_ = rc.Cleanup(ctx)
		return nil, fmt.Errorf("failed to parse valkey endpoint: %w", err)
	}
	rc.Client = redis.NewClient(opts)

	if err := rc.Client.Ping(ctx).Err(); err != nil {
		_ = rc.Cleanup(ctx)
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	return rc, nil
}

// SetupRedis starts a container for one test, skipping it in short mode or
// when no container runtime is available
func SetupRedis(t *testing.T) *RedisContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	rc, err := StartRedis(ctx)
	if err != nil {
		t.Skipf("valkey container not available: %v", err)
	}
	t.Cleanup(func() {
		_ = rc.Cleanup(ctx)
	})

	return rc
}

// Flush clears all data from the container
func (rc *RedisContainer) Flush(ctx context.Context) error {
	return rc.Client.FlushDB(ctx).Err()
}

// Cleanup closes the client and terminates the container
func (rc *RedisContainer) Cleanup(ctx context.Context) error {
	var errs []error

	if rc.Client != nil {
		if err := rc.Client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close valkey client: %w", err))
		}
	}

	if rc.Container != nil {
		if err := rc.Container.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate valkey container: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}

	return nil
}
