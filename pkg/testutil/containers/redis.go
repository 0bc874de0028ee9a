//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer wraps a testcontainers Redis instance.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
}

// NewRedisContainer starts a new Redis container.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:8-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	rc := &RedisContainer{
		Container: container,
		URL:       url,
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(ctx)
	})

	return rc
}

// NewClient returns a connected go-redis client for the container.
func (r *RedisContainer) NewClient(t *testing.T) *goredis.Client {
	t.Helper()

	opts, err := goredis.ParseURL(r.URL)
	if err != nil {
		t.Fatalf("failed to parse redis URL: %v", err)
	}
	client := goredis.NewClient(opts)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}
