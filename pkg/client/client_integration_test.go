//go:build integration

package client

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/space-catalog/internal/testutil"
	"github.com/Sternrassler/space-catalog/pkg/cache"
)

// setupRedisContainer starts a throwaway Redis for the test.
func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "start Redis container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() {
		_ = rdb.Close()
		_ = container.Terminate(ctx)
	})
	return rdb
}

func TestIntegration_CacheAndInvalidation(t *testing.T) {
	rdb := setupRedisContainer(t)
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.Seed(15)

	c := newTestClient(t, mock.URL(), rdb)
	ctx := context.Background()

	page1, err := c.ListPage(ctx, 1, 10)
	require.NoError(t, err)
	page2, err := c.ListPage(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 10)
	assert.Len(t, page2.Items, 5)

	keys, err := rdb.Keys(ctx, cache.ResourcePattern(Resource)).Result()
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	_, err = c.ListPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.GetConditionalCount())

	require.NoError(t, c.Delete(ctx, "3"))

	keys, err = rdb.Keys(ctx, cache.ResourcePattern(Resource)).Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	page1, err = c.ListPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "11", page1.Items[9].ID)
}

func TestIntegration_SharedRateLimitState(t *testing.T) {
	rdb := setupRedisContainer(t)
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.Seed(1)
	mock.SetHeader("X-RateLimit-Remaining", "0")
	mock.SetHeader("X-RateLimit-Reset", "60")

	first := newTestClient(t, mock.URL(), rdb)
	second := newTestClient(t, mock.URL(), rdb)

	_, err := first.ListPage(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = second.ListPage(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrRateLimited)
}
