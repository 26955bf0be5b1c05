package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client, err := Connect(context.Background(), Config{Addr: addr, DB: 15})
	if err != nil {
		t.Skipf("skipping integration test: redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestTreeCache_RoundTrip(t *testing.T) {
	client := testRedisClient(t)
	ctx := context.Background()
	c := NewTreeCache(client, time.Minute, "test-"+uuid.NewString()[:8]+":")
	t.Cleanup(func() { _ = c.Invalidate(ctx) })

	_, ok, err := c.Tree(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	root := models.Category{ID: uuid.New(), Name: "Laptops", ChildrenCount: 1}
	leaf := models.Category{ID: uuid.New(), Name: "Gaming", ParentID: &root.ID}
	tree := []*models.CategoryNode{{
		Category: root,
		Children: []*models.CategoryNode{{Category: leaf, Children: []*models.CategoryNode{}}},
	}}
	require.NoError(t, c.StoreTree(ctx, tree))

	got, ok, err := c.Tree(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Laptops", got[0].Name)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, root.ID, *got[0].Children[0].ParentID)

	ttl, err := client.TTL(ctx, c.key()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Tree(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTreeCache_Key(t *testing.T) {
	t.Parallel()
	c := NewTreeCache(nil, time.Minute, "lapcraft:")
	assert.Equal(t, "lapcraft:categories:tree", c.key())
}
