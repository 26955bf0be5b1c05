package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

const treeKey = "categories:tree"

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Connect creates a Redis client and verifies the connection with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// TreeCache stores the rendered category tree as one JSON value.
type TreeCache struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewTreeCache(client *redis.Client, ttl time.Duration, prefix string) *TreeCache {
	return &TreeCache{Client: client, TTL: ttl, Prefix: prefix}
}

func (c *TreeCache) key() string {
	return c.Prefix + treeKey
}

func (c *TreeCache) Tree(ctx context.Context) ([]*models.CategoryNode, bool, error) {
	raw, err := c.Client.Get(ctx, c.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var tree []*models.CategoryNode
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, false, fmt.Errorf("decode cached tree: %w", err)
	}
	return tree, true, nil
}

func (c *TreeCache) StoreTree(ctx context.Context, tree []*models.CategoryNode) error {
	raw, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.key(), raw, c.TTL).Err()
}

func (c *TreeCache) Invalidate(ctx context.Context) error {
	return c.Client.Del(ctx, c.key()).Err()
}
