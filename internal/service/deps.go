package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/lapcraft/internal/models"
	"github.com/Skotchmaster/lapcraft/pkg/logging"
)

const (
	TopicProductEvents  = "product_events"
	TopicCategoryEvents = "category_events"
	TopicCartEvents     = "cart_events"
	TopicUserEvents     = "user_events"

	sideEffectTimeout = 5 * time.Second
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// TreeCache holds the rendered category tree. Any write to categories or products invalidates it.
type TreeCache interface {
	Tree(ctx context.Context) ([]*models.CategoryNode, bool, error)
	StoreTree(ctx context.Context, tree []*models.CategoryNode) error
	Invalidate(ctx context.Context) error
}

type ProductIndex interface {
	IndexProduct(ctx context.Context, p models.ProductView) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string, from, size int) (int64, []uuid.UUID, error)
}

// publish runs after commit; delivery failures are logged and never fail the request.
func publish(ctx context.Context, p EventPublisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("publish_event_error", "topic", topic, "type", event["type"], "error", err)
	}
}

func invalidateTree(ctx context.Context, c TreeCache) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := c.Invalidate(ctx); err != nil {
		logging.FromContext(ctx).Warn("tree_cache_invalidate_error", "error", err)
	}
}
