package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
	"github.com/Skotchmaster/lapcraft/internal/repo"
	"github.com/Skotchmaster/lapcraft/pkg/tokens"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repo.AutoMigrate(db))
	return repo.New(db)
}

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, _ := event.(map[string]any)
	f.events = append(f.events, recordedEvent{Topic: topic, Key: key, Event: m})
	return f.err
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Event["type"].(string))
	}
	return out
}

type fakeTreeCache struct {
	mu          sync.Mutex
	tree        []*models.CategoryNode
	stored      bool
	stores      int
	invalidated int
}

func (f *fakeTreeCache) Tree(context.Context) ([]*models.CategoryNode, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tree, f.stored, nil
}

func (f *fakeTreeCache) StoreTree(_ context.Context, tree []*models.CategoryNode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tree, f.stored = tree, true
	f.stores++
	return nil
}

func (f *fakeTreeCache) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tree, f.stored = nil, false
	f.invalidated++
	return nil
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed map[uuid.UUID]models.ProductView
	hits    []uuid.UUID
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: make(map[uuid.UUID]models.ProductView)}
}

func (f *fakeIndex) IndexProduct(_ context.Context, p models.ProductView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[p.ID] = p
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uuid.UUID, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.hits)), f.hits, nil
}

var errIndexDown = errors.New("index unavailable")

func newTestIssuer() *tokens.Issuer {
	return tokens.NewIssuer([]byte("test-jwt-secret"), 30*time.Minute)
}

// assertCounters checks both denormalized counters of every category against live data.
func assertCounters(t *testing.T, r *repo.GormRepo) {
	t.Helper()
	db := r.Conn(context.Background())

	var cats []models.Category
	require.NoError(t, db.Find(&cats).Error)
	for _, c := range cats {
		ids, err := r.SubtreeIDs(db, c.ID)
		require.NoError(t, err)
		products, err := r.CountProductsIn(db, ids)
		require.NoError(t, err)
		children, err := r.CountChildren(db, c.ID)
		require.NoError(t, err)

		require.EqualValues(t, products, c.ProductCount, "product_count of %s", c.Name)
		require.EqualValues(t, children, c.ChildrenCount, "children_count of %s", c.Name)
	}
}

func ptr[T any](v T) *T { return &v }
