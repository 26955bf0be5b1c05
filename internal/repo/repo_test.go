package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

func newTestRepo(t *testing.T) (*GormRepo, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return New(db), db.WithContext(context.Background())
}

func mustCategory(t *testing.T, db *gorm.DB, name string, parent *models.Category) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func mustProduct(t *testing.T, db *gorm.DB, article int64, title string, price float64, cat *models.Category) *models.Product {
	t.Helper()
	p := &models.Product{Article: article, Title: title, Price: price, StockQuantity: 5}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Category {
	t.Helper()
	var c models.Category
	require.NoError(t, db.First(&c, "id = ?", id).Error)
	return &c
}
