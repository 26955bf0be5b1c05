package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

// GormRepo methods take the handle they run on, so a caller can pass either
// Conn(ctx) for reads or the tx given to InTx for a unit of work.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) Conn(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx)
}

// InTx runs fn in one transaction. It commits when fn returns nil and rolls back otherwise.
func (r *GormRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Favorite{},
	)
}
