package repo

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

func (r *GormRepo) CreateRefreshToken(db *gorm.DB, t *models.RefreshToken) error {
	return db.Create(t).Error
}

// RefreshTokenForUpdate loads the stored token and locks its row where the dialect supports it.
func (r *GormRepo) RefreshTokenForUpdate(db *gorm.DB, tokenHash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	q := db
	if db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("token_hash = ?", tokenHash).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// RevokeRefreshToken marks the token revoked and reports whether it exists.
func (r *GormRepo) RevokeRefreshToken(db *gorm.DB, tokenHash string) (bool, error) {
	res := db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		UpdateColumn("is_revoked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
