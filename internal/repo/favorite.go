package repo

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

func (r *GormRepo) Favorites(db *gorm.DB, userID uuid.UUID) ([]models.Favorite, error) {
	favs := make([]models.Favorite, 0)
	if err := db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&favs).Error; err != nil {
		return nil, err
	}
	return favs, nil
}

func (r *GormRepo) IsFavorite(db *gorm.DB, userID, productID uuid.UUID) (bool, error) {
	var n int64
	if err := db.Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) AddFavorite(db *gorm.DB, fav *models.Favorite) error {
	return db.Create(fav).Error
}

func (r *GormRepo) RemoveFavorite(db *gorm.DB, userID, productID uuid.UUID) (bool, error) {
	res := db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) ClearFavorites(db *gorm.DB, userID uuid.UUID) error {
	return db.Where("user_id = ?", userID).Delete(&models.Favorite{}).Error
}

func (r *GormRepo) CountFavorites(db *gorm.DB, userID uuid.UUID) (int64, error) {
	var n int64
	if err := db.Model(&models.Favorite{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
