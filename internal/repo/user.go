package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

func (r *GormRepo) UserByEmail(db *gorm.DB, email string) (*models.User, error) {
	var u models.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UserByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) EmailTaken(db *gorm.DB, email string) (bool, error) {
	var n int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateUser(db *gorm.DB, u *models.User) error {
	return db.Create(u).Error
}

func (r *GormRepo) TouchLastLogin(db *gorm.DB, id uuid.UUID, at time.Time) error {
	return db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login", at).Error
}
