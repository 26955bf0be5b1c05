package repo

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

// AddToCart merges into an existing (user, product) row by incrementing quantity, or inserts one.
func (r *GormRepo) AddToCart(db *gorm.DB, item *models.CartItem) error {
	res := db.Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
		Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return db.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).First(item).Error
	}
	return db.Create(item).Error
}

func (r *GormRepo) SetCartQuantity(db *gorm.DB, userID, productID uuid.UUID, quantity int) (bool, error) {
	res := db.Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) RemoveFromCart(db *gorm.DB, userID, productID uuid.UUID) (bool, error) {
	res := db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) ClearCart(db *gorm.DB, userID uuid.UUID) error {
	return db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func (r *GormRepo) CartLines(db *gorm.DB, userID uuid.UUID) ([]models.CartLine, error) {
	lines := make([]models.CartLine, 0)
	if err := db.Table("cart_items").
		Select("cart_items.product_id, products.title, products.description, products.price, products.image_urls, cart_items.quantity").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.created_at ASC, cart_items.id ASC").
		Scan(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// CartTotals returns the sum of price*quantity and the sum of quantities.
func (r *GormRepo) CartTotals(db *gorm.DB, userID uuid.UUID) (float64, int64, error) {
	var row struct {
		Total float64
		Items int64
	}
	if err := db.Table("cart_items").
		Select("COALESCE(SUM(products.price * cart_items.quantity), 0) AS total, COALESCE(SUM(cart_items.quantity), 0) AS items").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Total, row.Items, nil
}
