package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
	"github.com/Skotchmaster/lapcraft/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

type CartView struct {
	Lines      []models.CartLine
	Total      float64
	ItemsCount int64
}

func (s *CartService) checkStock(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	p, err := s.Repo.ProductByID(tx, productID)
	if err != nil {
		return notFound(err, "product not found")
	}
	if p.StockQuantity < quantity {
		return fmt.Errorf("not enough stock, available: %d: %w", p.StockQuantity, ErrValidation)
	}
	return nil
}

// Add puts quantity units of the product into the cart. An existing line is merged.
// Stock is checked against the requested quantity only.
func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be >= 1: %w", ErrValidation)
	}
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.checkStock(tx, productID, quantity); err != nil {
			return err
		}
		return s.Repo.AddToCart(tx, item)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicCartEvents, userID.String(), map[string]any{
		"type":       "cart_item_added",
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return item, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be >= 1: %w", ErrValidation)
	}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.checkStock(tx, productID, quantity); err != nil {
			return err
		}
		ok, err := s.Repo.SetCartQuantity(tx, userID, productID, quantity)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("product not found in cart: %w", ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	publish(ctx, s.Events, TopicCartEvents, userID.String(), map[string]any{
		"type":       "cart_item_updated",
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return nil
}

func (s *CartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	ok, err := s.Repo.RemoveFromCart(s.Repo.Conn(ctx), userID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("product not found in cart: %w", ErrNotFound)
	}
	publish(ctx, s.Events, TopicCartEvents, userID.String(), map[string]any{
		"type":       "cart_item_removed",
		"user_id":    userID,
		"product_id": productID,
	})
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.Repo.ClearCart(s.Repo.Conn(ctx), userID); err != nil {
		return err
	}
	publish(ctx, s.Events, TopicCartEvents, userID.String(), map[string]any{
		"type":    "cart_cleared",
		"user_id": userID,
	})
	return nil
}

func (s *CartService) Cart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	db := s.Repo.Conn(ctx)
	lines, err := s.Repo.CartLines(db, userID)
	if err != nil {
		return nil, err
	}
	total, items, err := s.Repo.CartTotals(db, userID)
	if err != nil {
		return nil, err
	}
	return &CartView{Lines: lines, Total: total, ItemsCount: items}, nil
}

func (s *CartService) Summary(ctx context.Context, userID uuid.UUID) (float64, int64, error) {
	return s.Repo.CartTotals(s.Repo.Conn(ctx), userID)
}
