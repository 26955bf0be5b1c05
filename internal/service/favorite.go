package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
	"github.com/Skotchmaster/lapcraft/internal/repo"
)

type FavoriteService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

type FavoriteEntry struct {
	Favorite models.Favorite
	Product  *models.ProductView
}

// List returns the user's favorites joined with product data, plus the stored favorites count.
func (s *FavoriteService) List(ctx context.Context, userID uuid.UUID) ([]FavoriteEntry, int64, error) {
	db := s.Repo.Conn(ctx)
	favs, err := s.Repo.Favorites(db, userID)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountFavorites(db, userID)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ProductID)
	}
	views, err := s.Repo.ProductViewsByIDs(db, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uuid.UUID]*models.ProductView, len(views))
	for i := range views {
		byID[views[i].ID] = &views[i]
	}

	out := make([]FavoriteEntry, 0, len(favs))
	for _, f := range favs {
		out = append(out, FavoriteEntry{Favorite: f, Product: byID[f.ProductID]})
	}
	return out, total, nil
}

func (s *FavoriteService) Add(ctx context.Context, userID, productID uuid.UUID) (*models.Favorite, error) {
	fav := &models.Favorite{UserID: userID, ProductID: productID}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.Repo.ProductByID(tx, productID); err != nil {
			return notFound(err, "product not found")
		}
		exists, err := s.Repo.IsFavorite(tx, userID, productID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("product already in favorites: %w", ErrConflict)
		}
		if err := s.Repo.AddFavorite(tx, fav); err != nil {
			return conflictOnDuplicate(err, "product already in favorites")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicUserEvents, userID.String(), map[string]any{
		"type":        "favorite_added",
		"user_id":     userID,
		"product_id":  productID,
		"favorite_id": fav.ID,
	})
	return fav, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	ok, err := s.Repo.RemoveFavorite(s.Repo.Conn(ctx), userID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("product not found in favorites: %w", ErrNotFound)
	}
	publish(ctx, s.Events, TopicUserEvents, userID.String(), map[string]any{
		"type":       "favorite_removed",
		"user_id":    userID,
		"product_id": productID,
	})
	return nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.Repo.IsFavorite(s.Repo.Conn(ctx), userID, productID)
}

func (s *FavoriteService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.Repo.ClearFavorites(s.Repo.Conn(ctx), userID); err != nil {
		return err
	}
	publish(ctx, s.Events, TopicUserEvents, userID.String(), map[string]any{
		"type":    "favorites_cleared",
		"user_id": userID,
	})
	return nil
}
