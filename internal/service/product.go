package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
	"github.com/Skotchmaster/lapcraft/internal/repo"
	"github.com/Skotchmaster/lapcraft/internal/util"
	"github.com/Skotchmaster/lapcraft/pkg/logging"
)

type ProductService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
	Index  ProductIndex
	Cache  TreeCache
}

type ListQuery struct {
	Page       int
	Count      int
	CategoryID *uuid.UUID
	Name       string
	MinPrice   *float64
	MaxPrice   *float64
	Sort       string
	Order      string
	Fields     map[string]any
}

type ProductPage struct {
	Products []models.ProductView
	Page     int
	Count    int
	Total    int64
}

type ProductInput struct {
	Article       *int64
	Title         string
	Description   string
	Price         float64
	CategoryID    *uuid.UUID
	ImageURLs     []string
	StockQuantity int
}

// ProductPatch carries only the fields present in the request. CategorySet with a nil
// CategoryID detaches the product from its category.
type ProductPatch struct {
	Article       *int64
	Title         *string
	Description   *string
	Price         *float64
	CategorySet   bool
	CategoryID    *uuid.UUID
	ImageURLs     *[]string
	StockQuantity *int
}

func (s *ProductService) List(ctx context.Context, q ListQuery) (*ProductPage, error) {
	if q.Page < 1 || q.Count < 1 || q.Count > util.MaxPageSize {
		return nil, fmt.Errorf("%s: %w", util.ErrBadPage.Error(), ErrValidation)
	}
	order := strings.ToLower(q.Order)
	if order != "" && order != "asc" && order != "desc" {
		return nil, fmt.Errorf("order must be asc or desc: %w", ErrValidation)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, fmt.Errorf("min_price must not exceed max_price: %w", ErrValidation)
	}
	for k := range q.Fields {
		if !repo.IsFilterableColumn(k) {
			return nil, fmt.Errorf("unknown filter field %q: %w", k, ErrValidation)
		}
	}

	db := s.Repo.Conn(ctx)
	if q.CategoryID != nil {
		if _, err := s.Repo.CategoryByID(db, *q.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("category not found: %w", ErrValidation)
			}
			return nil, err
		}
	}

	offset, limit := util.Calculate(q.Page, q.Count)
	items, total, err := s.Repo.FindProducts(db,
		repo.ProductFilter{
			CategoryID: q.CategoryID,
			Title:      strings.TrimSpace(q.Name),
			MinPrice:   q.MinPrice,
			MaxPrice:   q.MaxPrice,
			Fields:     q.Fields,
		},
		repo.ProductSort{Field: q.Sort, Desc: order == "desc"},
		repo.Page{Offset: offset, Limit: limit},
	)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: items, Page: q.Page, Count: q.Count, Total: total}, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.ProductView, error) {
	p, err := s.Repo.ProductViewByID(s.Repo.Conn(ctx), id)
	if err != nil {
		return nil, notFound(err, "product not found")
	}
	return p, nil
}

func (s *ProductService) GetByArticle(ctx context.Context, article int64) (*models.ProductView, error) {
	db := s.Repo.Conn(ctx)
	p, err := s.Repo.ProductByArticle(db, article)
	if err != nil {
		return nil, notFound(err, "product not found")
	}
	view, err := s.Repo.ProductViewByID(db, p.ID)
	if err != nil {
		return nil, notFound(err, "product not found")
	}
	return view, nil
}

func validateProduct(title string, price float64, stock int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required: %w", ErrValidation)
	}
	if price < 0 {
		return fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}
	if stock < 0 {
		return fmt.Errorf("stock_quantity must be >= 0: %w", ErrValidation)
	}
	return nil
}

func (s *ProductService) requireCategory(tx *gorm.DB, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.Repo.CategoryByID(tx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("category not found: %w", ErrValidation)
		}
		return err
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.ProductView, error) {
	if err := validateProduct(in.Title, in.Price, in.StockQuantity); err != nil {
		return nil, err
	}
	if in.Article != nil && *in.Article < 1 {
		return nil, fmt.Errorf("article must be positive: %w", ErrValidation)
	}

	p := &models.Product{
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Price:         in.Price,
		CategoryID:    in.CategoryID,
		ImageURLs:     models.StringList(in.ImageURLs),
		StockQuantity: in.StockQuantity,
	}
	var view *models.ProductView
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.requireCategory(tx, p.CategoryID); err != nil {
			return err
		}
		if in.Article != nil {
			taken, err := s.Repo.ArticleTaken(tx, *in.Article, uuid.Nil)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("product with this article already exists: %w", ErrConflict)
			}
			p.Article = *in.Article
		} else {
			next, err := s.Repo.NextArticle(tx)
			if err != nil {
				return err
			}
			p.Article = next
		}

		if err := s.Repo.CreateProduct(tx, p); err != nil {
			return conflictOnDuplicate(err, "product with this article already exists")
		}
		if p.CategoryID != nil {
			if err := s.Repo.PropagateProductCountUpward(tx, *p.CategoryID); err != nil {
				return err
			}
		}
		var err error
		view, err = s.Repo.ProductViewByID(tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, view, p.CategoryID != nil)
	publish(ctx, s.Events, TopicProductEvents, view.ID.String(), map[string]any{
		"type":        "product_created",
		"product_id":  view.ID,
		"article":     view.Article,
		"title":       view.Title,
		"price":       view.Price,
		"category_id": view.CategoryID,
	})
	return view, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.ProductView, error) {
	var (
		view          *models.ProductView
		categoryMoved bool
	)
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		p, err := s.Repo.ProductByID(tx, id)
		if err != nil {
			return notFound(err, "product not found")
		}
		oldCategory := p.CategoryID

		if patch.Article != nil && *patch.Article != p.Article {
			if *patch.Article < 1 {
				return fmt.Errorf("article must be positive: %w", ErrValidation)
			}
			taken, err := s.Repo.ArticleTaken(tx, *patch.Article, id)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("product with this article already exists: %w", ErrConflict)
			}
			p.Article = *patch.Article
		}
		if patch.Title != nil {
			p.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.StockQuantity != nil {
			p.StockQuantity = *patch.StockQuantity
		}
		if patch.ImageURLs != nil {
			p.ImageURLs = models.StringList(*patch.ImageURLs)
		}
		if err := validateProduct(p.Title, p.Price, p.StockQuantity); err != nil {
			return err
		}

		categoryMoved = patch.CategorySet && !sameParent(patch.CategoryID, oldCategory)
		if categoryMoved {
			if err := s.requireCategory(tx, patch.CategoryID); err != nil {
				return err
			}
			p.CategoryID = patch.CategoryID
		}

		if err := s.Repo.UpdateProduct(tx, p); err != nil {
			return conflictOnDuplicate(err, "product with this article already exists")
		}

		if categoryMoved {
			for _, cid := range []*uuid.UUID{oldCategory, p.CategoryID} {
				if cid == nil {
					continue
				}
				if err := s.Repo.PropagateProductCountUpward(tx, *cid); err != nil {
					return err
				}
			}
		}
		view, err = s.Repo.ProductViewByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, view, categoryMoved)
	publish(ctx, s.Events, TopicProductEvents, view.ID.String(), map[string]any{
		"type":        "product_updated",
		"product_id":  view.ID,
		"article":     view.Article,
		"title":       view.Title,
		"price":       view.Price,
		"category_id": view.CategoryID,
	})
	return view, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	var hadCategory bool
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		p, err := s.Repo.ProductByID(tx, id)
		if err != nil {
			return notFound(err, "product not found")
		}
		if err := s.Repo.DeleteProduct(tx, id); err != nil {
			return notFound(err, "product not found")
		}
		if p.CategoryID != nil {
			hadCategory = true
			return s.Repo.PropagateProductCountUpward(tx, *p.CategoryID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if hadCategory {
		invalidateTree(ctx, s.Cache)
	}
	s.unindex(ctx, id)
	publish(ctx, s.Events, TopicProductEvents, id.String(), map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})
	return nil
}

// Search uses the full-text index when one is configured and falls back to a substring
// match in the database when it is absent or failing. Index hits whose product is no longer
// stored are dropped from the page and subtracted from the index total.
func (s *ProductService) Search(ctx context.Context, q string, page, count int) (*ProductPage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("search query is required: %w", ErrValidation)
	}
	if page < 1 || count < 1 || count > util.MaxPageSize {
		return nil, fmt.Errorf("%s: %w", util.ErrBadPage.Error(), ErrValidation)
	}
	offset, limit := util.Calculate(page, count)
	db := s.Repo.Conn(ctx)

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.ProductViewsByIDs(db, ids)
			if err != nil {
				return nil, err
			}
			if stale := len(ids) - len(items); stale > 0 {
				logging.FromContext(ctx).Warn("product_index_stale", "query", q, "missing", stale)
				total -= int64(stale)
			}
			return &ProductPage{Products: items, Page: page, Count: count, Total: total}, nil
		}
		logging.FromContext(ctx).Warn("product_index_search_error", "query", q, "error", err)
	}

	items, total, err := s.Repo.SearchProducts(db, q, repo.Page{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: items, Page: page, Count: count, Total: total}, nil
}

func (s *ProductService) afterWrite(ctx context.Context, view *models.ProductView, countersChanged bool) {
	if countersChanged {
		invalidateTree(ctx, s.Cache)
	}
	if s.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.Index.IndexProduct(ctx, *view); err != nil {
		logging.FromContext(ctx).Error("product_index_error", "product_id", view.ID, "error", err)
	}
}

func (s *ProductService) unindex(ctx context.Context, id uuid.UUID) {
	if s.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.Index.DeleteProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Error("product_unindex_error", "product_id", id, "error", err)
	}
}
