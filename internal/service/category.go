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
	"github.com/Skotchmaster/lapcraft/pkg/logging"
)

type CategoryService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
	Cache  TreeCache
}

type CategoryInput struct {
	Name        string
	Description string
	ParentID    *uuid.UUID
	Icon        string
	Color       string
}

// CategoryPatch carries only the fields present in the request. ParentSet with a nil
// ParentID moves the category to the root.
type CategoryPatch struct {
	Name        *string
	Description *string
	Icon        *string
	Color       *string
	ParentSet   bool
	ParentID    *uuid.UUID
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}

	cat := &models.Category{
		Name:        name,
		Description: in.Description,
		ParentID:    in.ParentID,
		Icon:        in.Icon,
		Color:       in.Color,
	}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		taken, err := s.Repo.CategoryNameTaken(tx, name, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("category with this name already exists: %w", ErrConflict)
		}
		if cat.ParentID != nil {
			if _, err := s.Repo.CategoryByID(tx, *cat.ParentID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("parent category not found: %w", ErrValidation)
				}
				return err
			}
		}
		if err := s.Repo.CreateCategory(tx, cat); err != nil {
			return conflictOnDuplicate(err, "category with this name already exists")
		}
		if cat.ParentID != nil {
			if _, err := s.Repo.RecomputeChildrenCount(tx, *cat.ParentID); err != nil {
				return err
			}
		}
		fresh, err := s.Repo.CategoryByID(tx, cat.ID)
		if err != nil {
			return err
		}
		cat = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateTree(ctx, s.Cache)
	publish(ctx, s.Events, TopicCategoryEvents, cat.ID.String(), map[string]any{
		"type":        "category_created",
		"category_id": cat.ID,
		"name":        cat.Name,
		"parent_id":   cat.ParentID,
	})
	return cat, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, p CategoryPatch) (*models.Category, error) {
	var cat *models.Category
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.Repo.CategoryByID(tx, id)
		if err != nil {
			return notFound(err, "category not found")
		}
		oldParent := existing.ParentID

		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			if name == "" {
				return fmt.Errorf("name must not be empty: %w", ErrValidation)
			}
			if name != existing.Name {
				taken, err := s.Repo.CategoryNameTaken(tx, name, id)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("category with this name already exists: %w", ErrConflict)
				}
			}
			existing.Name = name
		}

		parentChanged := p.ParentSet && !sameParent(p.ParentID, oldParent)
		if parentChanged && p.ParentID != nil {
			if err := s.checkNewParent(tx, id, *p.ParentID); err != nil {
				return err
			}
		}
		if parentChanged {
			existing.ParentID = p.ParentID
		}
		if p.Description != nil {
			existing.Description = *p.Description
		}
		if p.Icon != nil {
			existing.Icon = *p.Icon
		}
		if p.Color != nil {
			existing.Color = *p.Color
		}

		if err := s.Repo.UpdateCategory(tx, existing); err != nil {
			return conflictOnDuplicate(err, "category with this name already exists")
		}

		if parentChanged {
			for _, pid := range []*uuid.UUID{oldParent, existing.ParentID} {
				if pid == nil {
					continue
				}
				if _, err := s.Repo.RecomputeChildrenCount(tx, *pid); err != nil {
					return err
				}
				// the moved subtree's products leave one ancestor chain and join another
				if err := s.Repo.PropagateProductCountUpward(tx, *pid); err != nil {
					return err
				}
			}
		}

		cat, err = s.Repo.CategoryByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidateTree(ctx, s.Cache)
	publish(ctx, s.Events, TopicCategoryEvents, cat.ID.String(), map[string]any{
		"type":        "category_updated",
		"category_id": cat.ID,
		"name":        cat.Name,
		"parent_id":   cat.ParentID,
	})
	return cat, nil
}

func (s *CategoryService) checkNewParent(tx *gorm.DB, id, parentID uuid.UUID) error {
	if parentID == id {
		return fmt.Errorf("category cannot be parent of itself: %w", ErrConflict)
	}
	if _, err := s.Repo.CategoryByID(tx, parentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("parent category not found: %w", ErrValidation)
		}
		return err
	}
	subtree, err := s.Repo.SubtreeIDs(tx, id)
	if err != nil {
		return err
	}
	for _, d := range subtree {
		if d == parentID {
			return fmt.Errorf("category cannot be moved under its own subcategory: %w", ErrConflict)
		}
	}
	return nil
}

func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		cat, err := s.Repo.CategoryByID(tx, id)
		if err != nil {
			return notFound(err, "category not found")
		}
		products, err := s.Repo.CountProductsDirect(tx, id)
		if err != nil {
			return err
		}
		if products > 0 {
			return fmt.Errorf("cannot delete category with %d products: %w", products, ErrConflict)
		}
		children, err := s.Repo.CountChildren(tx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("cannot delete category with %d subcategories: %w", children, ErrConflict)
		}
		if err := s.Repo.DeleteCategory(tx, id); err != nil {
			return notFound(err, "category not found")
		}
		if cat.ParentID != nil {
			if _, err := s.Repo.RecomputeChildrenCount(tx, *cat.ParentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateTree(ctx, s.Cache)
	publish(ctx, s.Events, TopicCategoryEvents, id.String(), map[string]any{
		"type":        "category_deleted",
		"category_id": id,
	})
	return nil
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	cat, err := s.Repo.CategoryByID(s.Repo.Conn(ctx), id)
	if err != nil {
		return nil, notFound(err, "category not found")
	}
	return cat, nil
}

// GetWithChildren returns the category with its direct children attached.
func (s *CategoryService) GetWithChildren(ctx context.Context, id uuid.UUID) (*models.CategoryNode, error) {
	db := s.Repo.Conn(ctx)
	cat, err := s.Repo.CategoryByID(db, id)
	if err != nil {
		return nil, notFound(err, "category not found")
	}
	children, err := s.Repo.ChildCategories(db, id)
	if err != nil {
		return nil, err
	}
	node := &models.CategoryNode{Category: *cat, Children: make([]*models.CategoryNode, 0, len(children))}
	for _, ch := range children {
		node.Children = append(node.Children, &models.CategoryNode{Category: ch, Children: []*models.CategoryNode{}})
	}
	return node, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(s.Repo.Conn(ctx))
}

// ListWithChildren returns every category, each with its direct children attached.
func (s *CategoryService) ListWithChildren(ctx context.Context) ([]*models.CategoryNode, error) {
	cats, err := s.Repo.ListCategories(s.Repo.Conn(ctx))
	if err != nil {
		return nil, err
	}
	byParent := make(map[uuid.UUID][]models.Category)
	for _, c := range cats {
		if c.ParentID != nil {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}
	out := make([]*models.CategoryNode, 0, len(cats))
	for _, c := range cats {
		node := &models.CategoryNode{Category: c, Children: make([]*models.CategoryNode, 0, len(byParent[c.ID]))}
		for _, ch := range byParent[c.ID] {
			node.Children = append(node.Children, &models.CategoryNode{Category: ch, Children: []*models.CategoryNode{}})
		}
		out = append(out, node)
	}
	return out, nil
}

func (s *CategoryService) Roots(ctx context.Context) ([]models.Category, error) {
	return s.Repo.RootCategories(s.Repo.Conn(ctx))
}

func (s *CategoryService) Children(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	return s.Repo.ChildCategories(s.Repo.Conn(ctx), id)
}

func (s *CategoryService) Search(ctx context.Context, term string) ([]models.Category, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search term is required: %w", ErrValidation)
	}
	return s.Repo.SearchCategories(s.Repo.Conn(ctx), term)
}

func (s *CategoryService) Tree(ctx context.Context) ([]*models.CategoryNode, error) {
	l := logging.FromContext(ctx).With("svc", "category.tree")
	if s.Cache != nil {
		tree, ok, err := s.Cache.Tree(ctx)
		if err != nil {
			l.Warn("tree_cache_read_error", "error", err)
		} else if ok {
			return tree, nil
		}
	}

	tree, err := s.Repo.CategoryTree(s.Repo.Conn(ctx))
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.StoreTree(ctx, tree); err != nil {
			l.Warn("tree_cache_store_error", "error", err)
		}
	}
	return tree, nil
}

// RecomputeCounters refreshes both counters of one category from current data.
func (s *CategoryService) RecomputeCounters(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var cat *models.Category
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.Repo.CategoryByID(tx, id); err != nil {
			return notFound(err, "category not found")
		}
		if _, err := s.Repo.RecomputeProductCount(tx, id); err != nil {
			return err
		}
		if _, err := s.Repo.RecomputeChildrenCount(tx, id); err != nil {
			return err
		}
		var err error
		cat, err = s.Repo.CategoryByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	invalidateTree(ctx, s.Cache)
	return cat, nil
}

func (s *CategoryService) RecomputeAll(ctx context.Context) (int, error) {
	var n int
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		n, err = s.Repo.RecomputeAll(tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	invalidateTree(ctx, s.Cache)
	return n, nil
}

// Products lists products assigned to the category, optionally including every subcategory.
func (s *CategoryService) Products(ctx context.Context, id uuid.UUID, includeSubcategories bool) ([]models.ProductView, error) {
	db := s.Repo.Conn(ctx)
	if _, err := s.Repo.CategoryByID(db, id); err != nil {
		return nil, notFound(err, "category not found")
	}
	ids := []uuid.UUID{id}
	if includeSubcategories {
		var err error
		ids, err = s.Repo.SubtreeIDs(db, id)
		if err != nil {
			return nil, err
		}
	}
	return s.Repo.ProductsInCategories(db, ids)
}
