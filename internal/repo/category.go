package repo

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

func (r *GormRepo) CategoryByID(db *gorm.DB, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	if err := db.Where("id = ?", id).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) CategoryNameTaken(db *gorm.DB, name string, except uuid.UUID) (bool, error) {
	var n int64
	q := db.Model(&models.Category{}).Where("name = ?", name)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateCategory(db *gorm.DB, cat *models.Category) error {
	return db.Create(cat).Error
}

// UpdateCategory writes the editable columns. Counters are left to the recompute functions.
func (r *GormRepo) UpdateCategory(db *gorm.DB, cat *models.Category) error {
	return db.Model(&models.Category{}).Where("id = ?", cat.ID).Updates(map[string]any{
		"name":        cat.Name,
		"description": cat.Description,
		"parent_id":   cat.ParentID,
		"icon":        cat.Icon,
		"color":       cat.Color,
	}).Error
}

func (r *GormRepo) DeleteCategory(db *gorm.DB, id uuid.UUID) error {
	res := db.Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ListCategories(db *gorm.DB) ([]models.Category, error) {
	var cats []models.Category
	if err := db.Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) RootCategories(db *gorm.DB) ([]models.Category, error) {
	var cats []models.Category
	if err := db.Where("parent_id IS NULL").Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) ChildCategories(db *gorm.DB, parentID uuid.UUID) ([]models.Category, error) {
	var cats []models.Category
	if err := db.Where("parent_id = ?", parentID).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// SearchCategories matches term as a case-insensitive substring of name or description.
func (r *GormRepo) SearchCategories(db *gorm.DB, term string) ([]models.Category, error) {
	where, args := containsAny(db, term, "name", "description")
	var cats []models.Category
	if err := db.
		Where(where, args...).
		Order("name ASC").
		Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// SubtreeIDs returns id and every transitive descendant, breadth first. Each level is
// fetched with one query; the visited set stops the walk on a malformed cyclic chain.
func (r *GormRepo) SubtreeIDs(db *gorm.DB, id uuid.UUID) ([]uuid.UUID, error) {
	visited := map[uuid.UUID]struct{}{id: {}}
	out := []uuid.UUID{id}
	frontier := []uuid.UUID{id}

	for len(frontier) > 0 {
		var children []uuid.UUID
		if err := db.Model(&models.Category{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, c := range children {
			if _, seen := visited[c]; seen {
				continue
			}
			visited[c] = struct{}{}
			out = append(out, c)
			frontier = append(frontier, c)
		}
	}
	return out, nil
}

func (r *GormRepo) CountProductsIn(db *gorm.DB, categoryIDs []uuid.UUID) (int64, error) {
	var n int64
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	if err := db.Model(&models.Product{}).Where("category_id IN ?", categoryIDs).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormRepo) CountChildren(db *gorm.DB, id uuid.UUID) (int64, error) {
	var n int64
	if err := db.Model(&models.Category{}).Where("parent_id = ?", id).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// RecomputeProductCount sets product_count to the number of products anywhere in the subtree.
func (r *GormRepo) RecomputeProductCount(db *gorm.DB, id uuid.UUID) (int64, error) {
	ids, err := r.SubtreeIDs(db, id)
	if err != nil {
		return 0, err
	}
	n, err := r.CountProductsIn(db, ids)
	if err != nil {
		return 0, err
	}
	if err := db.Model(&models.Category{}).Where("id = ?", id).UpdateColumn("product_count", n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// RecomputeChildrenCount sets children_count to the number of direct children.
func (r *GormRepo) RecomputeChildrenCount(db *gorm.DB, id uuid.UUID) (int64, error) {
	n, err := r.CountChildren(db, id)
	if err != nil {
		return 0, err
	}
	if err := db.Model(&models.Category{}).Where("id = ?", id).UpdateColumn("children_count", n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// PropagateProductCountUpward recomputes product_count for id and each ancestor up to the root.
func (r *GormRepo) PropagateProductCountUpward(db *gorm.DB, id uuid.UUID) error {
	visited := make(map[uuid.UUID]struct{})
	cur := &id
	for cur != nil {
		if _, seen := visited[*cur]; seen {
			return nil
		}
		visited[*cur] = struct{}{}

		if _, err := r.RecomputeProductCount(db, *cur); err != nil {
			return err
		}

		var parent struct{ ParentID *uuid.UUID }
		res := db.Model(&models.Category{}).Select("parent_id").Where("id = ?", *cur).Limit(1).Scan(&parent)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		cur = parent.ParentID
	}
	return nil
}

// RecomputeAll refreshes both counters of every category independently and returns how many were touched.
func (r *GormRepo) RecomputeAll(db *gorm.DB) (int, error) {
	var ids []uuid.UUID
	if err := db.Model(&models.Category{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := r.RecomputeProductCount(db, id); err != nil {
			return 0, err
		}
		if _, err := r.RecomputeChildrenCount(db, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// CategoryTree loads every category in one query and nests them under their parents.
func (r *GormRepo) CategoryTree(db *gorm.DB) ([]*models.CategoryNode, error) {
	cats, err := r.ListCategories(db)
	if err != nil {
		return nil, err
	}
	return BuildTree(cats), nil
}

// BuildTree nests categories iteratively. Children keep the input order. Nodes whose parent is
// missing from the input become roots; nodes only reachable through a cycle are dropped.
func BuildTree(cats []models.Category) []*models.CategoryNode {
	nodes := make(map[uuid.UUID]*models.CategoryNode, len(cats))
	for _, c := range cats {
		nodes[c.ID] = &models.CategoryNode{Category: c, Children: []*models.CategoryNode{}}
	}

	children := make(map[uuid.UUID][]*models.CategoryNode, len(cats))
	roots := make([]*models.CategoryNode, 0)
	for _, c := range cats {
		n := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if _, ok := nodes[*c.ParentID]; !ok {
			roots = append(roots, n)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], n)
	}

	attached := make(map[uuid.UUID]struct{}, len(cats))
	stack := append([]*models.CategoryNode(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := attached[n.ID]; seen {
			continue
		}
		attached[n.ID] = struct{}{}
		for _, ch := range children[n.ID] {
			if _, seen := attached[ch.ID]; seen {
				continue
			}
			n.Children = append(n.Children, ch)
			stack = append(stack, ch)
		}
	}
	return roots
}
