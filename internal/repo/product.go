package repo

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

// ProductFilter is the full set of list predicates. Fields holds direct column matches:
// a string value matches as a case-insensitive substring, a slice as membership, anything
// else as equality. Keys must be in filterableColumns.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Title      string
	MinPrice   *float64
	MaxPrice   *float64
	Fields     map[string]any
}

var filterableColumns = map[string]string{
	"article":        "products.article",
	"title":          "products.title",
	"description":    "products.description",
	"price":          "products.price",
	"stock_quantity": "products.stock_quantity",
	"category_id":    "products.category_id",
}

var sortableColumns = map[string]string{
	"id":             "products.id",
	"article":        "products.article",
	"title":          "products.title",
	"price":          "products.price",
	"stock_quantity": "products.stock_quantity",
	"created_at":     "products.created_at",
	"category_name":  "categories.name",
}

func IsFilterableColumn(name string) bool {
	_, ok := filterableColumns[name]
	return ok
}

// ProductSort falls back to id ascending for an unknown field.
type ProductSort struct {
	Field string
	Desc  bool
}

func (s ProductSort) clause() string {
	col, ok := sortableColumns[s.Field]
	if !ok {
		return "products.id ASC"
	}
	if s.Desc {
		return col + " DESC, products.id ASC"
	}
	return col + " ASC, products.id ASC"
}

const productViewSelect = "products.*, categories.name AS category_name"
const productViewJoin = "LEFT JOIN categories ON categories.id = products.category_id"

func (r *GormRepo) ProductByID(db *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ProductViewByID(db *gorm.DB, id uuid.UUID) (*models.ProductView, error) {
	var rows []models.ProductView
	if err := db.Table("products").
		Select(productViewSelect).
		Joins(productViewJoin).
		Where("products.id = ?", id).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *GormRepo) ProductByArticle(db *gorm.DB, article int64) (*models.Product, error) {
	var p models.Product
	if err := db.Where("article = ?", article).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ArticleTaken(db *gorm.DB, article int64, except uuid.UUID) (bool, error) {
	var n int64
	q := db.Model(&models.Product{}).Where("article = ?", article)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// NextArticle returns max(article)+1, or 1 on an empty table. Two concurrent writers can read
// the same value; the unique index on article rejects the second insert.
func (r *GormRepo) NextArticle(db *gorm.DB) (int64, error) {
	var next int64
	if err := db.Model(&models.Product{}).Select("COALESCE(MAX(article), 0) + 1").Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (r *GormRepo) CreateProduct(db *gorm.DB, p *models.Product) error {
	return db.Create(p).Error
}

func (r *GormRepo) UpdateProduct(db *gorm.DB, p *models.Product) error {
	return db.Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"article":        p.Article,
		"title":          p.Title,
		"description":    p.Description,
		"price":          p.Price,
		"category_id":    p.CategoryID,
		"image_urls":     p.ImageURLs,
		"stock_quantity": p.StockQuantity,
	}).Error
}

func (r *GormRepo) DeleteProduct(db *gorm.DB, id uuid.UUID) error {
	res := db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// productScope turns a filter into a reusable scope. The category subtree is resolved once
// here so the page query and the count query share the exact same predicates.
func (r *GormRepo) productScope(db *gorm.DB, f ProductFilter) (func(*gorm.DB) *gorm.DB, error) {
	var subtree []uuid.UUID
	if f.CategoryID != nil {
		ids, err := r.SubtreeIDs(db, *f.CategoryID)
		if err != nil {
			return nil, err
		}
		subtree = ids
	}
	for k := range f.Fields {
		if !IsFilterableColumn(k) {
			return nil, fmt.Errorf("unknown product filter %q", k)
		}
	}

	return func(q *gorm.DB) *gorm.DB {
		if subtree != nil {
			q = q.Where("products.category_id IN ?", subtree)
		}
		if f.Title != "" {
			where, args := containsAny(q, f.Title, "products.title")
			q = q.Where(where, args...)
		}
		if f.MinPrice != nil {
			q = q.Where("products.price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			q = q.Where("products.price <= ?", *f.MaxPrice)
		}
		for k, v := range f.Fields {
			q = applyFieldMatch(q, filterableColumns[k], v)
		}
		return q
	}, nil
}

func applyFieldMatch(q *gorm.DB, col string, v any) *gorm.DB {
	if v == nil {
		return q
	}
	if s, ok := v.(string); ok {
		where, args := containsAny(q, s, col)
		return q.Where(where, args...)
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice {
		return q.Where(col+" IN ?", v)
	}
	return q.Where(col+" = ?", v)
}

// FindProducts returns one page of the filtered, sorted result set plus the unpaginated total.
func (r *GormRepo) FindProducts(db *gorm.DB, f ProductFilter, s ProductSort, p Page) ([]models.ProductView, int64, error) {
	scope, err := r.productScope(db, f)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.Model(&models.Product{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]models.ProductView, 0, p.Limit)
	if err := db.Table("products").
		Select(productViewSelect).
		Joins(productViewJoin).
		Scopes(scope).
		Order(s.clause()).
		Offset(p.Offset).
		Limit(p.Limit).
		Scan(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ProductViewsByIDs loads products and returns them in the order of ids. Unknown ids are skipped.
func (r *GormRepo) ProductViewsByIDs(db *gorm.DB, ids []uuid.UUID) ([]models.ProductView, error) {
	out := make([]models.ProductView, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductView
	if err := db.Table("products").
		Select(productViewSelect).
		Joins(productViewJoin).
		Where("products.id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.ProductView, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// SearchProducts matches q as a case-insensitive substring of title or description.
func (r *GormRepo) SearchProducts(db *gorm.DB, q string, p Page) ([]models.ProductView, int64, error) {
	where, args := containsAny(db, q, "products.title", "products.description")

	var total int64
	if err := db.Model(&models.Product{}).Where(where, args...).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]models.ProductView, 0, p.Limit)
	if err := db.Table("products").
		Select(productViewSelect).
		Joins(productViewJoin).
		Where(where, args...).
		Order("products.title ASC, products.id ASC").
		Offset(p.Offset).
		Limit(p.Limit).
		Scan(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormRepo) ProductsInCategories(db *gorm.DB, categoryIDs []uuid.UUID) ([]models.ProductView, error) {
	items := make([]models.ProductView, 0)
	if len(categoryIDs) == 0 {
		return items, nil
	}
	if err := db.Table("products").
		Select(productViewSelect).
		Joins(productViewJoin).
		Where("products.category_id IN ?", categoryIDs).
		Order("products.id ASC").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CountProductsDirect(db *gorm.DB, categoryID uuid.UUID) (int64, error) {
	var n int64
	if err := db.Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
