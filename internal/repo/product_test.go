package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestNextArticle(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	next, err := r.NextArticle(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, next)

	mustProduct(t, db, 7, "a", 1, nil)
	mustProduct(t, db, 3, "b", 1, nil)

	next, err = r.NextArticle(db)
	require.NoError(t, err)
	assert.EqualValues(t, 8, next)
}

func TestCreateProduct_DuplicateArticle(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	mustProduct(t, db, 1, "a", 1, nil)
	err := r.CreateProduct(db, &models.Product{Article: 1, Title: "b", Price: 1})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestFindProducts_Pagination(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	for i := 1; i <= 25; i++ {
		mustProduct(t, db, int64(i), fmt.Sprintf("item %02d", i), float64(i), nil)
	}

	items, total, err := r.FindProducts(db, ProductFilter{}, ProductSort{Field: "article"}, Page{Offset: 10, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, items, 10)
	for i, it := range items {
		assert.EqualValues(t, 11+i, it.Article)
	}

	items, _, err = r.FindProducts(db, ProductFilter{}, ProductSort{Field: "price", Desc: true}, Page{Offset: 0, Limit: 3})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.EqualValues(t, 25, items[0].Article)
	assert.EqualValues(t, 23, items[2].Article)
}

func TestFindProducts_UnknownSortFallsBackToID(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	for i := 1; i <= 5; i++ {
		mustProduct(t, db, int64(i), "x", 1, nil)
	}

	byID, _, err := r.FindProducts(db, ProductFilter{}, ProductSort{Field: "id"}, Page{Limit: 10})
	require.NoError(t, err)
	unknown, _, err := r.FindProducts(db, ProductFilter{}, ProductSort{Field: "drop table", Desc: true}, Page{Limit: 10})
	require.NoError(t, err)

	require.Len(t, unknown, 5)
	for i := range byID {
		assert.Equal(t, byID[i].ID, unknown[i].ID)
	}
}

func TestFindProducts_Filters(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	laptops := mustCategory(t, db, "laptops", nil)
	gaming := mustCategory(t, db, "gaming", laptops)
	phones := mustCategory(t, db, "phones", nil)

	mustProduct(t, db, 1, "Nitro Gaming Laptop", 1200, gaming)
	mustProduct(t, db, 2, "Office Laptop", 600, laptops)
	mustProduct(t, db, 3, "Budget Phone", 150, phones)
	mustProduct(t, db, 4, "Laptop Bag", 40, nil)

	tests := []struct {
		name     string
		filter   ProductFilter
		articles []int64
	}{
		{name: "no filter", filter: ProductFilter{}, articles: []int64{1, 2, 3, 4}},
		{name: "category expands subtree", filter: ProductFilter{CategoryID: &laptops.ID}, articles: []int64{1, 2}},
		{name: "leaf category", filter: ProductFilter{CategoryID: &gaming.ID}, articles: []int64{1}},
		{name: "title substring case-insensitive", filter: ProductFilter{Title: "LAPTOP"}, articles: []int64{1, 2, 4}},
		{name: "price bounds inclusive", filter: ProductFilter{MinPrice: ptr(150.0), MaxPrice: ptr(600.0)}, articles: []int64{2, 3}},
		{name: "combined", filter: ProductFilter{CategoryID: &laptops.ID, MaxPrice: ptr(1000.0)}, articles: []int64{2}},
		{name: "field equality", filter: ProductFilter{Fields: map[string]any{"article": int64(3)}}, articles: []int64{3}},
		{name: "field membership", filter: ProductFilter{Fields: map[string]any{"article": []int64{1, 4}}}, articles: []int64{1, 4}},
		{name: "field substring", filter: ProductFilter{Fields: map[string]any{"title": "bag"}}, articles: []int64{4}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := r.FindProducts(db, tt.filter, ProductSort{Field: "article"}, Page{Limit: 100})
			require.NoError(t, err)
			assert.EqualValues(t, len(tt.articles), total, "count query must agree with the page query")

			got := make([]int64, 0, len(items))
			for _, it := range items {
				got = append(got, it.Article)
			}
			assert.Equal(t, tt.articles, got)
		})
	}
}

func TestFindProducts_RejectsUnknownField(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	_, _, err := r.FindProducts(db, ProductFilter{Fields: map[string]any{"1=1; --": "x"}}, ProductSort{}, Page{Limit: 10})
	require.Error(t, err)
}

func TestProductViewByID_CategoryName(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	cat := mustCategory(t, db, "tablets", nil)
	withCat := mustProduct(t, db, 1, "Tab", 300, cat)
	withCat.ImageURLs = models.StringList{"https://img/1.png", "https://img/2.png"}
	require.NoError(t, r.UpdateProduct(db, withCat))
	noCat := mustProduct(t, db, 2, "Loose", 3, nil)

	v, err := r.ProductViewByID(db, withCat.ID)
	require.NoError(t, err)
	require.NotNil(t, v.CategoryName)
	assert.Equal(t, "tablets", *v.CategoryName)
	assert.Equal(t, models.StringList{"https://img/1.png", "https://img/2.png"}, v.ImageURLs)

	v, err = r.ProductViewByID(db, noCat.ID)
	require.NoError(t, err)
	assert.Nil(t, v.CategoryName)
	assert.Empty(t, v.ImageURLs)

	_, err = r.ProductViewByID(db, cat.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestProductViewsByIDs_PreservesOrder(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	a := mustProduct(t, db, 1, "a", 1, nil)
	b := mustProduct(t, db, 2, "b", 1, nil)
	c := mustProduct(t, db, 3, "c", 1, nil)

	got, err := r.ProductViewsByIDs(db, []uuid.UUID{c.ID, a.ID, uuid.New(), b.ID})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{got[0].Article, got[1].Article, got[2].Article})
}

func TestSearchProducts(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	mustProduct(t, db, 1, "Ultrabook", 1, nil)
	p := &models.Product{Article: 2, Title: "Mouse", Description: "pairs with any ultrabook", Price: 1}
	require.NoError(t, db.Create(p).Error)
	mustProduct(t, db, 3, "Keyboard", 1, nil)

	items, total, err := r.SearchProducts(db, "ULTRA", Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Mouse", items[0].Title)
}

func TestTextMatch_NonASCII(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	mustProduct(t, db, 1, "Ноутбук Lenovo", 100, nil)
	mustProduct(t, db, 2, "Laptop Lenovo", 100, nil)
	p := &models.Product{Article: 3, Title: "Мышь", Description: "Беспроводная, для ноутбука", Price: 10}
	require.NoError(t, db.Create(p).Error)

	tests := []struct {
		title string
		want  int64
	}{
		{title: "Ноутбук", want: 1},
		{title: "ноутбук", want: 1},
		{title: "НОУТБУК", want: 1},
		{title: "lenovo", want: 2},
		{title: "50%", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			_, total, err := r.FindProducts(db, ProductFilter{Title: tt.title}, ProductSort{}, Page{Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
		})
	}

	items, total, err := r.SearchProducts(db, "НОУТБУК", Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	_, total, err = r.FindProducts(db, ProductFilter{Fields: map[string]any{"description": "БЕСПРОВОДНАЯ"}}, ProductSort{}, Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
