package repo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

func TestAddToCart_MergesExistingPair(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	userID := uuid.New()
	p := mustProduct(t, db, 1, "p", 10, nil)

	first := &models.CartItem{UserID: userID, ProductID: p.ID, Quantity: 2}
	require.NoError(t, r.AddToCart(db, first))
	second := &models.CartItem{UserID: userID, ProductID: p.ID, Quantity: 3}
	require.NoError(t, r.AddToCart(db, second))

	var rows []models.CartItem
	require.NoError(t, db.Where("user_id = ?", userID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Quantity)
	assert.Equal(t, first.ID, second.ID)
}

func TestCartLinesAndTotals(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	userID, otherID := uuid.New(), uuid.New()
	a := mustProduct(t, db, 1, "a", 10, nil)
	b := mustProduct(t, db, 2, "b", 2.5, nil)
	a.ImageURLs = models.StringList{"https://img/a1", "https://img/a2"}
	require.NoError(t, r.UpdateProduct(db, a))

	require.NoError(t, r.AddToCart(db, &models.CartItem{UserID: userID, ProductID: a.ID, Quantity: 2}))
	time.Sleep(time.Millisecond)
	require.NoError(t, r.AddToCart(db, &models.CartItem{UserID: userID, ProductID: b.ID, Quantity: 4}))
	require.NoError(t, r.AddToCart(db, &models.CartItem{UserID: otherID, ProductID: a.ID, Quantity: 9}))

	lines, err := r.CartLines(db, userID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, a.ID, lines[0].ProductID)
	assert.Equal(t, "https://img/a1", *lines[0].ImageURLs.First())
	assert.Nil(t, lines[1].ImageURLs.First())

	total, count, err := r.CartTotals(db, userID)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, total, 1e-9)
	assert.EqualValues(t, 6, count)

	total, count, err = r.CartTotals(db, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, count)
}

func TestCartQuantityRemoveClear(t *testing.T) {
	t.Parallel()
	r, db := newTestRepo(t)

	userID := uuid.New()
	a := mustProduct(t, db, 1, "a", 1, nil)
	b := mustProduct(t, db, 2, "b", 1, nil)
	require.NoError(t, r.AddToCart(db, &models.CartItem{UserID: userID, ProductID: a.ID, Quantity: 1}))
	require.NoError(t, r.AddToCart(db, &models.CartItem{UserID: userID, ProductID: b.ID, Quantity: 1}))

	ok, err := r.SetCartQuantity(db, userID, a.ID, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	lines, err := r.CartLines(db, userID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, line := range lines {
		if line.ProductID == a.ID {
			assert.Equal(t, 7, line.Quantity)
		}
	}

	ok, err = r.SetCartQuantity(db, userID, uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.RemoveFromCart(db, userID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.RemoveFromCart(db, userID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.ClearCart(db, userID))
	lines, err = r.CartLines(db, userID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
