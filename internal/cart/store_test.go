package cart

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/doot/internal/models"
	"github.com/example/doot/internal/notify"
	"github.com/example/doot/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestCart(t *testing.T) *Store {
	t.Helper()
	return New(newTestStorage(t), notify.Nop{}, zerolog.Nop())
}

func headphones() models.Product {
	return models.Product{ID: 1, Name: "Wireless Headphones", Price: 100, StockQuantity: 5}
}

func keyboard() models.Product {
	return models.Product{
		ID:            2,
		Name:          "Mechanical Keyboard",
		Price:         80,
		StockQuantity: 10,
		Variants: []models.ProductVariant{
			{ID: 21, Name: "Switch", Value: "Red", PriceAdjustment: 0, StockQuantity: 4},
			{ID: 22, Name: "Switch", Value: "Blue", PriceAdjustment: 10, StockQuantity: 2},
		},
	}
}

func TestAddMergesSameProductLine(t *testing.T) {
	s := newTestCart(t)
	p := headphones()

	require.NoError(t, s.AddToCart(p, 2, nil))
	require.NoError(t, s.AddToCart(p, 1, nil))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 300.0, items[0].TotalPrice)
	assert.Equal(t, 3, s.TotalItems())
	assert.Equal(t, 300.0, s.Subtotal())
}

func TestAddRejectsOverStockAndLeavesCartUntouched(t *testing.T) {
	s := newTestCart(t)
	p := headphones() // stock 5

	require.NoError(t, s.AddToCart(p, 3, nil))
	err := s.AddToCart(p, 3, nil) // would total 6
	require.ErrorIs(t, err, ErrInsufficientStock)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity, "rejected mutation must not partially apply")
	assert.Equal(t, 300.0, s.Subtotal())
}

func TestAddRejectsNewLineOverStock(t *testing.T) {
	s := newTestCart(t)
	err := s.AddToCart(headphones(), 6, nil)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Empty(t, s.Items())
}

func TestAddRejectsInvalidQuantity(t *testing.T) {
	s := newTestCart(t)
	assert.ErrorIs(t, s.AddToCart(headphones(), 0, nil), ErrInvalidQuantity)
	assert.ErrorIs(t, s.AddToCart(headphones(), -2, nil), ErrInvalidQuantity)
	assert.Empty(t, s.Items())
}

func TestVariantsAreSeparateLines(t *testing.T) {
	s := newTestCart(t)
	p := keyboard()
	red := &p.Variants[0]
	blue := &p.Variants[1]

	require.NoError(t, s.AddToCart(p, 1, red))
	require.NoError(t, s.AddToCart(p, 1, blue))
	require.NoError(t, s.AddToCart(p, 1, nil))
	require.NoError(t, s.AddToCart(p, 1, red))

	items := s.Items()
	require.Len(t, items, 3, "base, red and blue are distinct lines")

	// Variant price adjustment is baked into the line's unit price.
	assert.Equal(t, 4, s.TotalItems())
	assert.Equal(t, 80.0*2+80.0+90.0, s.Subtotal())
}

func TestVariantStockBoundWins(t *testing.T) {
	s := newTestCart(t)
	p := keyboard() // product stock 10, blue variant stock 2
	blue := &p.Variants[1]

	err := s.AddToCart(p, 3, blue)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Empty(t, s.Items())
}

func TestUpdateQuantity(t *testing.T) {
	s := newTestCart(t)
	require.NoError(t, s.AddToCart(headphones(), 2, nil))
	itemID := s.Items()[0].ID

	require.NoError(t, s.UpdateQuantity(itemID, 5))
	assert.Equal(t, 5, s.Items()[0].Quantity)
	assert.Equal(t, 500.0, s.Subtotal())

	require.ErrorIs(t, s.UpdateQuantity(itemID, 6), ErrInsufficientStock)
	assert.Equal(t, 5, s.Items()[0].Quantity, "failed update must not change the line")
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	s := newTestCart(t)
	require.NoError(t, s.AddToCart(headphones(), 2, nil))
	itemID := s.Items()[0].ID

	require.NoError(t, s.UpdateQuantity(itemID, 0))
	assert.Empty(t, s.Items())
	assert.Equal(t, 0.0, s.TotalAmount())
}

func TestUpdateQuantityUnknownLineIsNoOp(t *testing.T) {
	s := newTestCart(t)
	require.NoError(t, s.AddToCart(headphones(), 1, nil))
	require.NoError(t, s.UpdateQuantity(999999, 3))
	assert.Equal(t, 1, s.TotalItems())
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := newTestCart(t)
	require.NoError(t, s.AddToCart(headphones(), 1, nil))
	itemID := s.Items()[0].ID

	s.RemoveFromCart(itemID)
	assert.Empty(t, s.Items())

	s.RemoveFromCart(itemID) // already gone, still fine
	assert.Empty(t, s.Items())
}

func TestTotalsFollowAdjustments(t *testing.T) {
	s := newTestCart(t)
	require.NoError(t, s.AddToCart(headphones(), 2, nil)) // subtotal 200

	s.SetTaxAmount(16)
	s.SetShippingAmount(9.5)
	s.SetDiscountAmount(20)

	c := s.Cart()
	assert.Equal(t, 200.0, c.Subtotal)
	assert.Equal(t, 200.0+16+9.5-20, c.TotalAmount)

	// Line mutation recomputes the same formula against the new subtotal.
	require.NoError(t, s.UpdateQuantity(c.Items[0].ID, 1))
	assert.Equal(t, 100.0+16+9.5-20, s.TotalAmount())
}

func TestClearCartZeroesEverything(t *testing.T) {
	s := newTestCart(t)
	require.NoError(t, s.AddToCart(headphones(), 2, nil))
	s.SetTaxAmount(16)
	s.SetShippingAmount(5)
	s.SetDiscountAmount(10)

	s.ClearCart()

	c := s.Cart()
	assert.Empty(t, c.Items)
	assert.Equal(t, 0, c.TotalItems)
	assert.Equal(t, 0.0, c.Subtotal)
	assert.Equal(t, 0.0, c.TaxAmount)
	assert.Equal(t, 0.0, c.ShippingAmount)
	assert.Equal(t, 0.0, c.DiscountAmount)
	assert.Equal(t, 0.0, c.TotalAmount)
}

func TestCartSurvivesRestart(t *testing.T) {
	st := newTestStorage(t)
	logger := zerolog.Nop()

	first := New(st, notify.Nop{}, logger)
	require.NoError(t, first.AddToCart(headphones(), 2, nil))
	first.SetShippingAmount(9)

	// A second store over the same storage replays the snapshot.
	second := New(st, notify.Nop{}, logger)
	c := second.Cart()
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 200.0, c.Subtotal, "totals are rederived from lines, not read from disk")
	assert.Equal(t, 209.0, c.TotalAmount)
}

func TestSummary(t *testing.T) {
	s := newTestCart(t)
	require.NoError(t, s.AddToCart(headphones(), 3, nil))
	s.SetTaxAmount(24)

	summary := s.Summary()
	assert.Equal(t, 3, summary.TotalItems)
	assert.Equal(t, 324.0, summary.TotalAmount)
}
