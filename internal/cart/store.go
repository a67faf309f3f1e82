// Package cart holds the local shopping cart: line items plus derived totals,
// recomputed after every mutation and persisted to durable client storage.
// The cart is client-authoritative; tax, shipping and discount amounts arrive
// as external inputs and only feed the totals pass.
package cart

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/doot/internal/models"
	"github.com/example/doot/internal/notify"
	"github.com/example/doot/internal/storage"
)

// ErrInsufficientStock rejects a mutation whose requested quantity exceeds
// the product or variant stock. The cart is left untouched.
var ErrInsufficientStock = errors.New("not enough stock available")

// ErrInvalidQuantity rejects an add with a quantity below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Store is the cart state container.
type Store struct {
	storage  *storage.Store
	notifier notify.Notifier
	log      zerolog.Logger

	mu             sync.Mutex
	items          []models.CartItem
	totalItems     int
	subtotal       float64
	taxAmount      float64
	shippingAmount float64
	discountAmount float64
	totalAmount    float64
}

// New constructs a cart store, restoring any persisted cart snapshot.
func New(st *storage.Store, notifier notify.Notifier, log zerolog.Logger) *Store {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Store{storage: st, notifier: notifier, log: log}
	s.restore()
	return s
}

// AddToCart merges quantity into an existing line for the same
// product+variant, or appends a new line. The stock bound is checked before
// anything is applied: a violation rejects the whole mutation.
func (s *Store) AddToCart(product models.Product, quantity int, variant *models.ProductVariant) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	available := product.AvailableStock(variant)

	if idx := s.findLine(product.ID, variant); idx >= 0 {
		existing := &s.items[idx]
		requested := existing.Quantity + quantity
		if requested > available {
			s.notifier.Error(ErrInsufficientStock.Error())
			return ErrInsufficientStock
		}
		existing.Quantity = requested
		existing.TotalPrice = existing.Price * float64(requested)
	} else {
		if quantity > available {
			s.notifier.Error(ErrInsufficientStock.Error())
			return ErrInsufficientStock
		}
		price := product.UnitPrice(variant)
		s.items = append(s.items, models.CartItem{
			ID:         s.nextLineID(),
			Product:    product,
			Variant:    variant,
			Quantity:   quantity,
			Price:      price,
			TotalPrice: price * float64(quantity),
			AddedAt:    time.Now(),
		})
	}

	s.recalculate()
	s.persist()
	s.notifier.Success("Added to cart successfully")
	return nil
}

// UpdateQuantity replaces a line's quantity. A quantity of zero or less
// removes the line. The stock bound is re-validated before applying.
func (s *Store) UpdateQuantity(itemID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findLineByID(itemID)
	if idx < 0 {
		return nil
	}

	if quantity <= 0 {
		s.removeLine(idx)
		s.recalculate()
		s.persist()
		return nil
	}

	line := &s.items[idx]
	if quantity > line.Product.AvailableStock(line.Variant) {
		s.notifier.Error(ErrInsufficientStock.Error())
		return ErrInsufficientStock
	}

	line.Quantity = quantity
	line.TotalPrice = line.Price * float64(quantity)
	s.recalculate()
	s.persist()
	return nil
}

// RemoveFromCart deletes a line unconditionally. Removing an id that is not
// present is a no-op, not an error.
func (s *Store) RemoveFromCart(itemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findLineByID(itemID)
	if idx < 0 {
		return
	}
	s.removeLine(idx)
	s.recalculate()
	s.persist()
	s.notifier.Success("Item removed from cart")
}

// ClearCart empties all lines and zeroes every derived total.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.taxAmount = 0
	s.shippingAmount = 0
	s.discountAmount = 0
	s.recalculate()
	s.persist()
	s.notifier.Success("Cart cleared successfully")
}

// SetShippingAmount records a shipping quote and recomputes totals.
func (s *Store) SetShippingAmount(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shippingAmount = amount
	s.recalculate()
	s.persist()
}

// SetDiscountAmount records a coupon discount and recomputes totals.
func (s *Store) SetDiscountAmount(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discountAmount = amount
	s.recalculate()
	s.persist()
}

// SetTaxAmount records a tax figure and recomputes totals.
func (s *Store) SetTaxAmount(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxAmount = amount
	s.recalculate()
	s.persist()
}

// Cart returns a copy of the full aggregate.
func (s *Store) Cart() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregate()
}

// Items returns a copy of the cart lines in stable order.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

// TotalItems returns the summed quantity across all lines.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItems
}

// Subtotal returns the sum of line totals.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotal
}

// TotalAmount returns subtotal + tax + shipping - discount.
func (s *Store) TotalAmount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalAmount
}

// Summary returns the condensed checkout-header view.
func (s *Store) Summary() models.CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CartSummary{TotalItems: s.totalItems, TotalAmount: s.totalAmount}
}

// recalculate derives totals from the lines. Called after every mutation;
// cached totals never survive a line change uncorrected. Callers hold the
// lock.
func (s *Store) recalculate() {
	totalItems := 0
	subtotal := 0.0
	for _, item := range s.items {
		totalItems += item.Quantity
		subtotal += item.TotalPrice
	}
	s.totalItems = totalItems
	s.subtotal = subtotal
	s.totalAmount = subtotal + s.taxAmount + s.shippingAmount - s.discountAmount
}

func (s *Store) aggregate() models.Cart {
	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)
	return models.Cart{
		Items:          items,
		TotalItems:     s.totalItems,
		Subtotal:       s.subtotal,
		TaxAmount:      s.taxAmount,
		ShippingAmount: s.shippingAmount,
		DiscountAmount: s.discountAmount,
		TotalAmount:    s.totalAmount,
	}
}

func (s *Store) persist() {
	if err := s.storage.SetJSON(storage.KeyCartSnapshot, s.aggregate()); err != nil {
		s.log.Error().Err(err).Msg("failed to persist cart snapshot")
	}
}

func (s *Store) restore() {
	var snap models.Cart
	ok, err := s.storage.GetJSON(storage.KeyCartSnapshot, &snap)
	if err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable cart snapshot")
		return
	}
	if !ok {
		return
	}
	s.items = snap.Items
	s.taxAmount = snap.TaxAmount
	s.shippingAmount = snap.ShippingAmount
	s.discountAmount = snap.DiscountAmount
	// Totals are rederived rather than trusted from disk.
	s.recalculate()
}

func (s *Store) findLine(productID int64, variant *models.ProductVariant) int {
	for i, item := range s.items {
		if item.Product.ID != productID {
			continue
		}
		if variant == nil && item.Variant == nil {
			return i
		}
		if variant != nil && item.Variant != nil && item.Variant.ID == variant.ID {
			return i
		}
	}
	return -1
}

func (s *Store) findLineByID(itemID int64) int {
	for i, item := range s.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) removeLine(idx int) {
	s.items = append(s.items[:idx], s.items[idx+1:]...)
}

// nextLineID issues a client-local line id. Time-based, bumped past any
// existing id so rapid adds within one millisecond stay unique.
func (s *Store) nextLineID() int64 {
	id := time.Now().UnixMilli()
	for s.lineIDExists(id) {
		id++
	}
	return id
}

func (s *Store) lineIDExists(id int64) bool {
	return s.findLineByID(id) >= 0
}
