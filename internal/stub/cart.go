package stub

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// cartTaxRate is the flat tax applied to the server cart subtotal. The client
// cannot compute tax itself; it refetches the cart after every mutation.
const cartTaxRate = 0.08

// cartHandler serves the server-authoritative cart endpoints.
type cartHandler struct {
	db *gorm.DB
}

func (h *cartHandler) userCart(c *fiber.Ctx) (*Cart, error) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var cart Cart
	err := h.db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = Cart{UserID: userID}
		if err := h.db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// recalculate rederives the cart totals from its lines and coupon, then
// persists and reloads the aggregate.
func (h *cartHandler) recalculate(cart *Cart) error {
	var items []CartItem
	if err := h.db.Where("cart_id = ?", cart.ID).Order("id").Find(&items).Error; err != nil {
		return err
	}

	totalItems := 0
	subtotal := 0.0
	for _, item := range items {
		totalItems += item.Quantity
		subtotal += item.TotalPrice
	}

	discount := 0.0
	if cart.CouponCode != "" {
		var coupon Coupon
		if err := h.db.Where("code = ? AND is_active = ?", cart.CouponCode, true).First(&coupon).Error; err == nil {
			discount = coupon.Amount + subtotal*coupon.Percent/100
			if discount > subtotal {
				discount = subtotal
			}
		}
	}

	cart.TotalItems = totalItems
	cart.Subtotal = subtotal
	cart.TaxAmount = subtotal * cartTaxRate
	cart.DiscountAmount = discount
	cart.TotalAmount = cart.Subtotal + cart.TaxAmount + cart.ShippingAmount - cart.DiscountAmount

	return h.db.Save(cart).Error
}

func (h *cartHandler) loaded(cart *Cart) error {
	return h.db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		Preload("Items.Variant").
		First(cart, "id = ?", cart.ID).Error
}

// GetCart returns the full cart snapshot.
func (h *cartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.userCart(c)
	if err != nil {
		return err
	}
	if err := h.loaded(cart); err != nil {
		return err
	}
	return c.JSON(cart)
}

type addItemRequest struct {
	Product  int64  `json:"product"`
	Variant  *int64 `json:"variant"`
	Quantity int    `json:"quantity"`
}

// AddItem appends or merges a cart line, validating stock server-side.
func (h *cartHandler) AddItem(c *fiber.Ctx) error {
	cart, err := h.userCart(c)
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be at least 1")
	}

	var product Product
	if err := h.db.First(&product, "id = ?", req.Product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	available := product.StockQuantity
	price := product.Price
	if req.Variant != nil {
		var variant ProductVariant
		if err := h.db.First(&variant, "id = ? AND product_id = ?", *req.Variant, product.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "variant not found")
			}
			return err
		}
		available = variant.StockQuantity
		price = product.Price + variant.PriceAdjustment
	}

	var existing CartItem
	query := h.db.Where("cart_id = ? AND product_id = ?", cart.ID, product.ID)
	if req.Variant == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *req.Variant)
	}

	err = query.First(&existing).Error
	switch {
	case err == nil:
		requested := existing.Quantity + req.Quantity
		if requested > available {
			return fiber.NewError(fiber.StatusConflict, "Not enough stock available")
		}
		existing.Quantity = requested
		existing.TotalPrice = existing.Price * float64(requested)
		if err := h.db.Save(&existing).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if req.Quantity > available {
			return fiber.NewError(fiber.StatusConflict, "Not enough stock available")
		}
		item := CartItem{
			CartID:     cart.ID,
			ProductID:  product.ID,
			VariantID:  req.Variant,
			Quantity:   req.Quantity,
			Price:      price,
			TotalPrice: price * float64(req.Quantity),
			AddedAt:    time.Now(),
		}
		if err := h.db.Create(&item).Error; err != nil {
			return err
		}
	default:
		return err
	}

	if err := h.recalculate(cart); err != nil {
		return err
	}
	if err := h.loaded(cart); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem replaces a line quantity; zero or less removes the line.
func (h *cartHandler) UpdateItem(c *fiber.Ctx) error {
	cart, err := h.userCart(c)
	if err != nil {
		return err
	}

	itemID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var item CartItem
	if err := h.db.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return err
	}

	if req.Quantity <= 0 {
		if err := h.db.Delete(&item).Error; err != nil {
			return err
		}
	} else {
		available, err := h.itemStock(&item)
		if err != nil {
			return err
		}
		if req.Quantity > available {
			return fiber.NewError(fiber.StatusConflict, "Not enough stock available")
		}
		item.Quantity = req.Quantity
		item.TotalPrice = item.Price * float64(req.Quantity)
		if err := h.db.Save(&item).Error; err != nil {
			return err
		}
	}

	if err := h.recalculate(cart); err != nil {
		return err
	}
	if err := h.loaded(cart); err != nil {
		return err
	}
	return c.JSON(cart)
}

// RemoveItem deletes a line. Deleting an absent line is a no-op.
func (h *cartHandler) RemoveItem(c *fiber.Ctx) error {
	cart, err := h.userCart(c)
	if err != nil {
		return err
	}

	itemID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	if err := h.db.Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&CartItem{}).Error; err != nil {
		return err
	}

	if err := h.recalculate(cart); err != nil {
		return err
	}
	if err := h.loaded(cart); err != nil {
		return err
	}
	return c.JSON(cart)
}

// ClearCart removes every line and the coupon.
func (h *cartHandler) ClearCart(c *fiber.Ctx) error {
	cart, err := h.userCart(c)
	if err != nil {
		return err
	}

	if err := h.db.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
		return err
	}
	cart.CouponCode = ""
	cart.ShippingAmount = 0

	if err := h.recalculate(cart); err != nil {
		return err
	}
	if err := h.loaded(cart); err != nil {
		return err
	}
	return c.JSON(cart)
}

// Summary returns the condensed cart view.
func (h *cartHandler) Summary(c *fiber.Ctx) error {
	cart, err := h.userCart(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"total_items":  cart.TotalItems,
		"total_amount": cart.TotalAmount,
	})
}

type applyCouponRequest struct {
	CouponCode string `json:"coupon_code"`
}

// ApplyCoupon attaches a discount code and recomputes totals.
func (h *cartHandler) ApplyCoupon(c *fiber.Ctx) error {
	cart, err := h.userCart(c)
	if err != nil {
		return err
	}

	var req applyCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var coupon Coupon
	if err := h.db.Where("code = ? AND is_active = ?", req.CouponCode, true).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "invalid coupon code")
		}
		return err
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()) {
		return fiber.NewError(fiber.StatusBadRequest, "coupon has expired")
	}

	cart.CouponCode = coupon.Code
	if err := h.recalculate(cart); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":         "Coupon applied",
		"discount_amount": cart.DiscountAmount,
		"total_amount":    cart.TotalAmount,
	})
}

// RemoveCoupon detaches the discount code.
func (h *cartHandler) RemoveCoupon(c *fiber.Ctx) error {
	cart, err := h.userCart(c)
	if err != nil {
		return err
	}

	cart.CouponCode = ""
	if err := h.recalculate(cart); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":      "Coupon removed",
		"total_amount": cart.TotalAmount,
	})
}

func (h *cartHandler) itemStock(item *CartItem) (int, error) {
	if item.VariantID != nil {
		var variant ProductVariant
		if err := h.db.First(&variant, "id = ?", *item.VariantID).Error; err != nil {
			return 0, err
		}
		return variant.StockQuantity, nil
	}
	var product Product
	if err := h.db.First(&product, "id = ?", item.ProductID).Error; err != nil {
		return 0, err
	}
	return product.StockQuantity, nil
}
