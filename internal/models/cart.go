package models

import "time"

// CartItem is one cart line binding a product (and optional variant) to a
// quantity and a unit-price snapshot taken when the line was created.
type CartItem struct {
	ID         int64           `json:"id"`
	Product    Product         `json:"product"`
	Variant    *ProductVariant `json:"variant,omitempty"`
	Quantity   int             `json:"quantity"`
	Price      float64         `json:"price"`
	TotalPrice float64         `json:"total_price"`
	AddedAt    time.Time       `json:"added_at"`
}

// Cart is the aggregate the cart store persists: the ordered lines plus the
// derived monetary fields. TotalAmount must always equal
// Subtotal + TaxAmount + ShippingAmount - DiscountAmount.
type Cart struct {
	Items          []CartItem `json:"items"`
	TotalItems     int        `json:"total_items"`
	Subtotal       float64    `json:"subtotal"`
	TaxAmount      float64    `json:"tax_amount"`
	ShippingAmount float64    `json:"shipping_amount"`
	DiscountAmount float64    `json:"discount_amount"`
	TotalAmount    float64    `json:"total_amount"`
}

// CartSummary is the condensed view used by checkout headers.
type CartSummary struct {
	TotalItems  int     `json:"total_items"`
	TotalAmount float64 `json:"total_amount"`
}
