package models

import "time"

// Product is a catalog entity. The cart/session subsystem never mutates
// products; it only snapshots price and stock at add-to-cart time.
type Product struct {
	ID                  int64            `json:"id"`
	Name                string           `json:"name"`
	Slug                string           `json:"slug"`
	Description         string           `json:"description,omitempty"`
	Price               float64          `json:"price"`
	ComparePrice        *float64         `json:"compare_price,omitempty"`
	SKU                 string           `json:"sku"`
	SellerID            int64            `json:"seller_id,omitempty"`
	StockQuantity       int              `json:"stock_quantity"`
	MaxPurchaseQuantity *int             `json:"max_purchase_quantity,omitempty"`
	Images              []ProductImage   `json:"images,omitempty"`
	Variants            []ProductVariant `json:"variants,omitempty"`
	AverageRating       float64          `json:"average_rating"`
	ReviewCount         int              `json:"review_count"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ProductImage is one gallery entry for a product.
type ProductImage struct {
	ID        int64  `json:"id"`
	Image     string `json:"image"`
	AltText   string `json:"alt_text,omitempty"`
	IsPrimary bool   `json:"is_primary"`
	Order     int    `json:"order"`
}

// ProductVariant is a priced, stocked sub-selection of a product (size, color).
// Its price adjustment is additive to the product's base price.
type ProductVariant struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Value           string  `json:"value"`
	PriceAdjustment float64 `json:"price_adjustment"`
	StockQuantity   int     `json:"stock_quantity"`
	SKU             string  `json:"sku"`
}

// UnitPrice returns the effective per-unit price of the product with the
// optional variant adjustment applied.
func (p *Product) UnitPrice(variant *ProductVariant) float64 {
	if variant != nil {
		return p.Price + variant.PriceAdjustment
	}
	return p.Price
}

// AvailableStock returns the stock bound that applies to a cart line: the
// variant's own stock when a variant is selected, the product's otherwise.
func (p *Product) AvailableStock(variant *ProductVariant) int {
	if variant != nil {
		return variant.StockQuantity
	}
	return p.StockQuantity
}
