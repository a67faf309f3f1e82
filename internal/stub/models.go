package stub

import "time"

// BaseModel provides shared columns for all stub tables. IDs are numeric to
// match the published API contract.
type BaseModel struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a marketplace account.
type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex" json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	PasswordHash string     `json:"-"`
	IsVerified   bool       `json:"is_verified"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsAdmin      bool       `json:"is_admin"`
	IsSeller     bool       `json:"is_seller"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	Avatar       string     `json:"avatar,omitempty"`
}

// SellerProfile is the 1:1 business identity of a seller account.
type SellerProfile struct {
	BaseModel
	UserID              int64   `gorm:"uniqueIndex" json:"-"`
	User                *User   `json:"user,omitempty"`
	BusinessName        string  `json:"business_name"`
	BusinessDescription string  `json:"business_description,omitempty"`
	BusinessAddress     string  `json:"business_address,omitempty"`
	BusinessPhone       string  `json:"business_phone,omitempty"`
	BusinessEmail       string  `json:"business_email,omitempty"`
	BusinessWebsite     string  `json:"business_website,omitempty"`
	IsVerified          bool    `json:"is_verified"`
	IsActive            bool    `json:"is_active"`
	CommissionRate      float64 `json:"commission_rate"`
	TotalSales          float64 `json:"total_sales"`
	Rating              float64 `json:"rating"`
	ReviewCount         int     `json:"review_count"`
}

// Product is a catalog entry.
type Product struct {
	BaseModel
	Name          string           `json:"name"`
	Slug          string           `gorm:"uniqueIndex" json:"slug"`
	Description   string           `json:"description,omitempty"`
	Price         float64          `json:"price"`
	ComparePrice  *float64         `json:"compare_price,omitempty"`
	SKU           string           `json:"sku"`
	SellerID      int64            `gorm:"index" json:"seller_id,omitempty"`
	StockQuantity int              `json:"stock_quantity"`
	Variants      []ProductVariant `json:"variants,omitempty"`
	AverageRating float64          `json:"average_rating"`
	ReviewCount   int              `json:"review_count"`
}

// ProductVariant is a priced, stocked sub-selection of a product.
type ProductVariant struct {
	BaseModel
	ProductID       int64   `gorm:"index" json:"-"`
	Name            string  `json:"name"`
	Value           string  `json:"value"`
	PriceAdjustment float64 `json:"price_adjustment"`
	StockQuantity   int     `json:"stock_quantity"`
	SKU             string  `json:"sku"`
}

// Cart is the server-side cart aggregate, one active cart per user.
type Cart struct {
	BaseModel
	UserID         int64      `gorm:"uniqueIndex" json:"-"`
	Items          []CartItem `json:"items"`
	CouponCode     string     `json:"coupon_code,omitempty"`
	TotalItems     int        `json:"total_items"`
	Subtotal       float64    `json:"subtotal"`
	TaxAmount      float64    `json:"tax_amount"`
	ShippingAmount float64    `json:"shipping_amount"`
	DiscountAmount float64    `json:"discount_amount"`
	TotalAmount    float64    `json:"total_amount"`
}

// CartItem is one server cart line with a price snapshot.
type CartItem struct {
	BaseModel
	CartID     int64           `gorm:"index" json:"-"`
	ProductID  int64           `json:"-"`
	Product    *Product        `json:"product,omitempty"`
	VariantID  *int64          `json:"-"`
	Variant    *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	Quantity   int             `json:"quantity"`
	Price      float64         `json:"price"`
	TotalPrice float64         `json:"total_price"`
	AddedAt    time.Time       `json:"added_at"`
}

// Coupon is a flat- or percent-discount code.
type Coupon struct {
	BaseModel
	Code      string     `gorm:"uniqueIndex" json:"code"`
	Percent   float64    `json:"percent"`
	Amount    float64    `json:"amount"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PasswordResetToken tracks outstanding forgot-password tokens.
type PasswordResetToken struct {
	BaseModel
	UserID    int64     `gorm:"index"`
	Token     string    `gorm:"uniqueIndex"`
	ExpiresAt time.Time
	Used      bool
}
