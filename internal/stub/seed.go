package stub

import "gorm.io/gorm"

// Seed inserts demo catalog data and a demo coupon when the database is
// empty, so a fresh stub is immediately usable from the storefront.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []Product{
		{
			Name:          "Wireless Headphones",
			Slug:          "wireless-headphones",
			Description:   "Over-ear wireless headphones with noise cancellation.",
			Price:         100,
			SKU:           "WH-1000",
			StockQuantity: 5,
			AverageRating: 4.6,
			ReviewCount:   128,
		},
		{
			Name:          "Mechanical Keyboard",
			Slug:          "mechanical-keyboard",
			Description:   "Tenkeyless mechanical keyboard, hot-swappable switches.",
			Price:         89.5,
			SKU:           "KB-200",
			StockQuantity: 12,
			AverageRating: 4.8,
			ReviewCount:   64,
			Variants: []ProductVariant{
				{Name: "Switch", Value: "Red", PriceAdjustment: 0, StockQuantity: 8, SKU: "KB-200-R"},
				{Name: "Switch", Value: "Brown", PriceAdjustment: 5, StockQuantity: 4, SKU: "KB-200-B"},
			},
		},
		{
			Name:          "USB-C Dock",
			Slug:          "usb-c-dock",
			Description:   "11-in-1 USB-C docking station.",
			Price:         59.9,
			SKU:           "DK-11",
			StockQuantity: 30,
			AverageRating: 4.2,
			ReviewCount:   41,
		},
	}

	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			return err
		}
	}

	coupon := Coupon{Code: "WELCOME10", Percent: 10, IsActive: true}
	return db.Create(&coupon).Error
}
