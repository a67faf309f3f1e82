package stub

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// productHandler serves catalog reads. The storefront only needs price and
// stock snapshots, so the surface is list + get.
type productHandler struct {
	db *gorm.DB
}

// pagination holds page/limit query parameters with sane defaults.
type pagination struct {
	Page   int
	Limit  int
	Offset int
}

func parsePagination(c *fiber.Ctx) pagination {
	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", "20"), 20)
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return pagination{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}

// List returns one catalog page.
func (h *productHandler) List(c *fiber.Ctx) error {
	p := parsePagination(c)

	var count int64
	if err := h.db.Model(&Product{}).Count(&count).Error; err != nil {
		return err
	}

	var products []Product
	if err := h.db.Preload("Variants").
		Order("id").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"results": products,
		"count":   count,
	})
}

// Get returns a single catalog entry.
func (h *productHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var product Product
	if err := h.db.Preload("Variants").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(product)
}
