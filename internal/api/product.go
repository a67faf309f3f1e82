package api

import (
	"context"
	"fmt"

	"github.com/example/doot/internal/models"
)

// ProductPage is one page of catalog results.
type ProductPage struct {
	Results []models.Product `json:"results"`
	Count   int64            `json:"count"`
}

// Product fetches a single catalog entry. The storefront needs the price and
// stock snapshot before a line can enter the cart.
func (c *Client) Product(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := c.Get(ctx, fmt.Sprintf("/products/%d", id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Products lists a page of the catalog.
func (c *Client) Products(ctx context.Context, page int) (*ProductPage, error) {
	if page <= 0 {
		page = 1
	}
	var result ProductPage
	if err := c.Get(ctx, fmt.Sprintf("/products?page=%d", page), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
