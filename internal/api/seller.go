package api

import (
	"context"

	"github.com/example/doot/internal/models"
)

// SellerProfileInput is the create/update payload for a seller profile.
type SellerProfileInput struct {
	BusinessName        string `json:"business_name"`
	BusinessDescription string `json:"business_description,omitempty"`
	BusinessAddress     string `json:"business_address,omitempty"`
	BusinessPhone       string `json:"business_phone,omitempty"`
	BusinessEmail       string `json:"business_email,omitempty"`
	BusinessWebsite     string `json:"business_website,omitempty"`
}

// SellerProfile fetches the caller's seller profile. A 404 means the user has
// no profile yet; callers map that to a nil profile, not a failure.
func (c *Client) SellerProfile(ctx context.Context) (*models.SellerProfile, error) {
	var profile models.SellerProfile
	if err := c.Get(ctx, "/sellers/profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateSellerProfile elevates the current user to seller status.
func (c *Client) CreateSellerProfile(ctx context.Context, input SellerProfileInput) (*models.SellerProfile, error) {
	var profile models.SellerProfile
	if err := c.Post(ctx, "/sellers/profile", input, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateSellerProfile updates the current user's seller profile.
func (c *Client) UpdateSellerProfile(ctx context.Context, input SellerProfileInput) (*models.SellerProfile, error) {
	var profile models.SellerProfile
	if err := c.Put(ctx, "/sellers/profile", input, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
