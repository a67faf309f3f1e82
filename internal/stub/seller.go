package stub

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// sellerHandler manages seller profile endpoints.
type sellerHandler struct {
	db *gorm.DB
}

// GetProfile returns the caller's seller profile. 404 means the user has not
// become a seller; the client treats that as a confirmed absence.
func (h *sellerHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var profile SellerProfile
	if err := h.db.Preload("User").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "seller profile not found")
		}
		return err
	}

	return c.JSON(profile)
}

type sellerProfileRequest struct {
	BusinessName        string `json:"business_name"`
	BusinessDescription string `json:"business_description"`
	BusinessAddress     string `json:"business_address"`
	BusinessPhone       string `json:"business_phone"`
	BusinessEmail       string `json:"business_email"`
	BusinessWebsite     string `json:"business_website"`
}

// CreateProfile elevates the caller to seller status.
func (h *sellerHandler) CreateProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req sellerProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.BusinessName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "business_name is required")
	}

	var existing SellerProfile
	if err := h.db.Where("user_id = ?", userID).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "seller profile already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	profile := SellerProfile{
		UserID:              userID,
		BusinessName:        req.BusinessName,
		BusinessDescription: req.BusinessDescription,
		BusinessAddress:     req.BusinessAddress,
		BusinessPhone:       req.BusinessPhone,
		BusinessEmail:       req.BusinessEmail,
		BusinessWebsite:     req.BusinessWebsite,
		IsActive:            true,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		return tx.Model(&User{}).Where("id = ?", userID).Update("is_seller", true).Error
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(profile)
}

// UpdateProfile updates the caller's seller profile.
func (h *sellerHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req sellerProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var profile SellerProfile
	if err := h.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "seller profile not found")
		}
		return err
	}

	if req.BusinessName != "" {
		profile.BusinessName = req.BusinessName
	}
	profile.BusinessDescription = req.BusinessDescription
	profile.BusinessAddress = req.BusinessAddress
	profile.BusinessPhone = req.BusinessPhone
	profile.BusinessEmail = req.BusinessEmail
	profile.BusinessWebsite = req.BusinessWebsite

	if err := h.db.Save(&profile).Error; err != nil {
		return err
	}

	return c.JSON(profile)
}
