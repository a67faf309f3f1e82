package stub

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/example/doot/internal/config"
)

// authHandler bundles dependencies for the auth endpoints.
type authHandler struct {
	db  *gorm.DB
	cfg *config.StubConfig
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	PhoneNumber     string `json:"phone_number"`
}

// Register creates a new account. No tokens are issued: the client logs in
// explicitly afterwards.
func (h *authHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if req.PasswordConfirm != "" && req.Password != req.PasswordConfirm {
		return fiber.NewError(fiber.StatusBadRequest, "passwords do not match")
	}

	var existing User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: passwordHash,
		IsActive:     true,
		DateJoined:   time.Now(),
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful. Please login.",
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and returns both tokens plus the user record.
func (h *authHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}

	if !checkPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	access, err := generateToken(h.cfg.JWTSecret, user.ID, tokenTypeAccess, h.cfg.AccessTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}
	refresh, err := generateToken(h.cfg.JWTSecret, user.ID, tokenTypeRefresh, h.cfg.RefreshTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	now := time.Now()
	user.LastLogin = &now
	if err := h.db.Model(&user).Update("last_login", now).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"access":  access,
		"refresh": refresh,
		"user":    user,
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Refresh exchanges a refresh token for a new access token.
func (h *authHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID, err := parseToken(h.cfg.JWTSecret, req.Refresh, tokenTypeRefresh)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid refresh token")
	}

	access, err := generateToken(h.cfg.JWTSecret, userID, tokenTypeAccess, h.cfg.AccessTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{"access": access})
}

// Logout acknowledges a logout. The stub keeps no refresh-token denylist;
// clients clear their own credentials regardless.
func (h *authHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Profile returns the authenticated user record.
func (h *authHandler) Profile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(user)
}

type updateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Avatar      *string `json:"avatar"`
}

// UpdateProfile applies a partial update and returns the full record.
func (h *authHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if err := h.db.Save(&user).Error; err != nil {
		return err
	}

	return c.JSON(user)
}

type changePasswordRequest struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// ChangePassword rotates the account password.
func (h *authHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.NewPassword == "" || req.NewPassword != req.NewPasswordConfirm {
		return fiber.NewError(fiber.StatusBadRequest, "passwords do not match")
	}

	var user User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if !checkPassword(user.PasswordHash, req.OldPassword) {
		return fiber.NewError(fiber.StatusBadRequest, "old password is incorrect")
	}

	passwordHash, err := hashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if err := h.db.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset issues a reset token. A real deployment would deliver
// it out of band; the stub returns it in the response for development.
func (h *authHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	reset := PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	if err := h.db.Create(&reset).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Password reset requested",
		"token":   reset.Token,
	})
}

type resetConfirmRequest struct {
	Token              string `json:"token"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// ConfirmPasswordReset completes the forgot-password flow.
func (h *authHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req resetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.NewPassword == "" || req.NewPassword != req.NewPasswordConfirm {
		return fiber.NewError(fiber.StatusBadRequest, "passwords do not match")
	}

	var reset PasswordResetToken
	if err := h.db.Where("token = ? AND used = ?", req.Token, false).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid reset token")
		}
		return err
	}
	if reset.ExpiresAt.Before(time.Now()) {
		return fiber.NewError(fiber.StatusBadRequest, "reset token expired")
	}

	passwordHash, err := hashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if err := h.db.Model(&User{}).Where("id = ?", reset.UserID).
		Update("password_hash", passwordHash).Error; err != nil {
		return err
	}
	if err := h.db.Model(&reset).Update("used", true).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Password reset successful"})
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
