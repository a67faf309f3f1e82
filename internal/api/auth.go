package api

import (
	"context"

	"github.com/example/doot/internal/models"
	"github.com/example/doot/internal/storage"
)

// LoginResult is the normalized, total form of a successful login response.
type LoginResult struct {
	Access  string
	Refresh string
	User    models.User
}

// loginResponse tolerates both payload shapes the API has shipped: tokens at
// the top level or nested under "tokens". Normalization happens here, once,
// instead of at every call site.
type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Tokens  struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
	User *models.User `json:"user"`
}

func (r *loginResponse) normalize() (*LoginResult, error) {
	access := r.Access
	if access == "" {
		access = r.Tokens.Access
	}
	refresh := r.Refresh
	if refresh == "" {
		refresh = r.Tokens.Refresh
	}
	if access == "" || refresh == "" || r.User == nil {
		return nil, &Error{Kind: KindUnknown, Message: msgGeneric}
	}
	return &LoginResult{Access: access, Refresh: refresh, User: *r.User}, nil
}

// Login exchanges credentials for tokens and the user record.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var raw loginResponse
	payload := map[string]string{"email": email, "password": password}
	if err := c.Post(ctx, "/auth/login", payload, &raw); err != nil {
		return nil, err
	}
	return raw.normalize()
}

// RegisterData is the registration request payload.
type RegisterData struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	PhoneNumber     string `json:"phone_number,omitempty"`
}

// RegisterResult is the registration response. Registration issues no tokens;
// the user logs in explicitly afterwards.
type RegisterResult struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, data RegisterData) (*RegisterResult, error) {
	var result RegisterResult
	if err := c.Post(ctx, "/auth/register", data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout invalidates the refresh token server-side. Best effort by contract:
// callers ignore the returned error and clear local state regardless.
func (c *Client) Logout(ctx context.Context) error {
	refreshToken, ok := c.store.Get(storage.KeyRefreshToken)
	if !ok || refreshToken == "" {
		return nil
	}
	return c.Post(ctx, "/auth/logout", map[string]string{"refresh_token": refreshToken}, nil)
}

// Profile fetches the current user record.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.Get(ctx, "/auth/profile", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileUpdate is a partial user update. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
}

// UpdateProfile applies a partial update and returns the server's
// authoritative user record.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := c.Put(ctx, "/auth/profile", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword rotates the account password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) error {
	payload := map[string]string{
		"old_password":         oldPassword,
		"new_password":         newPassword,
		"new_password_confirm": confirm,
	}
	return c.Post(ctx, "/auth/password/change", payload, nil)
}

// RequestPasswordReset starts the forgot-password flow.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.Post(ctx, "/auth/password/reset", map[string]string{"email": email}, nil)
}

// ConfirmPasswordReset completes the forgot-password flow with the token the
// user received.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword, confirm string) error {
	payload := map[string]string{
		"token":                token,
		"new_password":         newPassword,
		"new_password_confirm": confirm,
	}
	return c.Post(ctx, "/auth/password/reset/confirm", payload, nil)
}
