package models

import "time"

// User represents the authenticated customer as returned by the marketplace API.
type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	IsVerified  bool       `json:"is_verified"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff,omitempty"`
	IsAdmin     bool       `json:"is_admin,omitempty"`
	IsSeller    bool       `json:"is_seller,omitempty"`
	DateJoined  time.Time  `json:"date_joined"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
}

// FullName joins first and last name for display purposes.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// SellerProfile is the business identity attached to a user who sells on the
// marketplace. A nil SellerProfile is a meaningful state (the user is not a
// seller), distinct from "not fetched yet".
type SellerProfile struct {
	ID                  int64     `json:"id"`
	User                *User     `json:"user,omitempty"`
	BusinessName        string    `json:"business_name"`
	BusinessDescription string    `json:"business_description,omitempty"`
	BusinessAddress     string    `json:"business_address,omitempty"`
	BusinessPhone       string    `json:"business_phone,omitempty"`
	BusinessEmail       string    `json:"business_email,omitempty"`
	BusinessWebsite     string    `json:"business_website,omitempty"`
	BusinessLogo        string    `json:"business_logo,omitempty"`
	IsVerified          bool      `json:"is_verified"`
	IsActive            bool      `json:"is_active"`
	CommissionRate      float64   `json:"commission_rate"`
	TotalSales          float64   `json:"total_sales"`
	Rating              float64   `json:"rating"`
	ReviewCount         int       `json:"review_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
