package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleLibrarian UserRole = "librarian"
	RoleStaff     UserRole = "staff"
)

// IsValid checks if the role is known
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleStaff:
		return true
	}
	return false
}

// HasAdminCapability reports whether the role may use the admin API.
func (r UserRole) HasAdminCapability() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

type User struct {
	ID           int32      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user may use the admin API.
func (u *User) IsAdmin() bool {
	return u != nil && u.IsActive && u.Role.HasAdminCapability()
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type CreateUserRequest struct {
	Username string   `json:"username" binding:"required,min=3,max=100"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     UserRole `json:"role" binding:"required,oneof=admin librarian staff"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type JWTClaims struct {
	UserID   int32    `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}
