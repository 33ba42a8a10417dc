package dto

import (
	"time"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse response.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// RegisterUserRequest payload.
type RegisterUserRequest struct {
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      domain.Role `json:"role"`
	CompanyID string      `json:"company_id"`
	RegionID  *string     `json:"region_id,omitempty"`
	StoreID   *string     `json:"store_id,omitempty"`
}

// UserResponse response.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CompanyID string      `json:"company_id"`
	RegionID  *string     `json:"region_id,omitempty"`
	StoreID   *string     `json:"store_id,omitempty"`
}
