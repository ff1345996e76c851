package dto

import "github.com/kurniadi/customs_declaration_app/internal/core/domain"

// LoginRequest authenticates a user.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the issued token and the resolved capability set so
// clients can disable unavailable actions up front.
type LoginResponse struct {
	Token        string   `json:"token"`
	UserID       string   `json:"userID"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}

// CreateUserRequest registers a new account.
type CreateUserRequest struct {
	Username string      `json:"username" binding:"required,min=3"`
	Name     string      `json:"name" binding:"required"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=OPERATOR SUPERVISOR ADMIN"`
}

// UserResponse is the API view of an account.
type UserResponse struct {
	UserID   string `json:"userID"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

// ToUserResponse converts a domain user to its API view.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:   u.UserID,
		Username: u.Username,
		Name:     u.Name,
		Role:     string(u.Role),
		IsActive: u.IsActive,
	}
}
