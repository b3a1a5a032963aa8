package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// RegisterRequest is the payload for account creation. The role is fixed at
// registration and cannot be changed afterwards.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"max=100"`
	Role     string `json:"role" validate:"required,oneof=student instructor admin"`
}

// LoginRequest is the payload for credential authentication.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdateRequest updates the caller's own profile fields.
type ProfileUpdateRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=15"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	Bio         string    `json:"bio"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthResponse carries the issued access token and the authenticated profile.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// NewUserResponse maps the model to its public view.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        user.Role,
		Bio:         user.Bio,
		PhoneNumber: user.PhoneNumber,
		CreatedAt:   user.CreatedAt,
	}
}
