package dto

import "github.com/spec-kit/ticket-tracker/internal/domain"

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest payload.
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UserResponse is the public user projection returned by auth endpoints.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewUserResponse maps a domain summary.
func NewUserResponse(user domain.UserSummary) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email, Name: user.Name}
}

// SessionResponse pairs the user with the issued token.
type SessionResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}
