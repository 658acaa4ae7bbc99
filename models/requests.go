package models

import "github.com/go-playground/validator/v10"

// Request DTOs are validated at the boundary before any store access.

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Username   string `json:"username" validate:"omitempty,min=3,max=30"`
	Email      string `json:"email" validate:"omitempty,email,max=254"`
	Age        *int   `json:"age" validate:"omitempty,gte=0,lte=150"`
	Gender     string `json:"gender" validate:"max=50"`
	Stress     string `json:"stress" validate:"max=200"`
	DreamTheme string `json:"dreamTheme" validate:"max=200"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type PasswordResetRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type PasswordResetRedeemRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type AddFavoriteRequest struct {
	ChatHistory []ChatMessage `json:"chatHistory" validate:"required,min=1,dive"`
}

type InterpretDreamRequest struct {
	Dream string `json:"dream" validate:"required,max=4000"`
}

var validate = validator.New()

// Validate checks a request DTO against its declared constraints.
func Validate(req any) error {
	return validate.Struct(req)
}
