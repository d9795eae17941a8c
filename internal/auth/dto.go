package auth

import (
	"github.com/sweetdelights/bakery-backend/internal/users"
)

// RegisterRequest is the sign-up payload. Admin is honoured only when admin
// registration is enabled.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required"`
	DisplayName string  `json:"displayName" validate:"required"`
	Phone       *string `json:"phone,omitempty"`
	Admin       bool    `json:"admin,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest pairs the (possibly expired) access token's jti with the
// refresh token issued alongside it.
type RefreshRequest struct {
	AccessID     string `json:"-"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenResponse is returned by register, login and refresh.
type TokenResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresIn    int            `json:"expiresIn"`
	User         *users.UserDTO `json:"user"`
}
