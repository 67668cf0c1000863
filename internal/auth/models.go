package auth

import (
	"errors"
	"time"
)

var (
	ErrMissingFields       = errors.New("email and password required")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrEmailTaken          = errors.New("user already registered")
	ErrInvalidCredentials  = errors.New("invalid login credentials")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
	ErrUserNotFound        = errors.New("user not found")
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FullName       string    `json:"full_name"`
	AvatarURL      string    `json:"avatar_url"`
	Provider       string    `json:"provider"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Session is a signed-in user's token pair.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// SignUpResponse has a nil Session when the address must be confirmed first.
type SignUpResponse struct {
	User                 User     `json:"user"`
	Session              *Session `json:"session"`
	ConfirmationRequired bool     `json:"confirmation_required"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
