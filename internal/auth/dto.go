// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

const TokenTypeBearer = "Bearer"

type LoginRequest struct {
	Email      string `json:"email"      validate:"required,email,max=150"`
	Password   string `json:"password"   validate:"required,max=72"`
	RememberMe bool   `json:"rememberMe"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	RememberMe   bool   `json:"rememberMe"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenResponse is returned by login and refresh. ExpiresIn is the access
// token lifetime in seconds.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
}

type MeResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}
