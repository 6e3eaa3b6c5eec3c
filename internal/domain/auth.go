package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// ScopeMonitoringAdmin дает право на административные операции:
// export, cleanup, сброс кэша.
const ScopeMonitoringAdmin = "monitoring.admin"

type CustomClaims struct {
	UserID string          `json:"user_id"`
	Scopes map[string]bool `json:"scopes"` // например "monitoring.admin": true
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}
