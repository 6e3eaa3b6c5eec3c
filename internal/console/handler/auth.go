package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

// TokenIssuer выдает токен по логину/паролю оператора
type TokenIssuer interface {
	GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error)
}

type Auth struct {
	issuer TokenIssuer
	logger *zap.Logger
}

func NewAuth(issuer TokenIssuer, logger *zap.Logger) *Auth {
	return &Auth{issuer: issuer, logger: logger.Named("auth")}
}

// Login обменивает логин/пароль на Bearer-токен.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.issuer.GenerateToken(r.Context(), req.Username, req.Password)
	if err != nil {
		// Не уточняем, что именно не так: логин или пароль
		h.logger.Warn("login rejected", zap.String("username", req.Username))
		respondError(w, h.logger, http.StatusUnauthorized, "invalid credentials")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, token)
}
