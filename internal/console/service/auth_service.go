package service

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
	"github.com/xela07ax/pulsewatch-prototype/internal/infra/auth"
)

// AuthService выдает и проверяет RS256-токены для административных операций
// консоли. Проверка токенов приходит через embedding BaseValidator, поэтому
// сервис реализует auth.TokenValidator.
type AuthService struct {
	*auth.BaseValidator

	adminUser string
	adminHash string // bcrypt-хэш пароля из конфига

	privateKey *rsa.PrivateKey
	tokenTTL   time.Duration
}

func NewAuthService(adminUser, adminHash string, privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &AuthService{
		BaseValidator: auth.NewBaseValidator(publicKey),
		adminUser:     adminUser,
		adminHash:     adminHash,
		privateKey:    privateKey,
		tokenTTL:      tokenTTL,
	}
}

func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	// 1. Аутентификация: единственная учетка оператора задана в конфиге
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUser)) != 1 {
		return nil, errors.New("invalid credentials")
	}

	// 2. Проверка пароля (используем bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	// 3. Формирование Claims
	expiresAt := time.Now().Add(s.tokenTTL)
	claims := &domain.CustomClaims{
		UserID: s.adminUser,
		Scopes: map[string]bool{domain.ScopeMonitoringAdmin: true},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pulsewatch-console",
			Subject:   s.adminUser,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	// 4. Подпись токена ЗАКРЫТЫМ КЛЮЧОМ (RS256)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	}, nil
}
