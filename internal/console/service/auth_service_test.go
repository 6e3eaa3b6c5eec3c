package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewAuthService("admin", string(hash), key, &key.PublicKey, time.Minute)
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.GenerateToken(context.Background(), "admin", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if token.TokenType != "Bearer" || token.AccessToken == "" {
		t.Fatalf("token = %+v", token)
	}
	if token.ExpiresIn <= 0 || token.ExpiresIn > 60 {
		t.Fatalf("ExpiresIn = %d, want within a minute", token.ExpiresIn)
	}

	// Выданный токен проходит собственную проверку сервиса
	claims, err := svc.VerifyToken("Bearer " + token.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "admin" {
		t.Fatalf("UserID = %q, want admin", claims.UserID)
	}
	if !claims.Scopes[domain.ScopeMonitoringAdmin] {
		t.Fatalf("Scopes = %v, want monitoring.admin", claims.Scopes)
	}
}

func TestGenerateTokenRejectsBadCredentials(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.GenerateToken(ctx, "admin", "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
	if _, err := svc.GenerateToken(ctx, "intruder", "s3cret"); err == nil {
		t.Fatal("unknown user accepted")
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.VerifyToken("Bearer not-a-jwt"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
