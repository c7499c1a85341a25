package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	sessionID := uuid.New()
	userID := uuid.New()

	token, err := NewSessionToken(sessionID, userID, "secret", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	claims, err := ParseSessionToken(token, "secret")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.SessionID != sessionID || claims.UserID != userID {
		t.Errorf("claims mismatch: %+v", claims)
	}
}

func TestParseSessionTokenWrongSecret(t *testing.T) {
	token, err := NewSessionToken(uuid.New(), uuid.New(), "secret", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := ParseSessionToken(token, "other-secret"); err == nil {
		t.Fatal("expected signature verification failure")
	}
}

func TestParseSessionTokenExpired(t *testing.T) {
	token, err := NewSessionToken(uuid.New(), uuid.New(), "secret", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, err = ParseSessionToken(token, "secret")
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired-token error, got %v", err)
	}
}

func TestParseSessionTokenGarbage(t *testing.T) {
	if _, err := ParseSessionToken("not.a.token", "secret"); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !CheckPasswordHash("password1", &hash) {
		t.Error("expected match for correct password")
	}
	if CheckPasswordHash("password2", &hash) {
		t.Error("expected mismatch for wrong password")
	}
	if CheckPasswordHash("password1", nil) {
		t.Error("expected false for passwordless account")
	}
	empty := ""
	if CheckPasswordHash("password1", &empty) {
		t.Error("expected false for empty stored hash")
	}
}
