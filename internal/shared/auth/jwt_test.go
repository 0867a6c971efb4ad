package auth

import (
	"errors"
	"testing"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT("user-1", "u@example.com", "U Ser", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected sub user-1, got %q", claims.Subject)
	}
	if claims.Email != "u@example.com" {
		t.Fatalf("expected email preserved, got %q", claims.Email)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-a")
	token, err := SignJWT("user-1", "", "", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	t.Setenv("JWT_SECRET", "secret-b")
	if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := SignJWT("user-1", "", "", ""); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}
