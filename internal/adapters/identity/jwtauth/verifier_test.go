package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier("test-secret", "codex-hrm")
	if err != nil {
		t.Fatalf("NewVerifier returned error: %v", err)
	}
	return v
}

func TestVerifier_RoundTrip(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)
	token, err := v.Sign(identity.Identity{UserID: "user-1", Role: identity.RoleHR}, time.Hour)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	got, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got.UserID != "user-1" || got.Role != identity.RoleHR {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)
	other, err := NewVerifier("other-secret", "codex-hrm")
	if err != nil {
		t.Fatalf("NewVerifier returned error: %v", err)
	}

	expired, _ := v.Sign(identity.Identity{UserID: "user-1", Role: identity.RoleAdmin}, -time.Minute)
	wrongKey, _ := other.Sign(identity.Identity{UserID: "user-1", Role: identity.RoleAdmin}, time.Hour)
	system, _ := v.Sign(identity.System(), time.Hour)
	unknownRole, _ := v.Sign(identity.Identity{UserID: "user-1", Role: "root"}, time.Hour)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "codex-hrm"},
	}).SignedString([]byte("test-secret"))

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))

	cases := map[string]string{
		"expired":      expired,
		"wrong key":    wrongKey,
		"system":       system,
		"unknown role": unknownRole,
		"no expiry":    noExp,
		"wrong issuer": wrongIssuer,
		"garbage":      "not-a-token",
	}

	for name, token := range cases {
		name, token := name, token
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := v.Verify(context.Background(), token); !errors.Is(err, identity.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestVerifier_EmptyToken(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)
	if _, err := v.Verify(context.Background(), "  "); !errors.Is(err, identity.ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewVerifier("", ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
