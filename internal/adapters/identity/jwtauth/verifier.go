package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
)

// Claims はアクセストークンのクレームです。Subject がユーザー ID です。
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier は HS256 で署名されたトークンを検証します。
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier は Verifier を生成します。issuer が空の場合は発行者を検証しません。
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwtauth: secret is required")
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Verify はトークンを検証して主体を返します。
func (v *Verifier) Verify(_ context.Context, token string) (identity.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return identity.Identity{}, identity.ErrMissingIdentity
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", identity.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return identity.Identity{}, identity.ErrInvalidToken
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" || subject == identity.SystemUserID {
		return identity.Identity{}, fmt.Errorf("%w: subject %q is not allowed", identity.ErrInvalidToken, subject)
	}

	role := identity.Role(strings.ToLower(strings.TrimSpace(claims.Role)))
	switch role {
	case identity.RoleAdmin, identity.RoleHR, identity.RoleEmployee:
	default:
		return identity.Identity{}, fmt.Errorf("%w: role %q is not allowed", identity.ErrInvalidToken, claims.Role)
	}

	return identity.Identity{UserID: subject, Role: role}, nil
}

// Sign は主体に対するトークンを発行します。ローカル検証と運用ツール向けです。
func (v *Verifier) Sign(id identity.Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Role: string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
