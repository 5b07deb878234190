// Package authtoken implements C1, the Token Validator: a pure,
// no-I/O check of an HMAC-SHA256 compact bearer token.
package authtoken

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ledgerflow/txncore/pkg/errors"
)

// Claims is the subject/role pair a validated token yields.
type Claims struct {
	Subject string
	Roles   []string
}

// HasRole reports whether c carries role.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type tokenClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Validator checks the signature, exp and nbf of a bearer token against
// a shared secret, and extracts the sub/roles claims. It performs no
// I/O — every dependency is the secret passed to New.
type Validator struct {
	secret []byte
	issuer string
}

func New(secret, issuer string) *Validator {
	return &Validator{secret: []byte(secret), issuer: issuer}
}

// Validate checks the raw Authorization header value (including the
// "Bearer " prefix, which it strips) and returns the subject/roles
// claims, or a TOKEN_EXPIRED / TOKEN_INVALID AppError.
func (v *Validator) Validate(bearer string) (Claims, error) {
	raw := strings.TrimPrefix(bearer, "Bearer ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, errors.TokenInvalid("missing bearer token")
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		if strings.Contains(err.Error(), "token is expired") {
			return Claims{}, errors.TokenExpired()
		}
		return Claims{}, errors.TokenInvalid(err.Error())
	}
	if !parsed.Valid {
		return Claims{}, errors.TokenInvalid("signature or claims rejected")
	}

	if claims.ExpiresAt == nil {
		return Claims{}, errors.TokenInvalid("missing exp claim")
	}
	now := time.Now()
	if claims.ExpiresAt.Before(now) {
		return Claims{}, errors.TokenExpired()
	}
	if claims.NotBefore != nil && claims.NotBefore.After(now) {
		return Claims{}, errors.TokenInvalid("token not yet valid")
	}
	if claims.Subject == "" {
		return Claims{}, errors.TokenInvalid("missing sub claim")
	}
	if v.issuer != "" && claims.Issuer != "" && claims.Issuer != v.issuer {
		return Claims{}, errors.TokenInvalid("unrecognized issuer")
	}

	return Claims{Subject: claims.Subject, Roles: claims.Roles}, nil
}

// Issue mints a token for tests and local tooling — the Account
// Service is the real issuer in production, but the Transaction
// Service's test suite needs a way to fabricate valid tokens without
// standing up that service.
func (v *Validator) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
