// Package auth verifies the bearer tokens issued by the identity provider. The
// service never issues tokens for real users; Sign exists for tooling and tests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for any token that cannot be trusted.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier resolves a bearer token to the caller's user ID.
type Verifier interface {
	Verify(token string) (string, error)
}

// JWTVerifier checks HS256 tokens and takes the user ID from the subject claim.
type JWTVerifier struct {
	secret   []byte
	audience string
	issuer   string
}

// NewJWTVerifier creates a verifier. Empty audience or issuer are not checked.
func NewJWTVerifier(secret, audience, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: audience, issuer: issuer}
}

// Verify implements Verifier.
func (v *JWTVerifier) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return claims.Subject, nil
}

// Sign issues a token for userID valid for ttl.
func (v *JWTVerifier) Sign(userID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    v.issuer,
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Ensure JWTVerifier implements Verifier.
var _ Verifier = (*JWTVerifier)(nil)
