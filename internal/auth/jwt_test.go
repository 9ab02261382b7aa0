package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier("secret", "authenticated", "")
	token, err := v.Sign("user-1", time.Minute)
	require.NoError(t, err)

	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier("secret", "authenticated", "")

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))
	aud := jwt.ClaimStrings{"authenticated"}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "u", ExpiresAt: future, Audience: aud})},
		{"expired", sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "u", ExpiresAt: past, Audience: aud})},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "u", Audience: aud})},
		{"wrong audience", sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "u", ExpiresAt: future, Audience: jwt.ClaimStrings{"anon"}})},
		{"no subject", sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{ExpiresAt: future, Audience: aud})},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, []byte("secret"), jwt.RegisteredClaims{Subject: "u", ExpiresAt: future, Audience: aud})},
		{"none algorithm", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{Subject: "u", ExpiresAt: future, Audience: aud})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}
