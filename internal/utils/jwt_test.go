package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT(7, "s3cret")
	require.NoError(t, err)

	claims, err := ParseJWT(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "7", claims.Subject)
}

func TestParseJWT_Rejects(t *testing.T) {
	good, err := GenerateJWT(7, "s3cret")
	require.NoError(t, err)

	sign := func(c Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	foreign := valid
	foreign.Issuer = "someone-else"
	noExpiry := valid
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", sign(Claims{UserID: 7, RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte("other"))},
		{"expired", sign(Claims{UserID: 7, RegisteredClaims: expired}, jwt.SigningMethodHS256, []byte("s3cret"))},
		{"foreign issuer", sign(Claims{UserID: 7, RegisteredClaims: foreign}, jwt.SigningMethodHS256, []byte("s3cret"))},
		{"no expiry", sign(Claims{UserID: 7, RegisteredClaims: noExpiry}, jwt.SigningMethodHS256, []byte("s3cret"))},
		{"other algorithm", sign(Claims{UserID: 7, RegisteredClaims: valid}, jwt.SigningMethodHS512, []byte("s3cret"))},
		{"no user", sign(Claims{RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte("s3cret"))},
		{"garbage", "not.a.token"},
		{"truncated", good[:len(good)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJWT(tt.token, "s3cret")
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
